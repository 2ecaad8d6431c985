package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"shop-assistant/pkg/config"
)

// Redis backs the session store, turn locks and caches. nil when not configured.
var Redis *redis.Client

func initRedis() error {
	if Redis != nil {
		return nil
	}
	conf := config.GetRedisConf()
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorf("redis connect fail:%s", err.Error())
		_ = client.Close()
		return err
	}
	Redis = client
	log.Info("redis connection success")
	return nil
}
