package storage

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"shop-assistant/pkg/config"
)

// Init opens the configured backends. Unconfigured backends are skipped and the
// services fall back to their in-process implementations.
func Init() error {
	if config.GetMysqlConf().Enabled() {
		if err := initMysql(); err != nil {
			return fmt.Errorf("init mysql: %w", err)
		}
	} else {
		log.Warn("mysql not configured, audit log is written to the process log only")
	}
	if config.GetRedisConf().Enabled() {
		if err := initRedis(); err != nil {
			return fmt.Errorf("init redis: %w", err)
		}
	} else {
		log.Warn("redis not configured, sessions are kept in memory")
	}
	return nil
}

func Close() {
	if Redis != nil {
		_ = Redis.Close()
	}
	if DB != nil {
		if sqlDb, err := DB.DB(); err == nil {
			_ = sqlDb.Close()
		}
	}
}
