package config

import "time"

var redisConf Redis

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// LockExpiry is how long a turn lock survives a crashed holder.
	LockExpiry time.Duration `mapstructure:"lockExpiry"`
}

func GetRedisConf() Redis {
	return redisConf
}

func (r Redis) Enabled() bool {
	return r.Addr != ""
}
