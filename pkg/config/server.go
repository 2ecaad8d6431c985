package config

import "time"

var (
	serverConf  Server
	sessionConf Session
)

type Server struct {
	Port    int    `mapstructure:"port"`
	RunMode string `mapstructure:"runMode"`
	Release string `mapstructure:"release"`
}

// Session bounds how long an idle conversation is kept by the session store.
type Session struct {
	TTL time.Duration `mapstructure:"ttl"`
}

func GetServerConf() Server {
	return serverConf
}

func GetSessionConf() Session {
	return sessionConf
}
