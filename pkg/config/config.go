package config

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Init loads the yaml file at path into the package level sections. Environment
// variables prefixed with SHOP_ override file values (mysql.host => SHOP_MYSQL_HOST).
func Init(path string) error {
	viper.Reset()
	viper.SetConfigFile(path)
	viper.SetEnvPrefix("SHOP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := load(); err != nil {
		return err
	}
	log.Infof("config loaded from %s, run mode %s", viper.ConfigFileUsed(), GetRunMode())
	return nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.runMode", "release")

	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.lockExpiry", "2m")

	viper.SetDefault("session.ttl", "24h")

	viper.SetDefault("cortex.dialect", "analyst")
	viper.SetDefault("cortex.timeout", "60s")
	viper.SetDefault("cortex.agentModel", "llama3.1-70b")
	viper.SetDefault("cortex.searchMaxResults", 10)
	viper.SetDefault("cortex.searchIdColumn", "product_dimension")
	viper.SetDefault("cortex.endpoint.analystMessage", "/api/v2/cortex/analyst/message")
	viper.SetDefault("cortex.endpoint.analystFeedback", "/api/v2/cortex/analyst/feedback")
	viper.SetDefault("cortex.endpoint.agent", "/api/v2/cortex/agent:run")

	viper.SetDefault("vision.provider", "landingai")
	viper.SetDefault("vision.apiHost", "https://predict.app.landing.ai")
	viper.SetDefault("vision.credentialName", "LANDINGAI")
	viper.SetDefault("vision.timeout", "30s")
	viper.SetDefault("vision.cacheTTL", "24h")

	viper.SetDefault("openai.prompt", "Name the single product shown in this photo. Answer with the product name only.")
}

type settings struct {
	Server  Server  `mapstructure:"server"`
	Mysql   Mysql   `mapstructure:"mysql"`
	Redis   Redis   `mapstructure:"redis"`
	Session Session `mapstructure:"session"`
	Cortex  Cortex  `mapstructure:"cortex"`
	Vision  Vision  `mapstructure:"vision"`
	Openai  Openai  `mapstructure:"openai"`
}

// load decodes the merged settings; Unmarshal walks every known key so env
// overrides of nested keys are honoured.
func load() error {
	var s settings
	if err := viper.Unmarshal(&s); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	serverConf = s.Server
	mysqlConf = s.Mysql
	redisConf = s.Redis
	sessionConf = s.Session
	cortexConf = s.Cortex
	visionConf = s.Vision
	myopenai = s.Openai
	return nil
}

func GetRunMode() string {
	return serverConf.RunMode
}
