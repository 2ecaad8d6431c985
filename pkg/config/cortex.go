package config

import (
	"fmt"
	"strings"
	"time"
)

var cortexConf Cortex

type CortexEndpoint struct {
	AnalystMessage  string `mapstructure:"analystMessage"`
	AnalystFeedback string `mapstructure:"analystFeedback"`
	Agent           string `mapstructure:"agent"`
}

type Cortex struct {
	Host string `mapstructure:"host"`
	// Token is sent as `Snowflake Token="..."` unless TokenType is set, in which
	// case it is sent as a bearer token with the matching token type header.
	Token     string `mapstructure:"token"`
	TokenType string `mapstructure:"tokenType"`
	Dialect   string `mapstructure:"dialect"`

	Database          string `mapstructure:"database"`
	Schema            string `mapstructure:"schema"`
	Stage             string `mapstructure:"stage"`
	SemanticModelFile string `mapstructure:"semanticModelFile"`
	SearchService     string `mapstructure:"searchService"`
	SearchMaxResults  int    `mapstructure:"searchMaxResults"`
	SearchIDColumn    string `mapstructure:"searchIdColumn"`
	AgentModel        string `mapstructure:"agentModel"`

	Endpoint CortexEndpoint `mapstructure:"endpoint"`
	Timeout  time.Duration  `mapstructure:"timeout"`
}

func GetCortexConf() Cortex {
	return cortexConf
}

func (c Cortex) BaseURL() string {
	if strings.HasPrefix(c.Host, "http://") || strings.HasPrefix(c.Host, "https://") {
		return strings.TrimRight(c.Host, "/")
	}
	return "https://" + strings.TrimRight(c.Host, "/")
}

// SemanticModelPath is the staged semantic model reference, e.g. @DB.SCHEMA.STAGE/model.yaml.
func (c Cortex) SemanticModelPath() string {
	return fmt.Sprintf("@%s.%s.%s/%s", c.Database, c.Schema, c.Stage, c.SemanticModelFile)
}

func (c Cortex) SearchServiceName() string {
	return fmt.Sprintf("%s.%s.%s", c.Database, c.Schema, c.SearchService)
}
