package config

import "time"

var visionConf Vision

const (
	VisionProviderLandingAI = "landingai"
	VisionProviderOpenAI    = "openai"
)

type Vision struct {
	Provider   string `mapstructure:"provider"`
	APIHost    string `mapstructure:"apiHost"`
	EndpointID string `mapstructure:"endpointId"`
	APIKey     string `mapstructure:"apiKey"`
	// CredentialName is the API_CREDENTIALS row consulted when APIKey is empty.
	CredentialName string        `mapstructure:"credentialName"`
	Timeout        time.Duration `mapstructure:"timeout"`
	CacheTTL       time.Duration `mapstructure:"cacheTTL"`
}

func GetVisionConf() Vision {
	return visionConf
}
