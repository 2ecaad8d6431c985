package config

var myopenai Openai

// Openai configures the OpenAI compatible vision model used when vision.provider is "openai".
type Openai struct {
	ApiKey  string `mapstructure:"apikey"`
	BaseURL string `mapstructure:"baseURL"`
	Model   string `mapstructure:"model"`
	Prompt  string `mapstructure:"prompt"`
}

func GetOpenaiConf() Openai {
	return myopenai
}
