package services

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"shop-assistant/pkg/config"
)

// OpenAIClassifier asks an OpenAI compatible vision model to name the product.
// It returns a single prediction.
type OpenAIClassifier struct {
	client openai.Client
	apiKey string
	model  string
	prompt string
}

func NewOpenAIClassifier(conf config.Openai) *OpenAIClassifier {
	opts := []option.RequestOption{option.WithAPIKey(conf.ApiKey)}
	if conf.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(conf.BaseURL))
	}
	return &OpenAIClassifier{
		client: openai.NewClient(opts...),
		apiKey: conf.ApiKey,
		model:  conf.Model,
		prompt: conf.Prompt,
	}
}

func (c *OpenAIClassifier) Classify(ctx context.Context, image []byte, _ string) ([]Prediction, error) {
	if c.apiKey == "" {
		return nil, &ClassifierError{Err: ErrMissingCredential}
	}
	dataURL := "data:" + http.DetectContentType(image) + ";base64," + base64.StdEncoding.EncodeToString(image)

	chatCompletion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(c.prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
		Model:       c.model,
		Temperature: openai.Float(0),
	})
	if err != nil {
		return nil, &ClassifierError{Err: err}
	}
	if len(chatCompletion.Choices) == 0 {
		return nil, &ClassifierError{Err: errors.New("no choices returned")}
	}
	label := strings.Trim(strings.TrimSpace(chatCompletion.Choices[0].Message.Content), ".")
	if label == "" {
		return nil, &ClassifierError{Err: errors.New("empty label returned")}
	}
	return []Prediction{{Label: label, Score: 1}}, nil
}
