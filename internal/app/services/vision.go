package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/imroc/req/v3"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"shop-assistant/pkg/config"
	"shop-assistant/pkg/util"
)

type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classifier labels a product photo. Predictions are ordered best first.
type Classifier interface {
	Classify(ctx context.Context, image []byte, filename string) ([]Prediction, error)
}

// CredentialSource resolves the vision api key at call time.
type CredentialSource func(ctx context.Context) (string, error)

func StaticCredential(key string) CredentialSource {
	return func(context.Context) (string, error) {
		return key, nil
	}
}

type LandingAIClassifier struct {
	client     *req.Client
	endpointID string
	credential CredentialSource
}

func NewLandingAIClassifier(conf config.Vision, credential CredentialSource) *LandingAIClassifier {
	return &LandingAIClassifier{
		client:     req.C().SetBaseURL(conf.APIHost).SetTimeout(conf.Timeout),
		endpointID: conf.EndpointID,
		credential: credential,
	}
}

func (c *LandingAIClassifier) Classify(ctx context.Context, image []byte, filename string) ([]Prediction, error) {
	apiKey, err := c.credential(ctx)
	if err != nil {
		return nil, &ClassifierError{Err: fmt.Errorf("resolve credential: %w", err)}
	}
	if apiKey == "" || c.endpointID == "" {
		return nil, &ClassifierError{Err: ErrMissingCredential}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("apikey", apiKey).
		SetQueryParam("endpoint_id", c.endpointID).
		SetFileBytes("file", filename, image).
		Post("/inference/v1/predict")
	if err != nil {
		return nil, &ClassifierError{Err: &TransportError{Op: "landingai predict", Err: err}}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ClassifierError{Err: fmt.Errorf("landingai status %d: %s", resp.StatusCode, resp.String())}
	}

	predictions := parseLandingAIPredictions(resp.Bytes())
	if len(predictions) == 0 {
		return nil, &ClassifierError{Err: errors.New("no predictions returned")}
	}
	return predictions, nil
}

// parseLandingAIPredictions reads classification ("predictions") and object
// detection ("backbonepredictions") responses, best score first.
func parseLandingAIPredictions(body []byte) []Prediction {
	var predictions []Prediction
	add := func(p gjson.Result) {
		if label := p.Get("labelName").String(); label != "" {
			predictions = append(predictions, Prediction{Label: label, Score: p.Get("score").Float()})
		}
	}

	parsed := gjson.ParseBytes(body)
	if p := parsed.Get("predictions"); p.IsArray() {
		p.ForEach(func(_, v gjson.Result) bool {
			add(v)
			return true
		})
	} else if p.IsObject() {
		add(p)
	}
	parsed.Get("backbonepredictions").ForEach(func(_, v gjson.Result) bool {
		add(v)
		return true
	})

	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Score > predictions[j].Score
	})
	return predictions
}

// CachedClassifier remembers successful predictions per image digest.
type CachedClassifier struct {
	next  Classifier
	cache *redis.Client
	ttl   time.Duration
}

func NewCachedClassifier(next Classifier, cache *redis.Client, ttl time.Duration) *CachedClassifier {
	return &CachedClassifier{next: next, cache: cache, ttl: ttl}
}

func (c *CachedClassifier) Classify(ctx context.Context, image []byte, filename string) ([]Prediction, error) {
	key := "shop:vision:" + util.BytesMD5(image)
	if data, err := c.cache.Get(ctx, key).Bytes(); err == nil {
		var cached []Prediction
		if err := json.Unmarshal(data, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Warnf("vision cache read: %v", err)
	}

	predictions, err := c.next.Classify(ctx, image, filename)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(predictions); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Warnf("vision cache write: %v", err)
		}
	}
	return predictions, nil
}
