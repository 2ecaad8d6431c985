package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"shop-assistant/pkg/config"
)

func TestLandingAIClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference/v1/predict" || r.URL.Query().Get("endpoint_id") != "ep-1" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if r.Header.Get("apikey") != "key-1" {
			t.Errorf("unexpected apikey %q", r.Header.Get("apikey"))
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file: %v", err)
		} else {
			data, _ := io.ReadAll(file)
			if header.Filename != "shoe.png" || string(data) != "img" {
				t.Errorf("unexpected upload %s %q", header.Filename, data)
			}
		}
		_, _ = w.Write([]byte(`{"backbonepredictions":{"a":{"labelName":"Socks","score":0.2},"b":{"labelName":"Running Shoes","score":0.8}}}`))
	}))
	defer srv.Close()

	classifier := NewLandingAIClassifier(config.Vision{APIHost: srv.URL, EndpointID: "ep-1", Timeout: time.Second}, StaticCredential("key-1"))
	predictions, err := classifier.Classify(context.Background(), []byte("img"), "shoe.png")
	if err != nil {
		t.Fatal(err)
	}
	if len(predictions) != 2 || predictions[0].Label != "Running Shoes" {
		t.Errorf("unexpected predictions %+v", predictions)
	}
}

func TestLandingAIClassifyFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("invalid key"))
	}))
	defer srv.Close()

	conf := config.Vision{APIHost: srv.URL, EndpointID: "ep-1", Timeout: time.Second}
	var clsErr *ClassifierError

	_, err := NewLandingAIClassifier(conf, StaticCredential("")).Classify(context.Background(), []byte("img"), "a.png")
	if !errors.As(err, &clsErr) || !errors.Is(err, ErrMissingCredential) {
		t.Errorf("expected missing credential, got %v", err)
	}

	_, err = NewLandingAIClassifier(conf, StaticCredential("bad")).Classify(context.Background(), []byte("img"), "a.png")
	if !errors.As(err, &clsErr) || !strings.Contains(err.Error(), "401") {
		t.Errorf("expected status failure, got %v", err)
	}

	failing := func(context.Context) (string, error) { return "", errors.New("no row") }
	_, err = NewLandingAIClassifier(conf, failing).Classify(context.Background(), []byte("img"), "a.png")
	if !errors.As(err, &clsErr) {
		t.Errorf("expected classifier error, got %v", err)
	}
}

func TestParseLandingAIPredictions(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
		n    int
	}{
		{"classification object", `{"predictions":{"labelName":"Hat","score":0.7}}`, "Hat", 1},
		{"classification list", `{"predictions":[{"labelName":"Hat","score":0.1},{"labelName":"Bag","score":0.6}]}`, "Bag", 2},
		{"empty", `{}`, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseLandingAIPredictions([]byte(tt.body))
			if len(got) != tt.n {
				t.Fatalf("expected %d predictions, got %+v", tt.n, got)
			}
			if tt.n > 0 && got[0].Label != tt.want {
				t.Errorf("top label = %s, want %s", got[0].Label, tt.want)
			}
		})
	}
}

func TestOpenAIClassify(t *testing.T) {
	var sawImage bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		sawImage = strings.Contains(string(raw), "data:") && strings.Contains(string(raw), "base64,")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" Running Shoes. "}}]}`))
	}))
	defer srv.Close()

	classifier := NewOpenAIClassifier(config.Openai{ApiKey: "k", BaseURL: srv.URL + "/", Model: "m", Prompt: "name it"})
	predictions, err := classifier.Classify(context.Background(), []byte("\x89PNG\r\n\x1a\n"), "a.png")
	if err != nil {
		t.Fatal(err)
	}
	if len(predictions) != 1 || predictions[0].Label != "Running Shoes" {
		t.Errorf("unexpected predictions %+v", predictions)
	}
	if !sawImage {
		t.Error("image was not sent as a data url")
	}

	_, err = NewOpenAIClassifier(config.Openai{}).Classify(context.Background(), []byte("x"), "a.png")
	if !errors.Is(err, ErrMissingCredential) {
		t.Errorf("expected missing credential, got %v", err)
	}
}

func TestCachedClassifier(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	inner := &fakeClassifier{predictions: []Prediction{{Label: "Hat", Score: 0.9}}}
	cached := NewCachedClassifier(inner, client, time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		predictions, err := cached.Classify(ctx, []byte("img"), "a.png")
		if err != nil {
			t.Fatal(err)
		}
		if predictions[0].Label != "Hat" {
			t.Errorf("unexpected predictions %+v", predictions)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected one upstream call, got %d", inner.calls)
	}

	mr.FastForward(2 * time.Hour)
	if _, err := cached.Classify(ctx, []byte("img"), "a.png"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("expected a refresh after expiry, got %d calls", inner.calls)
	}

	inner.err = errors.New("boom")
	if _, err := cached.Classify(ctx, []byte("other"), "b.png"); err == nil {
		t.Error("expected failure to propagate")
	}
}
