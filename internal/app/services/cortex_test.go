package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shop-assistant/internal/app/models"
	"shop-assistant/internal/pkg/stream"
	"shop-assistant/pkg/config"
)

func testCortexConf(host string) config.Cortex {
	return config.Cortex{
		Host:              host,
		Token:             "secret",
		Database:          "SHOP",
		Schema:            "PUBLIC",
		Stage:             "MODELS",
		SemanticModelFile: "shop.yaml",
		SearchService:     "PRODUCT_SEARCH",
		SearchMaxResults:  10,
		SearchIDColumn:    "product_dimension",
		AgentModel:        "llama3.1-70b",
		Endpoint: config.CortexEndpoint{
			AnalystMessage:  "/api/v2/cortex/analyst/message",
			AnalystFeedback: "/api/v2/cortex/analyst/feedback",
			Agent:           "/api/v2/cortex/agent:run",
		},
		Timeout: 5 * time.Second,
	}
}

func history() []models.Message {
	return []models.Message{
		{Role: models.RoleUser, Content: []models.ContentBlock{models.TextBlock("hi"), models.ImageBlock(models.ImageRef{Name: "a.png"})}},
		{Role: models.RoleAssistant, Content: []models.ContentBlock{models.TextBlock("hello"), models.SuggestionsBlock([]string{"x"})}},
		{Role: models.RoleUser, Content: []models.ContentBlock{models.TextBlock("sales?")}},
	}
}

func TestCortexSendAnalyst(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/cortex/analyst/message" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != `Snowflake Token="secret"` {
			t.Errorf("unexpected auth header %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("bad body: %v", err)
		}
		_, _ = w.Write([]byte(`{"text_delta":"ok"}` + "\n"))
	}))
	defer srv.Close()

	client := NewCortexClient(testCortexConf(srv.URL))
	out, err := client.Send(context.Background(), &AnalystRequest{Dialect: stream.DialectAnalyst, Messages: history()})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"text_delta":"ok"}`+"\n" {
		t.Errorf("unexpected body %q", out)
	}

	if body["semantic_model_file"] != "@SHOP.PUBLIC.MODELS/shop.yaml" || body["stream"] != true {
		t.Errorf("unexpected request %v", body)
	}
	messages := body["messages"].([]interface{})
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	second := messages[1].(map[string]interface{})
	if second["role"] != "analyst" {
		t.Errorf("assistant role = %v", second["role"])
	}
	first := messages[0].(map[string]interface{})
	if content := first["content"].([]interface{}); len(content) != 1 {
		t.Errorf("non-text blocks sent: %v", content)
	}
}

func TestCortexSendAgent(t *testing.T) {
	var body map[string]interface{}
	var requestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/cortex/agent:run" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		if got := r.Header.Get("X-Snowflake-Authorization-Token-Type"); got != "KEYPAIR_JWT" {
			t.Errorf("unexpected token type %q", got)
		}
		requestID = r.Header.Get("X-Request-ID")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		_, _ = w.Write([]byte("{}\n"))
	}))
	defer srv.Close()

	conf := testCortexConf(srv.URL)
	conf.TokenType = "KEYPAIR_JWT"
	client := NewCortexClient(conf)
	_, err := client.Send(context.Background(), &AnalystRequest{
		Dialect:     stream.DialectAgent,
		Messages:    history(),
		FirstAnswer: true,
		RequestID:   "client-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if requestID != "client-1" {
		t.Errorf("request id header = %q", requestID)
	}
	if body["model"] != "llama3.1-70b" {
		t.Errorf("model = %v", body["model"])
	}
	if instr, _ := body["response_instruction"].(string); len(instr) == 0 || instr[:5] != "Greet" {
		t.Errorf("first answer instruction = %q", instr)
	}
	tools := body["tools"].([]interface{})
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %v", tools)
	}
	resources := body["tool_resources"].(map[string]interface{})
	search := resources["search1"].(map[string]interface{})
	if search["name"] != "SHOP.PUBLIC.PRODUCT_SEARCH" || search["id_column"] != "product_dimension" {
		t.Errorf("unexpected search resource %v", search)
	}
	second := body["messages"].([]interface{})[1].(map[string]interface{})
	if second["role"] != "assistant" {
		t.Errorf("agent assistant role = %v", second["role"])
	}
}

func TestCortexSendErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"request_id":"req-7","error_code":"392708","message":"bad model"}`))
	}))
	client := NewCortexClient(testCortexConf(srv.URL))

	_, err := client.Send(context.Background(), &AnalystRequest{Dialect: stream.DialectAnalyst})
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upErr.StatusCode != 400 || upErr.RequestID != "req-7" || upErr.Code != "392708" || upErr.Message != "bad model" {
		t.Errorf("unexpected upstream error %+v", upErr)
	}

	srv.Close()
	_, err = client.Send(context.Background(), &AnalystRequest{Dialect: stream.DialectAnalyst})
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestCortexSubmitFeedback(t *testing.T) {
	status := http.StatusOK
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/cortex/analyst/feedback" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error_code":"399","message":"unknown request"}`))
		}
	}))
	defer srv.Close()
	client := NewCortexClient(testCortexConf(srv.URL))

	if err := client.SubmitFeedback(context.Background(), "req-1", true, "great"); err != nil {
		t.Fatal(err)
	}
	if body["request_id"] != "req-1" || body["positive"] != true || body["feedback_message"] != "great" {
		t.Errorf("unexpected body %v", body)
	}

	status = http.StatusNotFound
	err := client.SubmitFeedback(context.Background(), "req-2", false, "")
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upErr.RequestID != "req-2" || upErr.Code != "399" {
		t.Errorf("unexpected error %+v", upErr)
	}
}

func TestParseUpstreamErrorPlainBody(t *testing.T) {
	upErr := parseUpstreamError(502, []byte("bad gateway"))
	if upErr.Message != "bad gateway" || upErr.Code != "" {
		t.Errorf("unexpected error %+v", upErr)
	}
}
