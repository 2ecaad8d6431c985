package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/imroc/req/v3"
	log "github.com/sirupsen/logrus"

	"shop-assistant/internal/app/models"
	"shop-assistant/internal/pkg/stream"
	"shop-assistant/pkg/config"
)

// AnalystRequest is one outbound call to the conversational API.
type AnalystRequest struct {
	Dialect stream.Dialect
	// Messages is the text-only history, oldest first, ending with the new user message.
	Messages []models.Message
	// FirstAnswer is true when no assistant message precedes this call.
	FirstAnswer bool
	// RequestID is a client generated id sent with agent calls.
	RequestID string
}

// AnalystAPI returns the raw event-stream body of one call.
type AnalystAPI interface {
	Send(ctx context.Context, r *AnalystRequest) ([]byte, error)
}

type FeedbackAPI interface {
	SubmitFeedback(ctx context.Context, requestID string, positive bool, comment string) error
}

type CortexClient struct {
	client *req.Client
	conf   config.Cortex
}

func NewCortexClient(conf config.Cortex) *CortexClient {
	client := req.C().
		SetBaseURL(conf.BaseURL()).
		SetTimeout(conf.Timeout).
		SetCommonHeader("Accept", "application/json, text/event-stream")
	if conf.TokenType != "" {
		client.SetCommonBearerAuthToken(conf.Token).
			SetCommonHeader("X-Snowflake-Authorization-Token-Type", conf.TokenType)
	} else {
		client.SetCommonHeader("Authorization", fmt.Sprintf(`Snowflake Token="%s"`, conf.Token))
	}
	return &CortexClient{client: client, conf: conf}
}

type cortexContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type cortexMessage struct {
	Role    string          `json:"role"`
	Content []cortexContent `json:"content"`
}

type analystBody struct {
	Messages          []cortexMessage `json:"messages"`
	SemanticModelFile string          `json:"semantic_model_file"`
	Stream            bool            `json:"stream"`
}

type toolSpec struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type agentTool struct {
	ToolSpec toolSpec `json:"tool_spec"`
}

type agentBody struct {
	Model               string                 `json:"model"`
	ResponseInstruction string                 `json:"response_instruction,omitempty"`
	Messages            []cortexMessage        `json:"messages"`
	Tools               []agentTool            `json:"tools"`
	ToolResources       map[string]interface{} `json:"tool_resources"`
	Stream              bool                   `json:"stream"`
}

const (
	analystToolName = "analyst1"
	searchToolName  = "search1"
)

func (c *CortexClient) Send(ctx context.Context, r *AnalystRequest) ([]byte, error) {
	path, body := c.buildBody(r)
	log.Debugf("cortex %s call with %d messages", r.Dialect, len(r.Messages))

	request := c.client.R().SetContext(ctx).SetBodyJsonMarshal(body)
	if r.RequestID != "" {
		request.SetHeader("X-Request-ID", r.RequestID)
	}
	resp, err := request.Post(path)
	if err != nil {
		return nil, &TransportError{Op: "cortex " + string(r.Dialect), Err: err}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, parseUpstreamError(resp.StatusCode, resp.Bytes())
	}
	return resp.Bytes(), nil
}

func (c *CortexClient) buildBody(r *AnalystRequest) (string, interface{}) {
	if r.Dialect == stream.DialectAgent {
		instruction := "Always respond in a positive tone. Do not make up facts."
		if r.FirstAnswer {
			instruction = "Greet the user before answering. " + instruction
		}
		return c.conf.Endpoint.Agent, agentBody{
			Model:               c.conf.AgentModel,
			ResponseInstruction: instruction,
			Messages:            toCortexMessages(r.Messages, "assistant"),
			Tools: []agentTool{
				{ToolSpec: toolSpec{Type: "cortex_analyst_text_to_sql", Name: analystToolName}},
				{ToolSpec: toolSpec{Type: "cortex_search", Name: searchToolName}},
			},
			ToolResources: map[string]interface{}{
				analystToolName: map[string]interface{}{"semantic_model_file": c.conf.SemanticModelPath()},
				searchToolName: map[string]interface{}{
					"name":        c.conf.SearchServiceName(),
					"max_results": c.conf.SearchMaxResults,
					"id_column":   c.conf.SearchIDColumn,
				},
			},
			Stream: true,
		}
	}
	return c.conf.Endpoint.AnalystMessage, analystBody{
		Messages:          toCortexMessages(r.Messages, "analyst"),
		SemanticModelFile: c.conf.SemanticModelPath(),
		Stream:            true,
	}
}

// toCortexMessages keeps text blocks only; assistantRole is the dialect's name
// for assistant turns.
func toCortexMessages(messages []models.Message, assistantRole string) []cortexMessage {
	out := make([]cortexMessage, 0, len(messages))
	for _, msg := range messages {
		role := string(msg.Role)
		if msg.Role == models.RoleAssistant {
			role = assistantRole
		}
		content := make([]cortexContent, 0, len(msg.Content))
		for _, block := range msg.Content {
			if block.Type == models.BlockText {
				content = append(content, cortexContent{Type: "text", Text: block.Text})
			}
		}
		out = append(out, cortexMessage{Role: role, Content: content})
	}
	return out
}

func (c *CortexClient) SubmitFeedback(ctx context.Context, requestID string, positive bool, comment string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBodyJsonMarshal(map[string]interface{}{
			"request_id":       requestID,
			"positive":         positive,
			"feedback_message": comment,
		}).
		Post(c.conf.Endpoint.AnalystFeedback)
	if err != nil {
		return &TransportError{Op: "cortex feedback", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		upErr := parseUpstreamError(resp.StatusCode, resp.Bytes())
		if upErr.RequestID == "" {
			upErr.RequestID = requestID
		}
		return upErr
	}
	return nil
}
