package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"shop-assistant/internal/app/conversation"
	"shop-assistant/internal/app/models"
	"shop-assistant/internal/pkg/stream"
	"shop-assistant/pkg/util"
)

type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseAwaitingVision Phase = "awaiting_vision"
	PhaseAwaitingAPI    Phase = "awaiting_api"
	PhaseFinalizing     Phase = "finalizing"
)

var ErrEmptyTurn = errors.New("turn needs text or an image")

const transportNotice = "The assistant could not be reached. Please try again."

type ImageUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

func (i *ImageUpload) ref() models.ImageRef {
	contentType := i.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(i.Data)
	}
	return models.ImageRef{
		Name:        i.Name,
		ContentType: contentType,
		Size:        len(i.Data),
		MD5:         util.BytesMD5(i.Data),
	}
}

type TurnInput struct {
	Text  string
	Image *ImageUpload
	// OnPhase and OnWarning, when set, observe the turn as it runs.
	OnPhase   func(Phase)
	OnWarning func(string)
}

type TurnResult struct {
	UserIndex      int            `json:"user_index"`
	User           models.Message `json:"user"`
	AssistantIndex int            `json:"assistant_index"`
	Assistant      models.Message `json:"assistant"`
	Warnings       []string       `json:"warnings"`
	// Err is the analyst failure already recorded on Assistant, if any.
	Err error `json:"-"`
}

// TurnService runs one user turn at a time per session:
// idle -> awaiting_vision (image only) -> awaiting_api -> finalizing -> idle.
type TurnService struct {
	store   conversation.Store
	locker  conversation.Locker
	api     AnalystAPI
	vision  Classifier
	audit   AuditSink
	dialect stream.Dialect

	phases sync.Map
}

// NewTurnService builds an orchestrator; vision may be nil.
func NewTurnService(store conversation.Store, locker conversation.Locker, api AnalystAPI,
	vision Classifier, audit AuditSink, dialect stream.Dialect) *TurnService {
	return &TurnService{
		store:   store,
		locker:  locker,
		api:     api,
		vision:  vision,
		audit:   audit,
		dialect: dialect,
	}
}

// Phase reports the turn phase of a session served by this process.
func (t *TurnService) Phase(sessionID string) Phase {
	if v, ok := t.phases.Load(sessionID); ok {
		return v.(Phase)
	}
	return PhaseIdle
}

// Submit runs a user turn. A busy session fails with conversation.ErrTurnInProgress.
func (t *TurnService) Submit(ctx context.Context, sessionID string, in TurnInput) (*TurnResult, error) {
	if strings.TrimSpace(in.Text) == "" && in.Image == nil {
		return nil, ErrEmptyTurn
	}
	unlock, err := t.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	state, err := t.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return t.run(ctx, state, in)
}

// SelectSuggestion makes the chosen suggestion the active one and submits it
// as a text-only turn. choice.Text wins over the indexes when set.
func (t *TurnService) SelectSuggestion(ctx context.Context, sessionID string, choice models.SuggestionRequest, onPhase func(Phase)) (*TurnResult, error) {
	unlock, err := t.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	state, err := t.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(choice.Text)
	if text == "" {
		if choice.MessageIndex == nil || choice.SuggestionIndex == nil {
			return nil, conversation.ErrNoSuggestion
		}
		if text, err = state.Suggestion(*choice.MessageIndex, *choice.SuggestionIndex); err != nil {
			return nil, err
		}
	}
	state.SetActiveSuggestion(text)
	return t.run(ctx, state, TurnInput{Text: *state.ActiveSuggestion, OnPhase: onPhase})
}

func (t *TurnService) run(ctx context.Context, state *conversation.State, in TurnInput) (*TurnResult, error) {
	logger := log.WithField("session", state.ID)
	defer t.phases.Delete(state.ID)
	enter := func(p Phase) {
		t.phases.Store(state.ID, p)
		logger.Debugf("turn phase %s", p)
		if in.OnPhase != nil {
			in.OnPhase(p)
		}
	}
	state.ClearWarnings()
	warn := func(msg string) {
		state.AddWarning(msg)
		if in.OnWarning != nil {
			in.OnWarning(msg)
		}
	}

	text := in.Text
	user := models.Message{Role: models.RoleUser}
	if in.Image != nil {
		enter(PhaseAwaitingVision)
		if label, err := t.classify(ctx, in.Image); err != nil {
			logger.Warnf("vision: %v", err)
			warn(err.Error())
		} else {
			text = annotate(text, label)
		}
	}
	user.Content = append(user.Content, models.TextBlock(text))
	if in.Image != nil {
		user.Content = append(user.Content, models.ImageBlock(in.Image.ref()))
	}
	firstAnswer := !hasAssistant(state.Messages)
	userIndex := state.Append(user)
	user = state.Messages[userIndex]

	enter(PhaseAwaitingAPI)
	request := &AnalystRequest{
		Dialect:     t.dialect,
		Messages:    state.History(),
		FirstAnswer: firstAnswer,
	}
	if t.dialect == stream.DialectAgent {
		request.RequestID = uuid.NewString()
	}
	body, sendErr := t.api.Send(ctx, request)

	enter(PhaseFinalizing)
	assistant, turnErr := t.finalize(body, sendErr, request.RequestID)
	assistantIndex := state.Append(assistant)
	assistant = state.Messages[assistantIndex]
	state.ClearActiveSuggestion()

	if err := t.store.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save session %s: %w", state.ID, err)
	}
	for _, msg := range []models.Message{user, assistant} {
		if err := t.audit.RecordMessage(ctx, state.ID, msg); err != nil {
			logger.Warnf("audit %s message: %v", msg.Role, err)
		}
	}

	fields := log.Fields{"request_id": assistant.RequestID}
	if turnErr != nil {
		fields["error"] = fmt.Sprintf("%T", turnErr)
		logger.WithFields(fields).Warnf("turn failed: %v", turnErr)
	} else {
		logger.WithFields(fields).Info("turn completed")
	}
	return &TurnResult{
		UserIndex:      userIndex,
		User:           user,
		AssistantIndex: assistantIndex,
		Assistant:      assistant,
		Warnings:       append([]string(nil), state.Warnings...),
		Err:            turnErr,
	}, nil
}

func (t *TurnService) classify(ctx context.Context, image *ImageUpload) (string, error) {
	if t.vision == nil {
		return "", &ClassifierError{Err: errors.New("image recognition is not configured")}
	}
	predictions, err := t.vision.Classify(ctx, image.Data, image.Name)
	if err != nil {
		var clsErr *ClassifierError
		if errors.As(err, &clsErr) {
			return "", err
		}
		return "", &ClassifierError{Err: err}
	}
	if len(predictions) == 0 || predictions[0].Label == "" {
		return "", &ClassifierError{Err: errors.New("no label predicted")}
	}
	return predictions[0].Label, nil
}

// finalize turns the analyst response, or the failure to get one, into the
// assistant message. clientID stands in for a missing request id.
func (t *TurnService) finalize(body []byte, sendErr error, clientID string) (models.Message, error) {
	msg := models.Message{Role: models.RoleAssistant, RequestID: clientID}
	if sendErr != nil {
		var upErr *UpstreamError
		if errors.As(sendErr, &upErr) {
			if upErr.RequestID != "" {
				msg.RequestID = upErr.RequestID
			}
			msg.Content = []models.ContentBlock{models.TextBlock(errorText(upErr.RequestID, upErr.Code, upErr.Message))}
		} else {
			msg.Content = []models.ContentBlock{models.TextBlock(transportNotice)}
		}
		msg.Error = sendErr.Error()
		return msg, sendErr
	}

	reply := stream.Aggregate(stream.NewDecoder(bytes.NewReader(body), t.dialect))
	for _, skipped := range reply.Skipped {
		log.Debugf("skipped stream record: %v", skipped)
	}
	if reply.RequestID != "" {
		msg.RequestID = reply.RequestID
	}
	msg.Content = []models.ContentBlock{models.TextBlock(reply.Text)}
	if reply.Err != nil {
		var eventErr *stream.EventError
		if errors.As(reply.Err, &eventErr) {
			msg.Content = []models.ContentBlock{models.TextBlock(errorText(msg.RequestID, eventErr.Code, eventErr.Message))}
		}
		msg.Error = reply.Err.Error()
		return msg, reply.Err
	}
	if reply.SQL != "" {
		msg.Content = append(msg.Content, models.SQLBlock(reply.SQL, models.ParseConfidence(reply.Confidence)))
	}
	if len(reply.Suggestions) > 0 {
		msg.Content = append(msg.Content, models.SuggestionsBlock(reply.Suggestions))
	}
	return msg, nil
}

// errorText is the user facing text of an analyst failure.
func errorText(requestID, code, message string) string {
	return fmt.Sprintf("An error occurred (request id %s, error code %s): %s", requestID, code, message)
}

func annotate(text, label string) string {
	annotation := fmt.Sprintf("(for the item: %s)", label)
	if strings.TrimSpace(text) == "" {
		return annotation
	}
	return text + " " + annotation
}

func hasAssistant(messages []models.Message) bool {
	for _, msg := range messages {
		if msg.Role == models.RoleAssistant {
			return true
		}
	}
	return false
}
