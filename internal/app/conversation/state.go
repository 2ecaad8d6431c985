package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop-assistant/internal/app/models"
)

var (
	ErrAlreadySubmitted = errors.New("feedback already submitted")
	ErrTurnInProgress   = errors.New("a turn is already in progress")
	ErrLockUnavailable  = errors.New("session lock unavailable")
	ErrSessionNotFound  = errors.New("session not found")
	ErrNoSuggestion     = errors.New("suggestion not found")
)

// FeedbackSink forwards a rating for one request id.
type FeedbackSink interface {
	SubmitFeedback(ctx context.Context, requestID string, positive bool, comment string) error
}

// FeedbackOutcome is the result of one feedback submission; Error is nil on success.
type FeedbackOutcome struct {
	Error *string `json:"error"`
}

// State is the transcript of one session. It is not safe for concurrent use;
// callers serialise turns with a Locker.
type State struct {
	ID               string                     `json:"id"`
	Messages         []models.Message           `json:"messages"`
	ActiveSuggestion *string                    `json:"active_suggestion,omitempty"`
	FormSubmitted    map[string]FeedbackOutcome `json:"form_submitted"`
	Warnings         []string                   `json:"warnings"`
	CreatedAt        time.Time                  `json:"created_at"`
}

func NewState(id string) *State {
	s := &State{ID: id, CreatedAt: time.Now()}
	s.Reset()
	return s
}

// Reset drops the transcript, the pending suggestion, feedback outcomes and warnings.
func (s *State) Reset() {
	s.Messages = []models.Message{}
	s.ActiveSuggestion = nil
	s.FormSubmitted = map[string]FeedbackOutcome{}
	s.Warnings = []string{}
}

// Append adds msg to the end of the transcript and returns its index.
func (s *State) Append(msg models.Message) int {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	s.Messages = append(s.Messages, msg)
	return len(s.Messages) - 1
}

// History returns the transcript reduced to text blocks, as replayed to the analyst.
func (s *State) History() []models.Message {
	out := make([]models.Message, 0, len(s.Messages))
	for _, msg := range s.Messages {
		out = append(out, msg.TextOnly())
	}
	return out
}

func (s *State) SetActiveSuggestion(text string) {
	s.ActiveSuggestion = &text
}

func (s *State) ClearActiveSuggestion() {
	s.ActiveSuggestion = nil
}

func (s *State) AddWarning(msg string) {
	s.Warnings = append(s.Warnings, msg)
}

func (s *State) ClearWarnings() {
	s.Warnings = []string{}
}

// Suggestion returns suggestion si of the message at mi.
func (s *State) Suggestion(mi, si int) (string, error) {
	if mi < 0 || mi >= len(s.Messages) {
		return "", fmt.Errorf("%w: message %d", ErrNoSuggestion, mi)
	}
	block, ok := s.Messages[mi].Block(models.BlockSuggestions)
	if !ok || si < 0 || si >= len(block.Suggestions) {
		return "", fmt.Errorf("%w: message %d suggestion %d", ErrNoSuggestion, mi, si)
	}
	return block.Suggestions[si], nil
}

// RecordFeedback submits feedback for requestID once. A request id whose
// previous submission failed may be retried.
func (s *State) RecordFeedback(ctx context.Context, sink FeedbackSink, requestID string, positive bool, comment string) error {
	if outcome, ok := s.FormSubmitted[requestID]; ok && outcome.Error == nil {
		return ErrAlreadySubmitted
	}
	if err := sink.SubmitFeedback(ctx, requestID, positive, comment); err != nil {
		msg := err.Error()
		s.FormSubmitted[requestID] = FeedbackOutcome{Error: &msg}
		return fmt.Errorf("submit feedback: %w", err)
	}
	s.FormSubmitted[requestID] = FeedbackOutcome{}
	return nil
}
