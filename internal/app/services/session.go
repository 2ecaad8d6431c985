package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"shop-assistant/internal/app/conversation"
	"shop-assistant/internal/app/models"
)

// SessionService manages conversation states outside of turns.
type SessionService struct {
	store    conversation.Store
	locker   conversation.Locker
	feedback conversation.FeedbackSink
}

func NewSessionService(store conversation.Store, locker conversation.Locker, feedback conversation.FeedbackSink) *SessionService {
	return &SessionService{store: store, locker: locker, feedback: feedback}
}

func (s *SessionService) Create(ctx context.Context) (*conversation.State, error) {
	state := conversation.NewState(uuid.NewString())
	if err := s.store.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	log.Infof("session %s created", state.ID)
	return state, nil
}

func (s *SessionService) Get(ctx context.Context, id string) (*conversation.State, error) {
	return s.store.Load(ctx, id)
}

func (s *SessionService) Reset(ctx context.Context, id string) (*conversation.State, error) {
	var state *conversation.State
	err := s.update(ctx, id, func(st *conversation.State) error {
		st.Reset()
		state = st
		return nil
	})
	return state, err
}

// RecordFeedback submits feedback once per request id. The outcome is stored
// even when the submission fails so the user can see the error and retry.
func (s *SessionService) RecordFeedback(ctx context.Context, id string, req models.FeedbackRequest) (conversation.FeedbackOutcome, error) {
	var outcome conversation.FeedbackOutcome
	err := s.update(ctx, id, func(st *conversation.State) error {
		err := st.RecordFeedback(ctx, s.feedback, req.RequestID, req.Positive, req.FeedbackMessage)
		outcome = st.FormSubmitted[req.RequestID]
		return err
	})
	return outcome, err
}

// Statement returns the SQL answer of the message at index.
func (s *SessionService) Statement(ctx context.Context, id string, index int) (string, error) {
	state, err := s.store.Load(ctx, id)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(state.Messages) {
		return "", fmt.Errorf("%w: message %d", ErrNoStatement, index)
	}
	block, ok := state.Messages[index].Block(models.BlockSQL)
	if !ok || block.Statement == "" {
		return "", fmt.Errorf("%w: message %d", ErrNoStatement, index)
	}
	return block.Statement, nil
}

// update applies fn under the session lock and saves the state unless the
// feedback was a repeat.
func (s *SessionService) update(ctx context.Context, id string, fn func(*conversation.State) error) error {
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	state, err := s.store.Load(ctx, id)
	if err != nil {
		return err
	}
	fnErr := fn(state)
	if errors.Is(fnErr, conversation.ErrAlreadySubmitted) {
		return fnErr
	}
	if err := s.store.Save(ctx, state); err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return fnErr
}
