package services

import (
	"context"
	"sync"

	"shop-assistant/internal/app/models"
)

type fakeAnalyst struct {
	mu       sync.Mutex
	body     string
	err      error
	requests []*AnalystRequest
	// block, when set, is waited on before answering.
	block chan struct{}
}

func (f *fakeAnalyst) Send(ctx context.Context, r *AnalystRequest) ([]byte, error) {
	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

func (f *fakeAnalyst) last() *AnalystRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type fakeClassifier struct {
	predictions []Prediction
	err         error
	calls       int
}

func (f *fakeClassifier) Classify(ctx context.Context, image []byte, filename string) ([]Prediction, error) {
	f.calls++
	return f.predictions, f.err
}

type recordingAudit struct {
	mu        sync.Mutex
	messages  []models.Message
	feedback  []error
	failWrite error
}

func (r *recordingAudit) RecordMessage(ctx context.Context, sessionID string, msg models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return r.failWrite
}

func (r *recordingAudit) RecordFeedback(ctx context.Context, requestID string, positive bool, comment string, submitErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedback = append(r.feedback, submitErr)
	return r.failWrite
}

type fakeFeedbackAPI struct {
	err   error
	calls int
}

func (f *fakeFeedbackAPI) SubmitFeedback(ctx context.Context, requestID string, positive bool, comment string) error {
	f.calls++
	return f.err
}
