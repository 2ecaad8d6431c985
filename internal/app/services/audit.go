package services

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"shop-assistant/internal/app/models"
	"shop-assistant/internal/app/repositories"
	"shop-assistant/pkg/util"
)

// AuditSink keeps an external copy of each message and feedback submission.
// Write failures are reported to the caller but never fail a turn.
type AuditSink interface {
	RecordMessage(ctx context.Context, sessionID string, msg models.Message) error
	RecordFeedback(ctx context.Context, requestID string, positive bool, comment string, submitErr error) error
}

type DBAuditSink struct {
	repo *repositories.AuditRepository
}

func NewDBAuditSink(repo *repositories.AuditRepository) *DBAuditSink {
	return &DBAuditSink{repo: repo}
}

func (s *DBAuditSink) RecordMessage(ctx context.Context, sessionID string, msg models.Message) error {
	return s.repo.CreateChatMessage(ctx, chatMessageLog(sessionID, msg))
}

func (s *DBAuditSink) RecordFeedback(ctx context.Context, requestID string, positive bool, comment string, submitErr error) error {
	row := &models.FeedbackLog{
		RequestID:       requestID,
		Rating:          positive,
		FeedbackMessage: comment,
	}
	if submitErr != nil {
		row.Error = submitErr.Error()
	}
	return s.repo.CreateFeedback(ctx, row)
}

// LogAuditSink writes audit records to the log when no database is configured.
type LogAuditSink struct{}

func (LogAuditSink) RecordMessage(_ context.Context, sessionID string, msg models.Message) error {
	log.WithFields(log.Fields{
		"session":    sessionID,
		"role":       msg.Role,
		"request_id": msg.RequestID,
	}).Infof("chat message: %s", util.GetJson(chatMessageLog(sessionID, msg)))
	return nil
}

func (LogAuditSink) RecordFeedback(_ context.Context, requestID string, positive bool, comment string, submitErr error) error {
	log.WithFields(log.Fields{
		"request_id": requestID,
		"positive":   positive,
	}).Infof("feedback: %q (err=%v)", comment, submitErr)
	return nil
}

func chatMessageLog(sessionID string, msg models.Message) *models.ChatMessageLog {
	row := &models.ChatMessageLog{
		SessionID: sessionID,
		RequestID: msg.RequestID,
		Role:      string(msg.Role),
		Message:   msg.Text(),
		Error:     msg.Error,
		CreatedAt: msg.CreatedAt,
	}
	if block, ok := msg.Block(models.BlockSuggestions); ok {
		row.Suggestion = util.GetJson(block.Suggestions)
	}
	if block, ok := msg.Block(models.BlockSQL); ok {
		row.SQL = block.Statement
		if block.Confidence != nil {
			row.Confidence = util.GetJson(block.Confidence)
		}
	}
	return row
}

// FeedbackService forwards ratings to the analyst feedback endpoint and audits
// every attempt.
type FeedbackService struct {
	api   FeedbackAPI
	audit AuditSink
}

func NewFeedbackService(api FeedbackAPI, audit AuditSink) *FeedbackService {
	return &FeedbackService{api: api, audit: audit}
}

func (f *FeedbackService) SubmitFeedback(ctx context.Context, requestID string, positive bool, comment string) error {
	submitErr := f.api.SubmitFeedback(ctx, requestID, positive, comment)
	if err := f.audit.RecordFeedback(ctx, requestID, positive, comment, submitErr); err != nil {
		log.Warnf("audit feedback %s: %v", requestID, err)
	}
	if submitErr != nil {
		var upErr *UpstreamError
		if errors.As(submitErr, &upErr) {
			return submitErr
		}
		return fmt.Errorf("feedback %s: %w", requestID, submitErr)
	}
	return nil
}

// SessionAudit is what the audit tables hold for one session.
type SessionAudit struct {
	Messages []models.ChatMessageLog `json:"messages"`
	Feedback []models.FeedbackLog    `json:"feedback"`
}

// AuditHistory reads back audited rows. Rows outlive the session itself.
type AuditHistory struct {
	repo *repositories.AuditRepository
}

func NewAuditHistory(repo *repositories.AuditRepository) *AuditHistory {
	return &AuditHistory{repo: repo}
}

func (a *AuditHistory) Session(ctx context.Context, sessionID string, limit, offset int) (*SessionAudit, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	messages, err := a.repo.ListChatMessages(ctx, sessionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}

	seen := make(map[string]bool)
	var requestIDs []string
	for _, row := range messages {
		if row.RequestID != "" && !seen[row.RequestID] {
			seen[row.RequestID] = true
			requestIDs = append(requestIDs, row.RequestID)
		}
	}
	feedback, err := a.repo.ListFeedback(ctx, requestIDs...)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return &SessionAudit{Messages: messages, Feedback: feedback}, nil
}
