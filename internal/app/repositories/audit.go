package repositories

import (
	"context"

	"gorm.io/gorm"

	"shop-assistant/internal/app/models"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateChatMessage appends one transcript row to CHAT_MESSAGE.
func (r *AuditRepository) CreateChatMessage(ctx context.Context, row *models.ChatMessageLog) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// CreateFeedback appends one rating row to FEEDBACK.
func (r *AuditRepository) CreateFeedback(ctx context.Context, row *models.FeedbackLog) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// ListChatMessages returns the audited rows of a session, oldest first.
func (r *AuditRepository) ListChatMessages(ctx context.Context, sessionID string, limit, offset int) ([]models.ChatMessageLog, error) {
	var rows []models.ChatMessageLog
	err := r.db.WithContext(ctx).
		Where("SESSION_ID = ?", sessionID).
		Order("ID asc").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	return rows, err
}

// ListFeedback returns the feedback rows recorded for the given request ids.
func (r *AuditRepository) ListFeedback(ctx context.Context, requestIDs ...string) ([]models.FeedbackLog, error) {
	rows := make([]models.FeedbackLog, 0)
	if len(requestIDs) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).Where("REQUEST_ID IN ?", requestIDs).Order("ID asc").Find(&rows).Error
	return rows, err
}

// Migrate creates the audit tables.
func (r *AuditRepository) Migrate() error {
	return r.db.AutoMigrate(&models.ChatMessageLog{}, &models.FeedbackLog{})
}
