package models

import "time"

// ChatMessageLog is one audited transcript entry.
type ChatMessageLog struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID  string    `gorm:"size:64;index;column:SESSION_ID" json:"session_id"`
	RequestID  string    `gorm:"size:100;index;column:REQUEST_ID" json:"request_id"`
	Role       string    `gorm:"size:20;not null;column:ROLE" json:"role"`
	Message    string    `gorm:"type:text;column:MESSAGE" json:"message"`
	Suggestion string    `gorm:"type:text;column:SUGGESTION" json:"suggestion"`
	SQL        string    `gorm:"type:text;column:SQL" json:"sql"`
	Confidence string    `gorm:"type:text;column:CONFIDENCE" json:"confidence"`
	Error      string    `gorm:"type:text;column:ERROR" json:"error"`
	CreatedAt  time.Time `gorm:"column:CREATED_AT" json:"created_at"`
}

func (ChatMessageLog) TableName() string {
	return "CHAT_MESSAGE"
}

type FeedbackLog struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID       string    `gorm:"size:100;index;not null;column:REQUEST_ID" json:"request_id"`
	Rating          bool      `gorm:"column:RATING" json:"rating"`
	FeedbackMessage string    `gorm:"type:text;column:FEEDBACK_MESSAGE" json:"feedback_message"`
	Error           string    `gorm:"type:text;column:ERROR" json:"error"`
	CreatedAt       time.Time `gorm:"column:CREATED_AT" json:"created_at"`
}

func (FeedbackLog) TableName() string {
	return "FEEDBACK"
}
