package models

// TurnRequest is the JSON form of a user turn. Multipart submissions carry the
// same text field plus an "image" file.
type TurnRequest struct {
	Text string `json:"text" form:"text"`
}

// SuggestionRequest selects a suggestion either by position in the transcript
// or by its text.
type SuggestionRequest struct {
	MessageIndex    *int   `json:"message_index"`
	SuggestionIndex *int   `json:"suggestion_index"`
	Text            string `json:"text"`
}

type FeedbackRequest struct {
	RequestID       string `json:"request_id" binding:"required"`
	Positive        bool   `json:"positive"`
	FeedbackMessage string `json:"feedback_message"`
}

type QueryResult struct {
	Statement string                   `json:"statement"`
	Rows      []map[string]interface{} `json:"rows"`
	Cached    bool                     `json:"cached"`
}
