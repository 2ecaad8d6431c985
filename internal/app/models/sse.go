package models

// Events pushed to the browser while a turn runs.

type PhaseEvent struct {
	Phase string `json:"phase"`
}

type WarningEvent struct {
	Message string `json:"message"`
}

type MessageEvent struct {
	Index   int     `json:"index"`
	Message Message `json:"message"`
}

type ErrorEvent struct {
	Code      string `json:"code,omitempty"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}
