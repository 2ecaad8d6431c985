package services

import (
	"encoding/json"
	"errors"
	"fmt"
)

// UpstreamError is a non-2xx answer from the analyst or feedback endpoint.
type UpstreamError struct {
	StatusCode int
	RequestID  string
	Code       string
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream status %d (request-id %s, error code %s): %s",
		e.StatusCode, e.RequestID, e.Code, e.Message)
}

// parseUpstreamError reads the {request_id, error_code, message} error body.
// Non-JSON bodies are kept verbatim as the message.
func parseUpstreamError(status int, body []byte) *UpstreamError {
	upErr := &UpstreamError{StatusCode: status}
	var payload struct {
		RequestID string `json:"request_id"`
		ErrorCode string `json:"error_code"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		upErr.RequestID = payload.RequestID
		upErr.Code = payload.ErrorCode
		upErr.Message = payload.Message
	}
	if upErr.Message == "" {
		msg := string(body)
		if len(msg) > 500 {
			msg = msg[:500]
		}
		upErr.Message = msg
	}
	return upErr
}

// TransportError is a network or timeout failure; the call may be retried.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

var ErrMissingCredential = errors.New("vision credential missing")

// ClassifierError is a failed or unavailable vision prediction. It never fails a turn.
type ClassifierError struct {
	Err error
}

func (e *ClassifierError) Error() string {
	return "image recognition failed: " + e.Err.Error()
}

func (e *ClassifierError) Unwrap() error {
	return e.Err
}
