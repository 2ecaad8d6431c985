package stream

import (
	"encoding/json"
	"fmt"
)

// Dialect selects how records of a response stream are unwrapped.
type Dialect string

const (
	// DialectAnalyst streams flat delta objects, one per record.
	DialectAnalyst Dialect = "analyst"
	// DialectAgent streams {"delta":{"content":[...]}} records whose entries are
	// either text objects or tool_results envelopes wrapping json payloads.
	DialectAgent Dialect = "agent"
)

func ParseDialect(s string) (Dialect, error) {
	switch Dialect(s) {
	case DialectAnalyst, DialectAgent:
		return Dialect(s), nil
	case "":
		return DialectAnalyst, nil
	}
	return "", fmt.Errorf("unknown stream dialect %q", s)
}

type Kind int

const (
	KindText Kind = iota + 1
	KindSQL
	KindSuggestion
	KindStatus
	KindError
	KindToolResult
	// KindMetadata records carry nothing but a request id.
	KindMetadata
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindSQL:
		return "sql"
	case KindSuggestion:
		return "suggestion"
	case KindStatus:
		return "status"
	case KindError:
		return "error"
	case KindToolResult:
		return "tool_result"
	case KindMetadata:
		return "metadata"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is one decoded protocol event. Which fields are set depends on Kind:
//
//	KindText        Index, Text (fragment)
//	KindSQL         Index, Text (statement fragment), Confidence
//	KindSuggestion  Index (group index), Text (fragment)
//	KindStatus      Text (status message)
//	KindError       Code, Text (error message)
//	KindToolResult  Payload
//
// RequestID is set on any event whose record carried one.
type Event struct {
	Kind       Kind
	Index      int
	Text       string
	Code       string
	Confidence json.RawMessage
	Payload    json.RawMessage
	RequestID  string
}
