package stream

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// EventError is an error event reported inside the stream.
type EventError struct {
	Code      string
	Message   string
	RequestID string
}

func (e *EventError) Error() string {
	if e.Code == "" {
		return "analyst error: " + e.Message
	}
	return fmt.Sprintf("analyst error %s: %s", e.Code, e.Message)
}

// Reply is one finalized assistant answer.
type Reply struct {
	Text        string
	SQL         string
	Confidence  json.RawMessage
	Suggestions []string
	RequestID   string
	Statuses    []string
	ToolResults []json.RawMessage
	// Err is an *EventError, ErrEmptyStream, or a read failure. When set, Text
	// holds the message to show and no SQL or suggestions are kept.
	Err     error
	Skipped []*DecodeError
}

// Aggregator folds the events of one call into a Reply.
type Aggregator struct {
	text        strings.Builder
	sql         strings.Builder
	confidence  json.RawMessage
	suggestions map[int]*strings.Builder
	requestID   string
	statuses    []string
	toolResults []json.RawMessage
	failure     *EventError
	events      int
}

func NewAggregator() *Aggregator {
	return &Aggregator{suggestions: make(map[int]*strings.Builder)}
}

func (a *Aggregator) Add(ev Event) {
	a.events++
	if ev.RequestID != "" {
		switch {
		case a.requestID == "":
			a.requestID = ev.RequestID
		case a.requestID != ev.RequestID:
			log.Debugf("stream carries request id %s after %s, keeping the first", ev.RequestID, a.requestID)
		}
	}

	// content after an error is dropped
	if a.failure != nil {
		return
	}

	switch ev.Kind {
	case KindText:
		a.text.WriteString(ev.Text)
	case KindSQL:
		a.sql.WriteString(ev.Text)
		if len(ev.Confidence) > 0 {
			a.confidence = ev.Confidence
		}
	case KindSuggestion:
		b, ok := a.suggestions[ev.Index]
		if !ok {
			b = &strings.Builder{}
			a.suggestions[ev.Index] = b
		}
		b.WriteString(ev.Text)
	case KindStatus:
		a.statuses = append(a.statuses, ev.Text)
	case KindToolResult:
		a.toolResults = append(a.toolResults, ev.Payload)
	case KindError:
		a.failure = &EventError{Code: ev.Code, Message: ev.Text, RequestID: ev.RequestID}
	}
}

// Finalize builds the Reply. The aggregator must not be reused afterwards.
func (a *Aggregator) Finalize() *Reply {
	reply := &Reply{
		RequestID:   a.requestID,
		Statuses:    a.statuses,
		ToolResults: a.toolResults,
	}
	switch {
	case a.failure != nil:
		if a.failure.RequestID == "" {
			a.failure.RequestID = a.requestID
		}
		reply.Text = a.failure.Message
		reply.Err = a.failure
		return reply
	case a.events == 0:
		reply.Err = ErrEmptyStream
		return reply
	}

	reply.Text = a.text.String()
	reply.SQL = a.sql.String()
	reply.Confidence = a.confidence
	if len(a.suggestions) > 0 {
		groups := make([]int, 0, len(a.suggestions))
		for group := range a.suggestions {
			groups = append(groups, group)
		}
		sort.Ints(groups)
		reply.Suggestions = make([]string, 0, len(groups))
		for _, group := range groups {
			reply.Suggestions = append(reply.Suggestions, a.suggestions[group].String())
		}
	}
	return reply
}

// Aggregate drains dec and returns the finalized Reply. A read failure after
// some events were decoded keeps the decoded content.
func Aggregate(dec *Decoder) *Reply {
	agg := NewAggregator()
	for dec.Next() {
		agg.Add(dec.Event())
	}
	reply := agg.Finalize()
	reply.Skipped = dec.Skipped()

	err := dec.Err()
	switch {
	case err == nil:
	case agg.events == 0:
		reply.Err = err
	default:
		log.Warnf("stream ended early after %d events: %v", agg.events, err)
	}
	return reply
}
