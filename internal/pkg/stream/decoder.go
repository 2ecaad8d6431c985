package stream

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
)

// ErrEmptyStream is reported when a stream ends without a single decodable event.
var ErrEmptyStream = errors.New("no content decoded")

const maxLineSize = 16 * 1024 * 1024

// DecodeError describes a stream line that was skipped.
type DecodeError struct {
	Line   int
	Reason string
	Raw    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("stream line %d: %s", e.Line, e.Reason)
}

// Decoder turns a server-sent-event body into Events. Lines are decoded one at
// a time; a line that is not a usable JSON object is recorded and skipped.
//
// Both raw SSE framing ("event:" / "data:" fields, blank line separators) and the
// pre-stripped form (one JSON object per line) are accepted.
type Decoder struct {
	scanner *bufio.Scanner
	dialect Dialect

	pending   []Event
	cur       Event
	line      int
	eventName string
	decoded   int
	done      bool
	err       error
	skipped   []*DecodeError

	// agent tool results deliver whole suggestion lists; each element becomes its own group.
	nextGroup int
}

func NewDecoder(r io.Reader, dialect Dialect) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Decoder{scanner: scanner, dialect: dialect}
}

// Next advances to the next event. It returns false at the end of the stream,
// after a terminal record, or on a read error.
func (d *Decoder) Next() bool {
	for len(d.pending) == 0 {
		if d.done {
			return false
		}
		if !d.scanner.Scan() {
			d.done = true
			if err := d.scanner.Err(); err != nil {
				d.err = fmt.Errorf("read stream: %w", err)
			}
			return false
		}
		d.line++
		d.decodeLine(d.scanner.Bytes())
	}
	d.cur = d.pending[0]
	d.pending = d.pending[1:]
	d.decoded++
	return true
}

func (d *Decoder) Event() Event {
	return d.cur
}

// Err reports a read failure, or ErrEmptyStream when the stream finished
// without producing any event. Skipped lines alone are never an error.
func (d *Decoder) Err() error {
	if d.err != nil {
		return d.err
	}
	if d.done && d.decoded == 0 {
		if len(d.skipped) > 0 {
			return fmt.Errorf("%w: %d lines skipped, first: %v", ErrEmptyStream, len(d.skipped), d.skipped[0])
		}
		return ErrEmptyStream
	}
	return nil
}

// Skipped returns the lines that could not be decoded so far.
func (d *Decoder) Skipped() []*DecodeError {
	return d.skipped
}

func (d *Decoder) decodeLine(raw []byte) {
	line := bytes.TrimSpace(raw)
	if len(line) == 0 {
		d.eventName = ""
		return
	}

	switch {
	case line[0] == ':':
		return
	case bytes.HasPrefix(line, []byte("event:")):
		d.eventName = string(bytes.TrimSpace(line[len("event:"):]))
		if d.eventName == "done" {
			d.done = true
		}
		return
	case bytes.HasPrefix(line, []byte("id:")), bytes.HasPrefix(line, []byte("retry:")):
		return
	case bytes.HasPrefix(line, []byte("data:")):
		line = bytes.TrimSpace(line[len("data:"):])
		if len(line) == 0 {
			return
		}
	}

	if bytes.Equal(line, []byte("[DONE]")) {
		d.done = true
		return
	}
	if line[0] != '{' || !gjson.ValidBytes(line) {
		d.skip("malformed json", line)
		return
	}

	before := len(d.pending)
	record := gjson.ParseBytes(line)
	if d.dialect == DialectAgent {
		d.decodeAgent(record)
	} else {
		d.decodeFlat(record)
	}
	if len(d.pending) == before {
		d.skip("unrecognised record", line)
	}
}

func (d *Decoder) skip(reason string, line []byte) {
	raw := string(line)
	if len(raw) > 200 {
		raw = raw[:200]
	}
	d.skipped = append(d.skipped, &DecodeError{Line: d.line, Reason: reason, Raw: raw})
}

func (d *Decoder) emit(ev Event) {
	d.pending = append(d.pending, ev)
}

// decodeFlat classifies one top-level object. Precedence, first match wins:
//
//  1. explicit "type" field (or, when absent, the SSE event name "status"/"error")
//  2. text_delta
//  3. suggestions_delta
//  4. sql / statement_delta
//  5. tool_results
//  6. error_code (or a code + message pair)
//  7. request_id
//  8. status_message
//
// An unknown "type" falls through to the key checks.
func (d *Decoder) decodeFlat(record gjson.Result) {
	requestID := record.Get("request_id").String()

	typ := record.Get("type").String()
	if typ == "" && (d.eventName == "status" || d.eventName == "error") {
		typ = d.eventName
	}
	if typ != "" && d.decodeTyped(typ, record, requestID) {
		return
	}

	switch {
	case record.Get("text_delta").Exists():
		d.emitText(record, requestID)
	case record.Get("suggestions_delta").Exists():
		d.emitSuggestionDelta(record, requestID)
	case record.Get("sql").Exists(), record.Get("statement_delta").Exists():
		d.emitSQL(record, requestID)
	case record.Get("tool_results").Exists():
		d.unwrapToolResults(record.Get("tool_results"), requestID)
	case record.Get("error_code").Exists(),
		record.Get("code").Exists() && record.Get("message").Exists():
		d.emitError(record, requestID)
	case requestID != "":
		d.emit(Event{Kind: KindMetadata, RequestID: requestID})
	case record.Get("status_message").Exists():
		d.emit(Event{Kind: KindStatus, Text: record.Get("status_message").String()})
	}
}

func (d *Decoder) decodeTyped(typ string, record gjson.Result, requestID string) bool {
	switch typ {
	case "text":
		d.emitText(record, requestID)
	case "sql":
		d.emitSQL(record, requestID)
	case "suggestions":
		if record.Get("suggestions_delta").Exists() {
			d.emitSuggestionDelta(record, requestID)
		} else {
			d.emitSuggestionList(record.Get("suggestions"), requestID)
		}
	case "status":
		msg := record.Get("status_message").String()
		if msg == "" {
			msg = record.Get("status").String()
		}
		d.emit(Event{Kind: KindStatus, Text: msg, RequestID: requestID})
	case "error":
		d.emitError(record, requestID)
	case "tool_results":
		d.unwrapToolResults(record.Get("tool_results"), requestID)
	default:
		return false
	}
	return true
}

func (d *Decoder) decodeAgent(record gjson.Result) {
	content := record.Get("delta.content")
	if !content.IsArray() {
		// errors and metadata are not wrapped in a delta
		d.decodeFlat(record)
		return
	}
	requestID := record.Get("request_id").String()
	content.ForEach(func(_, entry gjson.Result) bool {
		switch {
		case entry.Get("text").Exists():
			d.emit(Event{
				Kind:      KindText,
				Index:     int(entry.Get("index").Int()),
				Text:      entry.Get("text").String(),
				RequestID: requestID,
			})
		case entry.Get("tool_results").Exists():
			d.unwrapToolResults(entry.Get("tool_results"), requestID)
		}
		return true
	})
}

func (d *Decoder) unwrapToolResults(results gjson.Result, requestID string) {
	results.Get("content").ForEach(func(_, item gjson.Result) bool {
		payload := item.Get("json")
		if !payload.IsObject() {
			return true
		}
		d.emit(Event{Kind: KindToolResult, Payload: []byte(payload.Raw), RequestID: requestID})
		if text := payload.Get("text"); text.Exists() {
			d.emit(Event{Kind: KindText, Text: text.String(), RequestID: requestID})
		}
		if sql := payload.Get("sql"); sql.Exists() {
			ev := Event{Kind: KindSQL, Text: sql.String(), RequestID: requestID}
			if conf := payload.Get("confidence"); conf.IsObject() {
				ev.Confidence = []byte(conf.Raw)
			}
			d.emit(ev)
		}
		d.emitSuggestionList(payload.Get("suggestions"), requestID)
		return true
	})
}

func (d *Decoder) emitText(record gjson.Result, requestID string) {
	text := record.Get("text_delta")
	if !text.Exists() {
		text = record.Get("text")
	}
	d.emit(Event{
		Kind:      KindText,
		Index:     int(record.Get("index").Int()),
		Text:      text.String(),
		RequestID: requestID,
	})
}

func (d *Decoder) emitSQL(record gjson.Result, requestID string) {
	stmt := record.Get("statement_delta")
	if !stmt.Exists() {
		stmt = record.Get("sql")
	}
	if !stmt.Exists() {
		stmt = record.Get("statement")
	}
	ev := Event{
		Kind:      KindSQL,
		Index:     int(record.Get("index").Int()),
		Text:      stmt.String(),
		RequestID: requestID,
	}
	if conf := record.Get("confidence"); conf.IsObject() {
		ev.Confidence = []byte(conf.Raw)
	}
	d.emit(ev)
}

func (d *Decoder) emitSuggestionDelta(record gjson.Result, requestID string) {
	delta := record.Get("suggestions_delta")
	group := int(delta.Get("index").Int())
	if group >= d.nextGroup {
		d.nextGroup = group + 1
	}
	d.emit(Event{
		Kind:      KindSuggestion,
		Index:     group,
		Text:      delta.Get("suggestion_delta").String(),
		RequestID: requestID,
	})
}

func (d *Decoder) emitSuggestionList(list gjson.Result, requestID string) {
	if !list.IsArray() {
		return
	}
	list.ForEach(func(_, s gjson.Result) bool {
		d.emit(Event{Kind: KindSuggestion, Index: d.nextGroup, Text: s.String(), RequestID: requestID})
		d.nextGroup++
		return true
	})
}

func (d *Decoder) emitError(record gjson.Result, requestID string) {
	code := record.Get("error_code").String()
	if code == "" {
		code = record.Get("code").String()
	}
	d.emit(Event{
		Kind:      KindError,
		Code:      code,
		Text:      record.Get("message").String(),
		RequestID: requestID,
	})
}
