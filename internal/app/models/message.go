package models

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type BlockType string

const (
	BlockText        BlockType = "text"
	BlockImage       BlockType = "image"
	BlockSuggestions BlockType = "suggestions"
	BlockSQL         BlockType = "sql"
)

// ImageRef points at an uploaded image; the bytes themselves are not kept in the transcript.
type ImageRef struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	Size        int    `json:"size"`
	MD5         string `json:"md5"`
}

// VerifiedQuery is the verified query repository entry the analyst used, if any.
type VerifiedQuery struct {
	Name       string `json:"name"`
	Question   string `json:"question"`
	SQL        string `json:"sql"`
	VerifiedBy string `json:"verified_by"`
	VerifiedAt int64  `json:"verified_at"`
}

// Confidence is the metadata attached to a SQL answer. Raw keeps the object as
// received, keys without a typed field included, and is what gets marshalled.
type Confidence struct {
	VerifiedQueryUsed *VerifiedQuery  `json:"verified_query_used"`
	Raw               json.RawMessage `json:"-"`
}

func (c Confidence) MarshalJSON() ([]byte, error) {
	if len(c.Raw) > 0 {
		return c.Raw, nil
	}
	type plain Confidence
	return json.Marshal(plain(c))
}

func (c *Confidence) UnmarshalJSON(data []byte) error {
	type plain Confidence
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Confidence(p)
	c.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// ContentBlock is one piece of a message. Type selects which fields are set.
type ContentBlock struct {
	Type        BlockType   `json:"type"`
	Text        string      `json:"text,omitempty"`
	Image       *ImageRef   `json:"image,omitempty"`
	Suggestions []string    `json:"suggestions,omitempty"`
	Statement   string      `json:"statement,omitempty"`
	Confidence  *Confidence `json:"confidence,omitempty"`
}

func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

func ImageBlock(ref ImageRef) ContentBlock {
	return ContentBlock{Type: BlockImage, Image: &ref}
}

func SuggestionsBlock(suggestions []string) ContentBlock {
	return ContentBlock{Type: BlockSuggestions, Suggestions: suggestions}
}

func SQLBlock(statement string, confidence *Confidence) ContentBlock {
	return ContentBlock{Type: BlockSQL, Statement: statement, Confidence: confidence}
}

// ParseConfidence decodes the confidence object attached to a SQL answer. An
// absent or unreadable object yields nil.
func ParseConfidence(raw json.RawMessage) *Confidence {
	if len(raw) == 0 {
		return nil
	}
	var c Confidence
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil
	}
	return &c
}

// Message is one conversation turn. Assistant messages carry the request id of
// the call that produced them; Error is set when that call failed.
type Message struct {
	Role      Role           `json:"role"`
	Content   []ContentBlock `json:"content"`
	RequestID string         `json:"request_id,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Text joins the text blocks of the message.
func (m Message) Text() string {
	var text string
	for _, block := range m.Content {
		if block.Type == BlockText {
			text += block.Text
		}
	}
	return text
}

// Block returns the first block of type t.
func (m Message) Block(t BlockType) (ContentBlock, bool) {
	for _, block := range m.Content {
		if block.Type == t {
			return block, true
		}
	}
	return ContentBlock{}, false
}

// TextOnly returns a copy of the message holding only its text blocks.
func (m Message) TextOnly() Message {
	out := m
	out.Content = make([]ContentBlock, 0, len(m.Content))
	for _, block := range m.Content {
		if block.Type == BlockText {
			out.Content = append(out.Content, block)
		}
	}
	return out
}
