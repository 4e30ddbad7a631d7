// Message content types
package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// MessageContent defines the interface for the content items of a message
type MessageContent interface {
	// Type returns the content type identifier
	Type() MessageType
	// Validate checks if the content is valid
	Validate() error
	// Size returns the content size in bytes
	Size() int64
}

// MessageType represents the type of message content
type MessageType string

// Supported message content types
const (
	MessageTypeText MessageType = "text"
)

// TextContent represents text-based message content
type TextContent struct {
	Text string `json:"text"`
}

// NewTextContent creates a new TextContent instance with the given text
func NewTextContent(text string) *TextContent {
	return &TextContent{
		Text: text,
	}
}

// Type returns the message type for text content
func (t *TextContent) Type() MessageType {
	return MessageTypeText
}

// Validate checks that the content is present. Empty text is allowed:
// assistant turns that only carry tool calls have no text.
func (t *TextContent) Validate() error {
	if t == nil {
		return errors.New("text content cannot be nil")
	}
	return nil
}

// Size returns the byte size of the text content
func (t *TextContent) Size() int64 {
	if t == nil {
		return 0
	}
	return int64(len(t.Text))
}

// GetText returns the text content as a string
func (t *TextContent) GetText() string {
	if t == nil {
		return ""
	}
	return t.Text
}

// IsEmpty checks if the text content is empty or whitespace-only
func (t *TextContent) IsEmpty() bool {
	if t == nil {
		return true
	}
	return strings.TrimSpace(t.Text) == ""
}

// MarshalJSON implements custom JSON marshaling for TextContent
func (t *TextContent) MarshalJSON() ([]byte, error) {
	if t == nil {
		return json.Marshal(nil)
	}

	data := struct {
		Type MessageType `json:"type"`
		Text string      `json:"text"`
	}{
		Type: t.Type(),
		Text: t.Text,
	}

	return json.Marshal(data)
}

// UnmarshalJSON implements custom JSON unmarshaling for TextContent
func (t *TextContent) UnmarshalJSON(data []byte) error {
	if t == nil {
		return errors.New("cannot unmarshal into nil TextContent")
	}

	var content struct {
		Type MessageType `json:"type"`
		Text string      `json:"text"`
	}

	if err := json.Unmarshal(data, &content); err != nil {
		return err
	}

	if content.Type != "" && content.Type != MessageTypeText {
		return errors.New("invalid content type for TextContent")
	}

	t.Text = content.Text
	return nil
}
