// Message types and functionality
package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Message represents a single chat message
type Message struct {
	Role       MessageRole      `json:"role"`
	Content    []MessageContent `json:"content"`
	ToolCalls  []ToolCall       `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

// MessageRole defines the role of a message sender
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// IsValid reports whether r is one of the known roles
func (r MessageRole) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	default:
		return false
	}
}

// NewTextMessage creates a new Message with a single TextContent item
func NewTextMessage(role MessageRole, text string) Message {
	return Message{
		Role:    role,
		Content: []MessageContent{NewTextContent(text)},
	}
}

// NewToolResultMessage creates the tool-role message answering toolCallID
func NewToolResultMessage(toolCallID, result string) Message {
	return Message{
		Role:       RoleTool,
		Content:    []MessageContent{NewTextContent(result)},
		ToolCallID: toolCallID,
	}
}

// NewAssistantMessage creates an assistant message with optional text and tool calls
func NewAssistantMessage(text string, toolCalls ...ToolCall) Message {
	msg := Message{
		Role:    RoleAssistant,
		Content: []MessageContent{},
	}
	if text != "" {
		msg.Content = append(msg.Content, NewTextContent(text))
	}
	if len(toolCalls) > 0 {
		msg.ToolCalls = append([]ToolCall(nil), toolCalls...)
	}
	return msg
}

// GetText concatenates the text of all TextContent items
func (m Message) GetText() string {
	var sb strings.Builder
	for _, content := range m.Content {
		if textContent, ok := content.(*TextContent); ok {
			sb.WriteString(textContent.GetText())
		}
	}
	return sb.String()
}

// SetText replaces all existing content with a single text item
func (m *Message) SetText(text string) {
	m.Content = []MessageContent{NewTextContent(text)}
}

// AddContent adds a MessageContent item to the message
func (m *Message) AddContent(content MessageContent) {
	m.Content = append(m.Content, content)
}

// Validate checks the role and every content item of the message
func (m Message) Validate() error {
	if !m.Role.IsValid() {
		return fmt.Errorf("unknown role %q", m.Role)
	}
	for i, content := range m.Content {
		if content == nil {
			return fmt.Errorf("content item %d is nil", i)
		}
		if err := content.Validate(); err != nil {
			return fmt.Errorf("content item %d validation failed: %w", i, err)
		}
	}
	return nil
}

// HasToolCalls checks if the message contains any tool calls
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// AddToolCall adds a tool call to the message
func (m *Message) AddToolCall(toolCall ToolCall) {
	m.ToolCalls = append(m.ToolCalls, toolCall)
}

// DeepCopy creates a copy of the message that shares no slices with the original
func (m Message) DeepCopy() Message {
	c := Message{
		Role:       m.Role,
		ToolCallID: m.ToolCallID,
	}
	if len(m.Content) > 0 {
		c.Content = make([]MessageContent, 0, len(m.Content))
		for _, content := range m.Content {
			if text, ok := content.(*TextContent); ok {
				c.Content = append(c.Content, NewTextContent(text.Text))
				continue
			}
			c.Content = append(c.Content, content)
		}
	}
	if len(m.ToolCalls) > 0 {
		c.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		copy(c.ToolCalls, m.ToolCalls)
	}
	return c
}

// LastMessageWithRole returns the last message in history with the given role
func LastMessageWithRole(history []Message, role MessageRole) (Message, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == role {
			return history[i], true
		}
	}
	return Message{}, false
}

// MarshalJSON implements custom JSON marshaling for Message
func (m Message) MarshalJSON() ([]byte, error) {
	type Alias Message

	temp := struct {
		Alias
		Content []json.RawMessage `json:"content"`
	}{
		Alias:   (Alias)(m),
		Content: make([]json.RawMessage, 0, len(m.Content)),
	}

	for i, content := range m.Content {
		contentBytes, err := json.Marshal(content)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal content item %d: %w", i, err)
		}
		temp.Content = append(temp.Content, contentBytes)
	}

	return json.Marshal(temp)
}

// UnmarshalJSON implements custom JSON unmarshaling for Message.
// A bare string is accepted as content for hand-written histories.
func (m *Message) UnmarshalJSON(data []byte) error {
	type Alias Message

	temp := struct {
		*Alias
		Content json.RawMessage `json:"content"`
	}{
		Alias: (*Alias)(m),
	}

	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	m.Content = nil
	if len(temp.Content) == 0 || string(temp.Content) == "null" {
		return nil
	}

	var text string
	if err := json.Unmarshal(temp.Content, &text); err == nil {
		m.Content = []MessageContent{NewTextContent(text)}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(temp.Content, &items); err != nil {
		return fmt.Errorf("content must be a string or an array: %w", err)
	}

	m.Content = make([]MessageContent, 0, len(items))
	for i, contentBytes := range items {
		var typeChecker struct {
			Type MessageType `json:"type"`
		}
		if err := json.Unmarshal(contentBytes, &typeChecker); err != nil {
			return fmt.Errorf("failed to determine type for content item %d: %w", i, err)
		}

		var content MessageContent
		switch typeChecker.Type {
		case MessageTypeText:
			content = &TextContent{}
		default:
			return fmt.Errorf("unsupported content type: %s", typeChecker.Type)
		}

		if err := json.Unmarshal(contentBytes, content); err != nil {
			return fmt.Errorf("failed to unmarshal content item %d of type %s: %w", i, typeChecker.Type, err)
		}

		m.Content = append(m.Content, content)
	}

	return nil
}
