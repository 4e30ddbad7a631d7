// Package llm provides abstractions for Large Language Model clients
// stream.go defines types for streaming chat completions

package llm

import "strings"

// Stream event types
const (
	StreamEventDelta = "delta"
	StreamEventDone  = "done"
	StreamEventError = "error"
)

// StreamEvent represents a single event in the streaming response.
// A well-formed stream is a run of delta events closed by exactly one
// done or error event.
type StreamEvent struct {
	Type    string        `json:"type"` // "delta", "done", "error"
	Choice  *StreamChoice `json:"choice,omitempty"`
	Error   *Error        `json:"error,omitempty"`
	Usage   *Usage        `json:"usage,omitempty"`
	RawCall *RawCall      `json:"raw_call,omitempty"`
}

// StreamChoice represents a choice in the streaming response
type StreamChoice struct {
	Index        int           `json:"index"`
	Delta        *MessageDelta `json:"delta,omitempty"`
	FinishReason string        `json:"finish_reason,omitempty"`
}

// MessageDelta represents incremental updates to a message
type MessageDelta struct {
	Content   []MessageContent `json:"content,omitempty"`
	ToolCalls []ToolCallDelta  `json:"tool_calls,omitempty"`
}

// ToolCallDelta represents an incremental tool call update
type ToolCallDelta struct {
	Index    int                    `json:"index"`
	ID       string                 `json:"id,omitempty"`
	Type     string                 `json:"type,omitempty"`
	Function *ToolCallFunctionDelta `json:"function,omitempty"`
}

// ToolCallFunctionDelta represents incremental function call details
type ToolCallFunctionDelta struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// IsDelta returns true if this is a delta event
func (e StreamEvent) IsDelta() bool {
	return e.Type == StreamEventDelta && e.Choice != nil && e.Choice.Delta != nil
}

// IsDone returns true if this is a done event
func (e StreamEvent) IsDone() bool {
	return e.Type == StreamEventDone && e.Choice != nil
}

// IsError returns true if this is an error event
func (e StreamEvent) IsError() bool {
	return e.Type == StreamEventError && e.Error != nil
}

// IsToolCall returns true if this delta carries tool call data
func (e StreamEvent) IsToolCall() bool {
	return e.IsDelta() && len(e.Choice.Delta.ToolCalls) > 0
}

// Text returns the text carried by a delta event
func (e StreamEvent) Text() string {
	if !e.IsDelta() {
		return ""
	}
	var sb strings.Builder
	for _, content := range e.Choice.Delta.Content {
		if text, ok := content.(*TextContent); ok {
			sb.WriteString(text.GetText())
		}
	}
	return sb.String()
}

// NewDeltaEvent creates a new delta stream event
func NewDeltaEvent(index int, delta *MessageDelta) StreamEvent {
	return StreamEvent{
		Type: StreamEventDelta,
		Choice: &StreamChoice{
			Index: index,
			Delta: delta,
		},
	}
}

// NewTextDeltaEvent creates a delta event carrying a text fragment
func NewTextDeltaEvent(index int, text string) StreamEvent {
	return NewDeltaEvent(index, &MessageDelta{
		Content: []MessageContent{NewTextContent(text)},
	})
}

// NewToolCallEvent creates a delta event carrying one complete tool call
func NewToolCallEvent(index, callIndex int, call ToolCall) StreamEvent {
	return NewDeltaEvent(index, &MessageDelta{
		ToolCalls: []ToolCallDelta{{
			Index: callIndex,
			ID:    call.ID,
			Type:  call.Type,
			Function: &ToolCallFunctionDelta{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		}},
	})
}

// NewDoneEvent creates a new done stream event
func NewDoneEvent(index int, finishReason string) StreamEvent {
	return StreamEvent{
		Type: StreamEventDone,
		Choice: &StreamChoice{
			Index:        index,
			FinishReason: finishReason,
		},
	}
}

// NewFinishEvent creates a done event with usage and the echoed settings
func NewFinishEvent(index int, finishReason string, usage Usage, rawCall *RawCall) StreamEvent {
	event := NewDoneEvent(index, finishReason)
	event.Usage = &usage
	event.RawCall = rawCall
	return event
}

// NewErrorEvent creates a new error stream event
func NewErrorEvent(err *Error) StreamEvent {
	return StreamEvent{
		Type:  StreamEventError,
		Error: err,
	}
}
