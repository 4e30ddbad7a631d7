package llm

import (
	"context"
	"strings"
)

// CollectStream drains a stream into the ChatResponse a buffered call would
// have returned: text fragments are concatenated, tool call deltas are merged
// by index, and the done event supplies the finish reason, usage and raw call.
//
// An error event is returned as the error. A stream that closes without a
// done event yields the partial response and ErrStreamIncomplete.
func CollectStream(stream <-chan StreamEvent) (*ChatResponse, error) {
	return CollectStreamContext(context.Background(), stream)
}

// CollectStreamContext is CollectStream that gives up when ctx is done
func CollectStreamContext(ctx context.Context, stream <-chan StreamEvent) (*ChatResponse, error) {
	acc := newStreamAccumulator()

	for {
		select {
		case <-ctx.Done():
			return acc.response(), ctx.Err()
		case event, ok := <-stream:
			if !ok {
				return acc.response(), ErrStreamIncomplete
			}
			switch {
			case event.IsError():
				return nil, event.Error
			case event.IsDone():
				acc.finish(event)
				return acc.response(), nil
			case event.IsDelta():
				acc.add(event)
			}
		}
	}
}

type streamAccumulator struct {
	text      strings.Builder
	toolCalls []ToolCall
	byIndex   map[int]int
	finished  string
	usage     Usage
	rawCall   *RawCall
}

func newStreamAccumulator() *streamAccumulator {
	return &streamAccumulator{byIndex: make(map[int]int)}
}

func (a *streamAccumulator) add(event StreamEvent) {
	a.text.WriteString(event.Text())

	for _, delta := range event.Choice.Delta.ToolCalls {
		pos, seen := a.byIndex[delta.Index]
		if !seen {
			a.toolCalls = append(a.toolCalls, ToolCall{Type: ToolTypeFunction})
			pos = len(a.toolCalls) - 1
			a.byIndex[delta.Index] = pos
		}
		call := &a.toolCalls[pos]
		if delta.ID != "" {
			call.ID = delta.ID
		}
		if delta.Type != "" {
			call.Type = delta.Type
		}
		if delta.Function != nil {
			if delta.Function.Name != "" {
				call.Function.Name = delta.Function.Name
			}
			call.Function.Arguments += delta.Function.Arguments
		}
	}
}

func (a *streamAccumulator) finish(event StreamEvent) {
	a.finished = event.Choice.FinishReason
	if event.Usage != nil {
		a.usage = *event.Usage
	}
	a.rawCall = event.RawCall
}

func (a *streamAccumulator) response() *ChatResponse {
	msg := NewAssistantMessage(a.text.String(), a.toolCalls...)
	return &ChatResponse{
		Choices: []Choice{{
			Index:        0,
			Message:      msg,
			FinishReason: a.finished,
		}},
		Usage:   a.usage,
		RawCall: a.rawCall,
	}
}
