package anthropic

import (
	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/uigen/go-llm/pkg/llm"
)

// StreamDecoder turns Messages API stream events into llm stream events.
// Content block indexes of tool_use blocks are renumbered from zero so they
// can be merged by CollectStream.
type StreamDecoder struct {
	toolIndex  map[int64]int
	promptTok  int
	outputTok  int
	stopReason sdk.StopReason
}

// NewStreamDecoder creates a decoder for one stream
func NewStreamDecoder() *StreamDecoder {
	return &StreamDecoder{toolIndex: make(map[int64]int)}
}

// Decode returns the llm event for event, if it carries content
func (d *StreamDecoder) Decode(event sdk.MessageStreamEventUnion) (llm.StreamEvent, bool) {
	switch ev := event.AsAny().(type) {
	case sdk.MessageStartEvent:
		d.promptTok = int(ev.Message.Usage.InputTokens)

	case sdk.ContentBlockStartEvent:
		if ev.ContentBlock.Type != "tool_use" {
			return llm.StreamEvent{}, false
		}
		index := len(d.toolIndex)
		d.toolIndex[ev.Index] = index
		return llm.NewDeltaEvent(0, &llm.MessageDelta{
			ToolCalls: []llm.ToolCallDelta{{
				Index: index,
				ID:    ev.ContentBlock.ID,
				Type:  llm.ToolTypeFunction,
				Function: &llm.ToolCallFunctionDelta{
					Name: ev.ContentBlock.Name,
				},
			}},
		}), true

	case sdk.ContentBlockDeltaEvent:
		switch delta := ev.Delta.AsAny().(type) {
		case sdk.TextDelta:
			if delta.Text == "" {
				return llm.StreamEvent{}, false
			}
			return llm.NewTextDeltaEvent(0, delta.Text), true
		case sdk.InputJSONDelta:
			index, ok := d.toolIndex[ev.Index]
			if !ok || delta.PartialJSON == "" {
				return llm.StreamEvent{}, false
			}
			return llm.NewDeltaEvent(0, &llm.MessageDelta{
				ToolCalls: []llm.ToolCallDelta{{
					Index:    index,
					Function: &llm.ToolCallFunctionDelta{Arguments: delta.PartialJSON},
				}},
			}), true
		}

	case sdk.MessageDeltaEvent:
		d.stopReason = ev.Delta.StopReason
		d.outputTok = int(ev.Usage.OutputTokens)
	}

	return llm.StreamEvent{}, false
}

// Finish returns the done event closing the stream
func (d *StreamDecoder) Finish(rawCall *llm.RawCall) llm.StreamEvent {
	return llm.NewFinishEvent(0, FinishReason(d.stopReason), llm.NewUsage(d.promptTok, d.outputTok), rawCall)
}
