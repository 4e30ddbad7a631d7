package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/uigen/go-llm/pkg/llm"
)

// conversation builds a history with prompt followed by toolResults
// assistant/tool exchanges.
func conversation(prompt string, toolResults int) []llm.Message {
	msgs := []llm.Message{llm.NewTextMessage(llm.RoleUser, prompt)}
	for i := range toolResults {
		id := fmt.Sprintf("call_%d", i+1)
		call := llm.ToolCall{
			ID:       id,
			Type:     llm.ToolTypeFunction,
			Function: llm.ToolCallFunction{Name: "str_replace_editor", Arguments: "{}"},
		}
		msgs = append(msgs,
			llm.NewAssistantMessage("", call),
			llm.NewToolResultMessage(id, "ok"),
		)
	}
	return msgs
}

func newTestClient(opts ...Option) *Client {
	return NewClient("", append([]Option{WithPacer(NoDelayPacer{})}, opts...)...)
}

func collect(ctx context.Context, step Step, v Variant, opts Options) ([]Event, error) {
	var events []Event
	for event, err := range Sequence(ctx, step, v, opts) {
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
	return events, nil
}

// blockingPacer waits until the context is done
type blockingPacer struct{}

func (blockingPacer) Pause(ctx context.Context, _ time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

// failingPacer fails after the given number of pauses
type failingPacer struct {
	after int
	err   error
	count int
}

func (p *failingPacer) Pause(ctx context.Context, _ time.Duration) error {
	p.count++
	if p.count > p.after {
		return p.err
	}
	return nil
}

// recordingPacer remembers every requested delay
type recordingPacer struct {
	delays []time.Duration
}

func (p *recordingPacer) Pause(ctx context.Context, d time.Duration) error {
	p.delays = append(p.delays, d)
	return nil
}
