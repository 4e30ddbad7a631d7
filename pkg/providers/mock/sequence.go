package mock

import (
	"context"
	"iter"

	"github.com/uigen/go-llm/pkg/llm"
)

// EventKind tags the variant held by an Event
type EventKind int

const (
	EventTextDelta EventKind = iota + 1
	EventToolCall
	EventFinish
)

func (k EventKind) String() string {
	switch k {
	case EventTextDelta:
		return "text-delta"
	case EventToolCall:
		return "tool-call"
	case EventFinish:
		return "finish"
	default:
		return "unknown"
	}
}

// Event is one element of a step's output: zero or more text deltas, at most
// one tool call, then exactly one finish.
type Event struct {
	Kind EventKind

	// Text is set on EventTextDelta
	Text string
	// ToolCall is set on EventToolCall
	ToolCall *llm.ToolCall
	// FinishReason and Usage are set on EventFinish
	FinishReason string
	Usage        llm.Usage
}

// Options tune how a sequence is paced
type Options struct {
	// Pacer defaults to RealtimePacer
	Pacer Pacer
	// UnitSize is the number of runes per text delta, default 1
	UnitSize int
}

func (o Options) pacer() Pacer {
	if o.Pacer == nil {
		return RealtimePacer{}
	}
	return o.Pacer
}

func (o Options) unitSize() int {
	if o.UnitSize < 1 {
		return 1
	}
	return o.UnitSize
}

// Sequence returns the events of step for variant. Events are produced as
// the consumer pulls them, and every text unit is followed by the step's
// pause. A failure, including ctx cancellation during a pause, is yielded
// as the last element.
func Sequence(ctx context.Context, step Step, variant Variant, opts Options) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		sc, err := scriptFor(step, variant)
		if err != nil {
			yield(Event{}, err)
			return
		}
		if err := ctx.Err(); err != nil {
			yield(Event{}, err)
			return
		}

		pacer := opts.pacer()
		for _, unit := range splitUnits(sc.text, opts.unitSize()) {
			if !yield(Event{Kind: EventTextDelta, Text: unit}, nil) {
				return
			}
			if err := pacer.Pause(ctx, sc.delay); err != nil {
				yield(Event{}, err)
				return
			}
		}

		if sc.command != nil {
			call, err := sc.command.ToolCall(sc.callID)
			if err != nil {
				yield(Event{}, err)
				return
			}
			if !yield(Event{Kind: EventToolCall, ToolCall: &call}, nil) {
				return
			}
		}

		yield(Event{Kind: EventFinish, FinishReason: sc.reason, Usage: sc.usage}, nil)
	}
}

// splitUnits cuts text into chunks of size runes
func splitUnits(text string, size int) []string {
	runes := []rune(text)
	units := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		units = append(units, string(runes[start:end]))
	}
	return units
}
