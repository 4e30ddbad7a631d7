package mock

import (
	"errors"
	"fmt"

	"github.com/uigen/go-llm/pkg/llm"
)

// Step is the position in the fixed four-turn script
type Step int

const (
	// StepComponent creates the component file (one tool result seen)
	StepComponent Step = iota + 1
	// StepEnhance patches the component file (two tool results seen)
	StepEnhance
	// StepApp creates /App.jsx (no tool results yet)
	StepApp
	// StepSummary closes the conversation without a tool call
	StepSummary
)

func (s Step) String() string {
	switch s {
	case StepComponent:
		return "component"
	case StepEnhance:
		return "enhance"
	case StepApp:
		return "app"
	case StepSummary:
		return "summary"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// ClassifyStep maps a conversation to its script step by counting the
// tool-role messages. The first turn (no tool results) is StepApp, so the
// entry point is created before the component it imports.
func ClassifyStep(history []llm.Message) (Step, error) {
	toolResults := 0
	for i, msg := range history {
		if err := scannable(msg); err != nil {
			return 0, llm.NewInvalidHistoryError(i, err.Error())
		}
		if msg.Role == llm.RoleTool {
			toolResults++
		}
	}

	switch toolResults {
	case 0:
		return StepApp, nil
	case 1:
		return StepComponent, nil
	case 2:
		return StepEnhance, nil
	default:
		return StepSummary, nil
	}
}

// scannable rejects messages whose role cannot be read. Roles outside the
// known set are counted like any other non-tool message.
func scannable(msg llm.Message) error {
	if msg.Role == "" {
		return errors.New("empty role")
	}
	for i, content := range msg.Content {
		if content == nil {
			return fmt.Errorf("content item %d is nil", i)
		}
	}
	return nil
}
