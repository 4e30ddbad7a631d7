package mock

import (
	"fmt"
	"time"

	"github.com/uigen/go-llm/pkg/editor"
	"github.com/uigen/go-llm/pkg/llm"
)

// Delay after every text unit, per step
const (
	componentDelay = 25 * time.Millisecond
	enhanceDelay   = 25 * time.Millisecond
	appDelay       = 15 * time.Millisecond
	summaryDelay   = 30 * time.Millisecond
)

const appPath = "/App.jsx"

const appNarration = "This is a static response. You can place an Anthropic API key in the .env file " +
	"to use the Anthropic API for component generation. Let me create an App.jsx file to display the component."

var (
	toolStepUsage = llm.NewUsage(50, 30)
	summaryUsage  = llm.NewUsage(50, 50)
)

// script is everything one step emits
type script struct {
	text    string
	delay   time.Duration
	callID  string
	command *editor.Command
	reason  string
	usage   llm.Usage
}

func scriptFor(step Step, v Variant) (script, error) {
	switch step {
	case StepComponent:
		cmd := editor.Create(v.ComponentPath(), v.ComponentCode())
		return script{
			text:    fmt.Sprintf("I'll create a %s component for you.", v.Name),
			delay:   componentDelay,
			callID:  "call_1",
			command: &cmd,
			reason:  llm.FinishReasonToolCalls,
			usage:   toolStepUsage,
		}, nil

	case StepEnhance:
		oldStr, newStr := v.Replacement()
		cmd := editor.StrReplace(v.ComponentPath(), oldStr, newStr)
		return script{
			text:    "Now let me enhance the component with better styling.",
			delay:   enhanceDelay,
			callID:  "call_2",
			command: &cmd,
			reason:  llm.FinishReasonToolCalls,
			usage:   toolStepUsage,
		}, nil

	case StepApp:
		cmd := editor.Create(appPath, v.AppCode())
		return script{
			text:    appNarration,
			delay:   appDelay,
			callID:  "call_3",
			command: &cmd,
			reason:  llm.FinishReasonToolCalls,
			usage:   toolStepUsage,
		}, nil

	case StepSummary:
		return script{
			text: fmt.Sprintf("Perfect! I've created:\n\n"+
				"1. **%s.jsx** - A fully-featured %s component\n"+
				"2. **App.jsx** - The main app file that displays the component\n\n"+
				"The component is now ready to use. You can see the preview on the right side of the screen.",
				v.Name, v.Type),
			delay:  summaryDelay,
			reason: llm.FinishReasonStop,
			usage:  summaryUsage,
		}, nil
	}

	return script{}, llm.NewUnreachableStepError(step)
}
