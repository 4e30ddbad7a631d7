package mock

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uigen/go-llm/pkg/llm"
)

func TestClassifyStep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		toolResults int
		want        Step
	}{
		{"no tool results creates the app", 0, StepApp},
		{"one tool result creates the component", 1, StepComponent},
		{"two tool results enhance the component", 2, StepEnhance},
		{"three tool results summarize", 3, StepSummary},
		{"more tool results still summarize", 7, StepSummary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			step, err := ClassifyStep(conversation("make a counter", tt.toolResults))
			require.NoError(t, err)
			assert.Equal(t, tt.want, step)
		})
	}
}

func TestClassifyStep_EmptyHistory(t *testing.T) {
	t.Parallel()

	step, err := ClassifyStep(nil)
	require.NoError(t, err)
	assert.Equal(t, StepApp, step)
}

func TestClassifyStep_IgnoresOtherRoles(t *testing.T) {
	t.Parallel()

	history := []llm.Message{
		llm.NewTextMessage(llm.RoleSystem, "you are helpful"),
		llm.NewTextMessage(llm.RoleUser, "hi"),
		llm.NewTextMessage(llm.RoleAssistant, "hello"),
		llm.NewTextMessage(llm.RoleUser, "a card please"),
		llm.NewToolResultMessage("call_3", "done"),
	}

	step, err := ClassifyStep(history)
	require.NoError(t, err)
	assert.Equal(t, StepComponent, step)
}

func TestClassifyStep_UnknownRoleCountsAsNonTool(t *testing.T) {
	t.Parallel()

	history := []llm.Message{
		llm.NewTextMessage(llm.RoleUser, "a contact form"),
		llm.NewTextMessage("developer", "be terse"),
		llm.NewToolResultMessage("call_3", "File created: /App.jsx"),
		{Role: "robot"},
	}

	step, err := ClassifyStep(history)
	require.NoError(t, err)
	assert.Equal(t, StepComponent, step)
	assert.Equal(t, ContactForm, ClassifyVariant(history))
}

func TestClassifyStep_InvalidHistory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		history []llm.Message
		index   string
	}{
		{
			name:    "empty role",
			history: []llm.Message{{Role: "", Content: []llm.MessageContent{llm.NewTextContent("x")}}},
			index:   "message 0",
		},
		{
			name: "nil content item",
			history: []llm.Message{
				llm.NewTextMessage(llm.RoleUser, "hi"),
				llm.NewTextMessage(llm.RoleAssistant, "ok"),
				{Role: llm.RoleTool, Content: []llm.MessageContent{nil}},
			},
			index: "message 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ClassifyStep(tt.history)
			require.Error(t, err)
			assert.True(t, errors.Is(err, llm.ErrInvalidHistory))
			assert.Contains(t, err.Error(), tt.index)

			var llmErr *llm.Error
			require.True(t, errors.As(err, &llmErr))
			assert.Equal(t, llm.ErrTypeValidation, llmErr.Type)
		})
	}
}

func TestClassifyStep_Deterministic(t *testing.T) {
	t.Parallel()

	for n := range 5 {
		first, err := ClassifyStep(conversation("build a form", n))
		require.NoError(t, err)
		second, err := ClassifyStep(conversation("something else entirely", n))
		require.NoError(t, err)
		assert.Equal(t, first, second, "same role counts must classify the same")
	}
}

func TestStep_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "component", StepComponent.String())
	assert.Equal(t, "enhance", StepEnhance.String())
	assert.Equal(t, "app", StepApp.String())
	assert.Equal(t, "summary", StepSummary.String())
	assert.Equal(t, "step(42)", Step(42).String())
}
