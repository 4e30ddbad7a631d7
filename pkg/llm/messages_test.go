package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageDeepCopy(t *testing.T) {
	t.Run("text_message_deep_copy", func(t *testing.T) {
		original := NewTextMessage(RoleAssistant, "Hello World")

		copied := original.DeepCopy()
		assert.Equal(t, original.Role, copied.Role)
		assert.Equal(t, "Hello World", copied.GetText())

		// Modifying the original's content item must not leak into the copy
		original.Content[0].(*TextContent).Text = "Modified Original"
		assert.Equal(t, "Hello World", copied.GetText())
	})

	t.Run("message_with_tool_calls", func(t *testing.T) {
		original := NewAssistantMessage("I'll create the file.", ToolCall{
			ID:   "call_1",
			Type: ToolTypeFunction,
			Function: ToolCallFunction{
				Name:      "str_replace_editor",
				Arguments: `{"command":"create","path":"/App.jsx"}`,
			},
		})

		copied := original.DeepCopy()
		require.Len(t, copied.ToolCalls, 1)
		assert.Equal(t, "call_1", copied.ToolCalls[0].ID)

		original.ToolCalls[0].ID = "changed"
		assert.Equal(t, "call_1", copied.ToolCalls[0].ID)
	})

	t.Run("tool_result_message", func(t *testing.T) {
		original := NewToolResultMessage("call_1", "File created: /App.jsx")
		copied := original.DeepCopy()

		assert.Equal(t, RoleTool, copied.Role)
		assert.Equal(t, "call_1", copied.ToolCallID)
		assert.Equal(t, "File created: /App.jsx", copied.GetText())
	})
}

func TestNewAssistantMessage(t *testing.T) {
	t.Parallel()

	empty := NewAssistantMessage("")
	assert.Empty(t, empty.Content)
	assert.False(t, empty.HasToolCalls())

	calls := []ToolCall{{ID: "call_1", Type: ToolTypeFunction}}
	msg := NewAssistantMessage("text", calls...)
	calls[0].ID = "mutated"
	assert.Equal(t, "call_1", msg.ToolCalls[0].ID)
	assert.Equal(t, "text", msg.GetText())
}

func TestMessageValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		msg     Message
		wantErr string
	}{
		{name: "user text", msg: NewTextMessage(RoleUser, "hi")},
		{name: "assistant without text", msg: NewAssistantMessage("")},
		{name: "unknown role", msg: NewTextMessage("narrator", "hi"), wantErr: `unknown role "narrator"`},
		{name: "nil content item", msg: Message{Role: RoleUser, Content: []MessageContent{nil}}, wantErr: "content item 0 is nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.msg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLastMessageWithRole(t *testing.T) {
	t.Parallel()

	history := []Message{
		NewTextMessage(RoleUser, "first"),
		NewAssistantMessage("reply"),
		NewTextMessage(RoleUser, "second"),
		NewToolResultMessage("call_1", "ok"),
	}

	msg, ok := LastMessageWithRole(history, RoleUser)
	require.True(t, ok)
	assert.Equal(t, "second", msg.GetText())

	_, ok = LastMessageWithRole(history, RoleSystem)
	assert.False(t, ok)

	_, ok = LastMessageWithRole(nil, RoleUser)
	assert.False(t, ok)
}

func TestMessageJSON(t *testing.T) {
	t.Parallel()

	t.Run("content array", func(t *testing.T) {
		t.Parallel()

		original := NewAssistantMessage("Creating it now.", ToolCall{
			ID:       "call_3",
			Type:     ToolTypeFunction,
			Function: ToolCallFunction{Name: "str_replace_editor", Arguments: `{"path":"/App.jsx"}`},
		})

		data, err := json.Marshal(original)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"content":[{"type":"text","text":"Creating it now."}]`)

		var decoded Message
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, original, decoded)
	})

	t.Run("bare string content", func(t *testing.T) {
		t.Parallel()

		var decoded Message
		require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":"a contact form"}`), &decoded))
		assert.Equal(t, RoleUser, decoded.Role)
		assert.Equal(t, "a contact form", decoded.GetText())
	})

	t.Run("null content", func(t *testing.T) {
		t.Parallel()

		var decoded Message
		require.NoError(t, json.Unmarshal([]byte(`{"role":"tool","content":null,"tool_call_id":"call_1"}`), &decoded))
		assert.Empty(t, decoded.Content)
		assert.Equal(t, "call_1", decoded.ToolCallID)
	})

	t.Run("unsupported content type", func(t *testing.T) {
		t.Parallel()

		var decoded Message
		err := json.Unmarshal([]byte(`{"role":"user","content":[{"type":"image","url":"x"}]}`), &decoded)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported content type")
	})
}
