package anthropic

import (
	"encoding/json"
	"errors"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uigen/go-llm/pkg/llm"
)

func TestBuildParams(t *testing.T) {
	t.Parallel()

	temperature := float32(0.5)
	maxTokens := 1000
	call := llm.ToolCall{
		ID:       "toolu_1",
		Type:     llm.ToolTypeFunction,
		Function: llm.ToolCallFunction{Name: "str_replace_editor", Arguments: `{"command":"create","path":"/App.jsx"}`},
	}

	req := llm.ChatRequest{
		System: "You generate React components.",
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, "Use Tailwind."),
			llm.NewTextMessage(llm.RoleUser, "a counter"),
			llm.NewAssistantMessage("Creating the app.", call),
			llm.NewToolResultMessage("toolu_1", "File created: /App.jsx"),
			llm.NewTextMessage(llm.RoleUser, "thanks"),
		},
		Tools: []llm.Tool{llm.NewFunctionTool("str_replace_editor", "edit files", map[string]any{
			"type":       "object",
			"properties": map[string]any{"path": map[string]any{"type": "string"}},
			"required":   []any{"path"},
		})},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}

	params := BuildParams("claude-haiku-4-5", req)

	assert.Equal(t, sdk.Model("claude-haiku-4-5"), params.Model)
	assert.Equal(t, int64(1000), params.MaxTokens)
	assert.Equal(t, 0.5, params.Temperature.Value)

	require.Len(t, params.System, 1)
	assert.Equal(t, "You generate React components.\n\nUse Tailwind.", params.System[0].Text)

	require.Len(t, params.Messages, 3)
	assert.Equal(t, sdk.MessageParamRoleUser, params.Messages[0].Role)
	assert.Equal(t, sdk.MessageParamRoleAssistant, params.Messages[1].Role)
	assert.Equal(t, sdk.MessageParamRoleUser, params.Messages[2].Role)

	assistant := params.Messages[1].Content
	require.Len(t, assistant, 2)
	require.NotNil(t, assistant[1].OfToolUse)
	assert.Equal(t, "toolu_1", assistant[1].OfToolUse.ID)
	assert.Equal(t, "str_replace_editor", assistant[1].OfToolUse.Name)

	// tool result and the following user text share one user turn
	toolTurn := params.Messages[2].Content
	require.Len(t, toolTurn, 2)
	require.NotNil(t, toolTurn[0].OfToolResult)
	assert.Equal(t, "toolu_1", toolTurn[0].OfToolResult.ToolUseID)
	require.NotNil(t, toolTurn[1].OfText)
	assert.Equal(t, "thanks", toolTurn[1].OfText.Text)

	require.Len(t, params.Tools, 1)
	require.NotNil(t, params.Tools[0].OfTool)
	assert.Equal(t, "str_replace_editor", params.Tools[0].OfTool.Name)
	assert.Equal(t, []string{"path"}, params.Tools[0].OfTool.InputSchema.Required)
}

func TestBuildParams_Defaults(t *testing.T) {
	t.Parallel()

	params := BuildParams("claude-haiku-4-5", llm.ChatRequest{
		Model:    "claude-sonnet-4-5",
		Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
	})

	assert.Equal(t, sdk.Model("claude-sonnet-4-5"), params.Model)
	assert.Equal(t, int64(DefaultMaxTokens), params.MaxTokens)
	assert.Empty(t, params.System)
	assert.Empty(t, params.Tools)
}

func TestToolInput(t *testing.T) {
	t.Parallel()

	assert.Equal(t, map[string]any{}, toolInput(""))
	assert.Equal(t, map[string]any{"a": float64(1)}, toolInput(`{"a":1}`))
	assert.Equal(t, map[string]any{"invalid_json_stringified": "{oops"}, toolInput("{oops"))
}

func TestFinishReason(t *testing.T) {
	t.Parallel()

	assert.Equal(t, llm.FinishReasonToolCalls, FinishReason(sdk.StopReasonToolUse))
	assert.Equal(t, llm.FinishReasonLength, FinishReason(sdk.StopReasonMaxTokens))
	assert.Equal(t, llm.FinishReasonStop, FinishReason(sdk.StopReasonEndTurn))
	assert.Equal(t, llm.FinishReasonStop, FinishReason(""))
}

func TestConvertMessage(t *testing.T) {
	t.Parallel()

	var msg sdk.Message
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "msg_01",
		"type": "message",
		"role": "assistant",
		"model": "claude-haiku-4-5",
		"content": [
			{"type": "text", "text": "I'll create it."},
			{"type": "tool_use", "id": "toolu_9", "name": "str_replace_editor", "input": {"command": "create", "path": "/App.jsx"}}
		],
		"stop_reason": "tool_use",
		"usage": {"input_tokens": 12, "output_tokens": 34}
	}`), &msg))

	resp := ConvertMessage(&msg, "fallback")

	assert.Equal(t, "msg_01", resp.ID)
	assert.Equal(t, "claude-haiku-4-5", resp.Model)
	assert.Equal(t, "I'll create it.", resp.Text())
	assert.Equal(t, llm.FinishReasonToolCalls, resp.FinishReason())
	assert.Equal(t, llm.NewUsage(12, 34), resp.Usage)

	calls := resp.GetToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "toolu_9", calls[0].ID)
	assert.Equal(t, "str_replace_editor", calls[0].Function.Name)
	assert.JSONEq(t, `{"command":"create","path":"/App.jsx"}`, calls[0].Function.Arguments)
}

func TestStreamDecoder(t *testing.T) {
	t.Parallel()

	raw := []string{
		`{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-haiku-4-5","content":[],"usage":{"input_tokens":20,"output_tokens":1}}}`,
		`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_1","name":"str_replace_editor","input":{}}}`,
		`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"path\":"}}`,
		`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"\"/App.jsx\"}"}}`,
		`{"type":"content_block_stop","index":1}`,
		`{"type":"message_delta","delta":{"stop_reason":"tool_use"},"usage":{"output_tokens":15}}`,
		`{"type":"message_stop"}`,
	}

	decoder := NewStreamDecoder()
	ch := make(chan llm.StreamEvent, len(raw)+1)
	for _, line := range raw {
		var event sdk.MessageStreamEventUnion
		require.NoError(t, json.Unmarshal([]byte(line), &event))
		if out, ok := decoder.Decode(event); ok {
			ch <- out
		}
	}
	ch <- decoder.Finish(&llm.RawCall{Settings: map[string]any{}})
	close(ch)

	resp, err := llm.CollectStream(ch)
	require.NoError(t, err)

	assert.Equal(t, "Hello", resp.Text())
	assert.Equal(t, llm.FinishReasonToolCalls, resp.FinishReason())
	assert.Equal(t, llm.NewUsage(20, 15), resp.Usage)

	calls := resp.GetToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "toolu_1", calls[0].ID)
	assert.Equal(t, "str_replace_editor", calls[0].Function.Name)
	assert.Equal(t, `{"path":"/App.jsx"}`, calls[0].Function.Arguments)
}

func TestNewClient_MissingAPIKey(t *testing.T) {
	t.Parallel()

	_, err := NewClient(llm.ClientConfig{Provider: "anthropic"})
	require.Error(t, err)

	var llmErr *llm.Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, llm.ErrCodeMissingAPIKey, llmErr.Code)
}

func TestNewClient_DefaultModel(t *testing.T) {
	t.Parallel()

	client, err := NewClient(llm.ClientConfig{Provider: "anthropic", APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, llm.DefaultAnthropicModel, client.GetModelInfo().Name)
	assert.Equal(t, llm.ProviderAnthropic, client.GetModelInfo().Provider)
}

func TestConvertError(t *testing.T) {
	t.Parallel()

	plain := errors.New("connection reset")
	converted := convertError(plain)
	assert.Equal(t, llm.ErrCodeAPI, converted.Code)
	assert.ErrorIs(t, converted, plain)

	existing := &llm.Error{Code: "x"}
	assert.Same(t, existing, convertError(existing))
}
