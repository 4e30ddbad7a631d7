package anthropic

import (
	"encoding/json"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/uigen/go-llm/pkg/llm"
)

// DefaultMaxTokens is sent when the request does not set MaxTokens
const DefaultMaxTokens = 4096

// BuildParams converts a provider-agnostic request into Messages API params.
// System text (the request's System field plus any system-role messages) is
// hoisted into params.System, tool results become user tool_result blocks,
// and consecutive messages of the same role are merged.
func BuildParams(model string, req llm.ChatRequest) sdk.MessageNewParams {
	if req.Model != "" {
		model = req.Model
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: DefaultMaxTokens,
	}
	if req.MaxTokens != nil {
		params.MaxTokens = int64(*req.MaxTokens)
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Opt(float64(*req.Temperature))
	}
	if req.TopP != nil {
		params.TopP = sdk.Opt(float64(*req.TopP))
	}

	var system []string
	if req.System != "" {
		system = append(system, req.System)
	}

	var messages []sdk.MessageParam
	appendBlocks := func(role sdk.MessageParamRole, blocks ...sdk.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(messages); n > 0 && messages[n-1].Role == role {
			messages[n-1].Content = append(messages[n-1].Content, blocks...)
			return
		}
		messages = append(messages, sdk.MessageParam{Role: role, Content: blocks})
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case llm.RoleSystem:
			if text := msg.GetText(); text != "" {
				system = append(system, text)
			}

		case llm.RoleUser:
			if text := msg.GetText(); text != "" {
				appendBlocks(sdk.MessageParamRoleUser, sdk.NewTextBlock(text))
			}

		case llm.RoleTool:
			appendBlocks(sdk.MessageParamRoleUser, sdk.NewToolResultBlock(msg.ToolCallID, msg.GetText(), false))

		case llm.RoleAssistant:
			var blocks []sdk.ContentBlockParamUnion
			if text := msg.GetText(); text != "" {
				blocks = append(blocks, sdk.NewTextBlock(text))
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, sdk.NewToolUseBlock(call.ID, toolInput(call.Function.Arguments), call.Function.Name))
			}
			appendBlocks(sdk.MessageParamRoleAssistant, blocks...)
		}
	}
	params.Messages = messages

	if len(system) > 0 {
		params.System = []sdk.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}

	for _, tool := range req.Tools {
		params.Tools = append(params.Tools, sdk.ToolUnionParam{OfTool: convertTool(tool)})
	}

	return params
}

// toolInput decodes tool call arguments; the API rejects anything that is not a JSON object
func toolInput(arguments string) map[string]any {
	input := map[string]any{}
	if arguments == "" {
		return input
	}
	if err := json.Unmarshal([]byte(arguments), &input); err != nil {
		return map[string]any{"invalid_json_stringified": arguments}
	}
	return input
}

func convertTool(tool llm.Tool) *sdk.ToolParam {
	schema := sdk.ToolInputSchemaParam{}
	extra := map[string]any{}

	for key, value := range tool.Function.Parameters {
		switch key {
		case "type":
		case "properties":
			schema.Properties = value
		case "required":
			schema.Required = toStrings(value)
		default:
			extra[key] = value
		}
	}
	if len(extra) > 0 {
		schema.ExtraFields = extra
	}

	param := &sdk.ToolParam{
		Name:        tool.Function.Name,
		InputSchema: schema,
	}
	if tool.Function.Description != "" {
		param.Description = sdk.Opt(tool.Function.Description)
	}
	return param
}

func toStrings(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// FinishReason maps a Messages API stop reason to the finish reasons of llm
func FinishReason(reason sdk.StopReason) string {
	switch reason {
	case sdk.StopReasonToolUse:
		return llm.FinishReasonToolCalls
	case sdk.StopReasonMaxTokens:
		return llm.FinishReasonLength
	default:
		return llm.FinishReasonStop
	}
}

// ConvertMessage converts a complete Messages API response
func ConvertMessage(msg *sdk.Message, model string) *llm.ChatResponse {
	var (
		text      strings.Builder
		toolCalls []llm.ToolCall
	)
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			arguments := string(block.Input)
			if arguments == "" {
				arguments = "{}"
			}
			toolCalls = append(toolCalls, llm.ToolCall{
				ID:   block.ID,
				Type: llm.ToolTypeFunction,
				Function: llm.ToolCallFunction{
					Name:      block.Name,
					Arguments: arguments,
				},
			})
		}
	}

	if msg.Model != "" {
		model = string(msg.Model)
	}

	return &llm.ChatResponse{
		ID:    msg.ID,
		Model: model,
		Choices: []llm.Choice{{
			Index:        0,
			Message:      llm.NewAssistantMessage(text.String(), toolCalls...),
			FinishReason: FinishReason(msg.StopReason),
		}},
		Usage: llm.NewUsage(int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens)),
	}
}
