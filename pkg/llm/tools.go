// Tool and tool call types and functionality
package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ToolTypeFunction is the only tool type in use
const ToolTypeFunction = "function"

// Tool represents a function tool that can be called by the LLM
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction defines the function specification for a tool
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// NewFunctionTool creates a function tool definition
func NewFunctionTool(name, description string, parameters map[string]any) Tool {
	return Tool{
		Type: ToolTypeFunction,
		Function: ToolFunction{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// ToolCall represents a tool call made by the LLM
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction represents the function call details
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// NewToolCall creates a function tool call, encoding args as its JSON arguments
func NewToolCall(id, name string, args any) (ToolCall, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(args); err != nil {
		return ToolCall{}, fmt.Errorf("failed to encode arguments for tool %s: %w", name, err)
	}
	return ToolCall{
		ID:   id,
		Type: ToolTypeFunction,
		Function: ToolCallFunction{
			Name:      name,
			Arguments: strings.TrimSuffix(buf.String(), "\n"),
		},
	}, nil
}

// DecodeArguments unmarshals the JSON arguments into out
func (tc ToolCall) DecodeArguments(out any) error {
	if tc.Function.Arguments == "" {
		return fmt.Errorf("tool call %s has no arguments", tc.ID)
	}
	if err := json.Unmarshal([]byte(tc.Function.Arguments), out); err != nil {
		return fmt.Errorf("failed to decode arguments of tool call %s: %w", tc.ID, err)
	}
	return nil
}
