// Core request and response types
package llm

// Finish reasons reported on Choice.FinishReason and done events
const (
	FinishReasonStop      = "stop"
	FinishReasonToolCalls = "tool-calls"
	FinishReasonLength    = "length"
)

// ChatRequest represents a chat completion request (provider-agnostic)
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	System      string    `json:"system,omitempty"`
	Tools       []Tool    `json:"tools,omitempty"`
	Temperature *float32  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	TopP        *float32  `json:"top_p,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// ChatResponse represents a chat completion response (provider-agnostic)
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage,omitempty"`
	RawCall *RawCall `json:"raw_call,omitempty"`
}

// Choice represents a single response choice
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewUsage builds a Usage with the total filled in
func NewUsage(prompt, completion int) Usage {
	return Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}

// RawCall records the generation settings the caller sent with the request.
// Providers echo it back untouched; they are not required to honour it.
type RawCall struct {
	Settings map[string]any `json:"settings"`
}

// NewRawCall captures the optional settings present on req
func NewRawCall(req ChatRequest) *RawCall {
	settings := make(map[string]any)
	if req.Temperature != nil {
		settings["temperature"] = *req.Temperature
	}
	if req.MaxTokens != nil {
		settings["max_tokens"] = *req.MaxTokens
	}
	if req.TopP != nil {
		settings["top_p"] = *req.TopP
	}
	return &RawCall{Settings: settings}
}

// WantsToolExecution checks if this choice indicates the LLM wants to execute tools
func (c Choice) WantsToolExecution() bool {
	return c.FinishReason == FinishReasonToolCalls || c.Message.HasToolCalls()
}

// IsComplete checks if this choice represents a complete response (not requiring tool execution)
func (c Choice) IsComplete() bool {
	return c.FinishReason == FinishReasonStop || c.FinishReason == FinishReasonLength
}

// RequiresToolExecution checks if this response requires tool execution before continuing
func (r ChatResponse) RequiresToolExecution() bool {
	for _, choice := range r.Choices {
		if choice.WantsToolExecution() {
			return true
		}
	}
	return false
}

// GetToolCalls returns all tool calls from all choices in the response
func (r ChatResponse) GetToolCalls() []ToolCall {
	var allToolCalls []ToolCall
	for _, choice := range r.Choices {
		allToolCalls = append(allToolCalls, choice.Message.ToolCalls...)
	}
	return allToolCalls
}

// Text returns the text of the first choice, or an empty string
func (r ChatResponse) Text() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.GetText()
}

// FinishReason returns the finish reason of the first choice, or an empty string
func (r ChatResponse) FinishReason() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].FinishReason
}
