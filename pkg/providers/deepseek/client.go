package deepseek

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/cohesion-org/deepseek-go"

	"github.com/uigen/go-llm/pkg/llm"
)

var _ llm.Client = (*Client)(nil)

// Client implements the llm.Client interface for DeepSeek
type Client struct {
	client *deepseek.Client
	model  string
	health llm.HealthCache
}

// NewClient creates a new DeepSeek client
func NewClient(config llm.ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, &llm.Error{
			Code:    llm.ErrCodeMissingAPIKey,
			Message: "API key is required for DeepSeek",
			Type:    llm.ErrTypeAuthentication,
		}
	}

	model := config.Model
	if model == "" {
		model = llm.DefaultDeepSeekModel
	}

	var opts []deepseek.Option
	if config.BaseURL != "" {
		if config.BaseURL == "http://" || config.BaseURL == "https://" {
			return nil, &llm.Error{
				Code:    "invalid_base_url",
				Message: "base URL cannot be just a protocol",
				Type:    llm.ErrTypeValidation,
			}
		}
		opts = append(opts, deepseek.WithBaseURL(config.BaseURL))
	}
	if config.Timeout > 0 {
		opts = append(opts, deepseek.WithTimeout(config.Timeout))
	}

	var client *deepseek.Client
	if len(opts) > 0 {
		var err error
		client, err = deepseek.NewClientWithOptions(config.APIKey, opts...)
		if err != nil {
			return nil, &llm.Error{
				Code:    "client_creation_error",
				Message: "Failed to create DeepSeek client: " + err.Error(),
				Type:    llm.ErrTypeValidation,
			}
		}
	} else {
		client = deepseek.NewClient(config.APIKey)
	}

	return &Client{
		client: client,
		model:  model,
	}, nil
}

// ChatCompletion performs a chat completion request
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	deepseekReq := c.convertRequest(req)

	resp, err := c.client.CreateChatCompletion(ctx, &deepseekReq)
	if err != nil {
		return nil, convertError(err)
	}

	chatResp := convertResponse(resp)
	chatResp.RawCall = llm.NewRawCall(req)
	return chatResp, nil
}

// StreamChatCompletion performs a streaming chat completion request
func (c *Client) StreamChatCompletion(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	base := c.convertRequest(req)
	deepseekReq := deepseek.StreamChatCompletionRequest{
		Model:       base.Model,
		Messages:    base.Messages,
		Tools:       base.Tools,
		Temperature: base.Temperature,
		MaxTokens:   base.MaxTokens,
		TopP:        base.TopP,
		Stream:      true,
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, &deepseekReq)
	if err != nil {
		return nil, convertError(err)
	}

	rawCall := llm.NewRawCall(req)
	ch := make(chan llm.StreamEvent)

	go func() {
		defer close(ch)
		defer func() { _ = stream.Close() }()

		send := func(event llm.StreamEvent) bool {
			select {
			case ch <- event:
				return true
			case <-ctx.Done():
				return false
			}
		}

		finishReason := llm.FinishReasonStop
		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				send(llm.NewFinishEvent(0, finishReason, llm.Usage{}, rawCall))
				return
			}
			if err != nil {
				if ctx.Err() == nil {
					send(llm.NewErrorEvent(convertError(err)))
				}
				return
			}
			if response == nil || len(response.Choices) == 0 {
				continue
			}

			choice := response.Choices[0]
			if choice.FinishReason != "" {
				finishReason = convertFinishReason(choice.FinishReason)
			}
			if event, ok := convertStreamDelta(choice.Delta.Content, choice.Delta.ToolCalls); ok {
				if !send(event) {
					return
				}
			}
		}
	}()

	return ch, nil
}

// GetRemote returns information about the remote client
func (c *Client) GetRemote() llm.ClientRemoteInfo {
	return llm.ClientRemoteInfo{
		Name:   llm.ProviderDeepSeek,
		Status: c.health.Status(c.performHealthCheck),
	}
}

// performHealthCheck performs a simple health check on the DeepSeek API
func (c *Client) performHealthCheck() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req := deepseek.ChatCompletionRequest{
		Model:     c.model,
		Messages:  []deepseek.ChatCompletionMessage{{Role: "user", Content: "test"}},
		MaxTokens: 1,
	}
	_, err := c.client.CreateChatCompletion(ctx, &req)
	return err == nil
}

// GetModelInfo returns information about the model
func (c *Client) GetModelInfo() llm.ModelInfo {
	return llm.ModelInfo{
		Name:              c.model,
		Provider:          llm.ProviderDeepSeek,
		MaxTokens:         32768,
		SupportsTools:     true,
		SupportsStreaming: true,
	}
}

// Close cleans up any resources used by the client
func (c *Client) Close() error {
	return nil
}

// convertRequest converts our request to the DeepSeek format
func (c *Client) convertRequest(req llm.ChatRequest) deepseek.ChatCompletionRequest {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	messages := make([]deepseek.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, deepseek.ChatCompletionMessage{Role: "system", Content: req.System})
	}
	for _, msg := range req.Messages {
		messages = append(messages, convertMessage(msg))
	}

	var tools []deepseek.Tool
	for _, tool := range req.Tools {
		tools = append(tools, deepseek.Tool{
			Type: llm.ToolTypeFunction,
			Function: deepseek.Function{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  convertToolParameters(tool.Function.Parameters),
			},
		})
	}

	deepseekReq := deepseek.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		Tools:    tools,
	}
	if req.Temperature != nil {
		deepseekReq.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		deepseekReq.MaxTokens = *req.MaxTokens
	}
	if req.TopP != nil {
		deepseekReq.TopP = *req.TopP
	}

	return deepseekReq
}

func convertMessage(msg llm.Message) deepseek.ChatCompletionMessage {
	out := deepseek.ChatCompletionMessage{
		Role:       string(msg.Role),
		Content:    msg.GetText(),
		ToolCallID: msg.ToolCallID,
	}
	if !msg.Role.IsValid() {
		out.Role = string(llm.RoleUser)
	}

	for i, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, deepseek.ToolCall{
			Index: i, // DeepSeek requires an index
			ID:    tc.ID,
			Type:  llm.ToolTypeFunction,
			Function: deepseek.ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return out
}

// convertToolParameters keeps the object-level parts of a JSON schema DeepSeek understands
func convertToolParameters(params map[string]any) *deepseek.FunctionParameters {
	if params == nil {
		return nil
	}

	result := &deepseek.FunctionParameters{Type: "object"}
	if typeStr, ok := params["type"].(string); ok {
		result.Type = typeStr
	}
	if props, ok := params["properties"].(map[string]any); ok {
		result.Properties = props
	}

	switch required := params["required"].(type) {
	case []string:
		result.Required = required
	case []any:
		for _, item := range required {
			if str, ok := item.(string); ok {
				result.Required = append(result.Required, str)
			}
		}
	}

	return result
}

func convertFinishReason(reason string) string {
	switch reason {
	case "tool_calls", "function_call":
		return llm.FinishReasonToolCalls
	case "length":
		return llm.FinishReasonLength
	default:
		return llm.FinishReasonStop
	}
}

func convertResponse(resp *deepseek.ChatCompletionResponse) *llm.ChatResponse {
	chatResp := &llm.ChatResponse{
		ID:    resp.ID,
		Model: resp.Model,
		Usage: llm.NewUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
	}

	for _, choice := range resp.Choices {
		var toolCalls []llm.ToolCall
		for _, tc := range choice.Message.ToolCalls {
			toolCalls = append(toolCalls, llm.ToolCall{
				ID:   tc.ID,
				Type: llm.ToolTypeFunction,
				Function: llm.ToolCallFunction{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		chatResp.Choices = append(chatResp.Choices, llm.Choice{
			Index:        choice.Index,
			Message:      llm.NewAssistantMessage(choice.Message.Content, toolCalls...),
			FinishReason: convertFinishReason(choice.FinishReason),
		})
	}

	return chatResp
}

func convertStreamDelta(content string, toolCalls []deepseek.ToolCall) (llm.StreamEvent, bool) {
	delta := &llm.MessageDelta{}
	if content != "" {
		delta.Content = []llm.MessageContent{llm.NewTextContent(content)}
	}
	for _, tc := range toolCalls {
		delta.ToolCalls = append(delta.ToolCalls, llm.ToolCallDelta{
			Index: tc.Index,
			ID:    tc.ID,
			Type:  tc.Type,
			Function: &llm.ToolCallFunctionDelta{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}

	if len(delta.Content) == 0 && len(delta.ToolCalls) == 0 {
		return llm.StreamEvent{}, false
	}
	return llm.NewDeltaEvent(0, delta), true
}

// convertError classifies DeepSeek errors by their message, as the client
// does not expose a typed status for every failure.
func convertError(err error) *llm.Error {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "invalid api key") || strings.Contains(msg, "authentication"):
		return llm.NewProviderError(llm.ErrCodeAuthentication, llm.ErrTypeAuthentication, 401, err)
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests"):
		return llm.NewProviderError(llm.ErrCodeRateLimit, llm.ErrTypeRateLimit, 429, err)
	case strings.Contains(msg, "model") && strings.Contains(msg, "not found"):
		return llm.NewProviderError(llm.ErrCodeModelNotFound, llm.ErrTypeValidation, 404, err)
	case strings.Contains(msg, "validation") || strings.Contains(msg, "invalid"):
		return llm.NewProviderError(llm.ErrCodeInvalidRequest, llm.ErrTypeValidation, 400, err)
	default:
		return llm.NewProviderError(llm.ErrCodeAPI, llm.ErrTypeAPI, 0, err)
	}
}
