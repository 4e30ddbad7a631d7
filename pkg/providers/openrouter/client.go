package openrouter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/revrost/go-openrouter"

	"github.com/uigen/go-llm/pkg/llm"
)

var _ llm.Client = (*Client)(nil)

// Client implements the llm.Client interface for OpenRouter
type Client struct {
	client *openrouter.Client
	model  string
	health llm.HealthCache
}

// NewClient creates a new OpenRouter client
func NewClient(config llm.ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, &llm.Error{
			Code:    llm.ErrCodeMissingAPIKey,
			Message: "API key is required for OpenRouter",
			Type:    llm.ErrTypeAuthentication,
		}
	}

	clientConfig := openrouter.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	// OpenRouter attribution headers
	if siteURL, ok := config.Extra["site_url"]; ok {
		clientConfig.HttpReferer = siteURL
	}
	if appName, ok := config.Extra["app_name"]; ok {
		clientConfig.XTitle = appName
	}

	model := config.Model
	if model == "" {
		model = llm.DefaultOpenRouterModel
	}

	return &Client{
		client: openrouter.NewClientWithConfig(*clientConfig),
		model:  model,
	}, nil
}

// ChatCompletion performs a chat completion request
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	openrouterReq := c.convertRequest(req)
	openrouterReq.Stream = false

	resp, err := c.client.CreateChatCompletion(ctx, openrouterReq)
	if err != nil {
		return nil, convertError(err)
	}

	chatResp := convertResponse(resp)
	chatResp.RawCall = llm.NewRawCall(req)
	return chatResp, nil
}

// StreamChatCompletion performs a streaming chat completion request
func (c *Client) StreamChatCompletion(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	openrouterReq := c.convertRequest(req)
	openrouterReq.Stream = true

	stream, err := c.client.CreateChatCompletionStream(ctx, openrouterReq)
	if err != nil {
		return nil, convertError(err)
	}

	rawCall := llm.NewRawCall(req)
	ch := make(chan llm.StreamEvent)

	go func() {
		defer close(ch)
		defer stream.Close()

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
			if len(response.Choices) == 0 {
				continue
			}

			choice := response.Choices[0]
			if choice.FinishReason != "" {
				finishReason = convertFinishReason(string(choice.FinishReason))
			}

			delta := &llm.MessageDelta{}
			if choice.Delta.Content != "" {
				delta.Content = []llm.MessageContent{llm.NewTextContent(choice.Delta.Content)}
			}
			for _, tc := range choice.Delta.ToolCalls {
				index := 0
				if tc.Index != nil {
					index = *tc.Index
				}
				delta.ToolCalls = append(delta.ToolCalls, llm.ToolCallDelta{
					Index: index,
					ID:    tc.ID,
					Type:  string(tc.Type),
					Function: &llm.ToolCallFunctionDelta{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
			if len(delta.Content) == 0 && len(delta.ToolCalls) == 0 {
				continue
			}
			if !send(llm.NewDeltaEvent(0, delta)) {
				return
			}
		}
	}()

	return ch, nil
}

// GetRemote returns information about the remote client
func (c *Client) GetRemote() llm.ClientRemoteInfo {
	return llm.ClientRemoteInfo{
		Name:   llm.ProviderOpenRouter,
		Status: c.health.Status(c.performHealthCheck),
	}
}

// performHealthCheck performs a simple health check on the OpenRouter API
func (c *Client) performHealthCheck() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.client.ListModels(ctx)
	return err == nil
}

// GetModelInfo returns information about the model.
// Capabilities vary by the routed model, so these are conservative defaults.
func (c *Client) GetModelInfo() llm.ModelInfo {
	return llm.ModelInfo{
		Name:              c.model,
		Provider:          llm.ProviderOpenRouter,
		MaxTokens:         128000,
		SupportsTools:     true,
		SupportsStreaming: true,
	}
}

// Close cleans up resources
func (c *Client) Close() error {
	return nil
}

// Model represents a model offered through OpenRouter
type Model struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Free bool   `json:"free"`
}

// ListModels retrieves the available models, sorted by ID
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	resp, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, convertError(fmt.Errorf("failed to list models: %w", err))
	}

	models := make([]Model, 0, len(resp))
	for _, m := range resp {
		models = append(models, Model{
			ID:   m.ID,
			Name: m.Name,
			Free: m.Pricing.Prompt == "0" && m.Pricing.Completion == "0",
		})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })

	return models, nil
}

// convertRequest converts our llm.ChatRequest to OpenRouter format
func (c *Client) convertRequest(req llm.ChatRequest) openrouter.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}

	openrouterReq := openrouter.ChatCompletionRequest{
		Model:    model,
		Messages: make([]openrouter.ChatCompletionMessage, 0, len(req.Messages)+1),
	}
	if req.Temperature != nil {
		openrouterReq.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		openrouterReq.MaxTokens = *req.MaxTokens
	}
	if req.TopP != nil {
		openrouterReq.TopP = *req.TopP
	}

	if req.System != "" {
		openrouterReq.Messages = append(openrouterReq.Messages, openrouter.ChatCompletionMessage{
			Role:    string(llm.RoleSystem),
			Content: openrouter.Content{Text: req.System},
		})
	}
	for _, msg := range req.Messages {
		openrouterReq.Messages = append(openrouterReq.Messages, convertMessage(msg))
	}

	for _, tool := range req.Tools {
		openrouterReq.Tools = append(openrouterReq.Tools, openrouter.Tool{
			Type: openrouter.ToolType(llm.ToolTypeFunction),
			Function: &openrouter.FunctionDefinition{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  tool.Function.Parameters,
			},
		})
	}

	return openrouterReq
}

// convertMessage converts our Message to OpenRouter format
func convertMessage(msg llm.Message) openrouter.ChatCompletionMessage {
	out := openrouter.ChatCompletionMessage{
		Role:       string(msg.Role),
		Content:    openrouter.Content{Text: msg.GetText()},
		ToolCallID: msg.ToolCallID,
	}

	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, openrouter.ToolCall{
			ID:   tc.ID,
			Type: openrouter.ToolType(llm.ToolTypeFunction),
			Function: openrouter.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}

	return out
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

// convertResponse converts OpenRouter response to our format
func convertResponse(resp openrouter.ChatCompletionResponse) *llm.ChatResponse {
	response := &llm.ChatResponse{
		ID:      resp.ID,
		Model:   resp.Model,
		Choices: make([]llm.Choice, 0, len(resp.Choices)),
	}
	if resp.Usage != nil {
		response.Usage = llm.NewUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
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

		response.Choices = append(response.Choices, llm.Choice{
			Index:        choice.Index,
			Message:      llm.NewAssistantMessage(choice.Message.Content.Text, toolCalls...),
			FinishReason: convertFinishReason(string(choice.FinishReason)),
		})
	}

	return response
}

// convertError converts OpenRouter errors to our standardized Error format
func convertError(err error) *llm.Error {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	var apiErr *openrouter.APIError
	if errors.As(err, &apiErr) {
		converted := llm.ErrorFromStatus(apiErr.HTTPStatusCode, err)
		if strings.Contains(strings.ToLower(apiErr.Message), "context") &&
			strings.Contains(strings.ToLower(apiErr.Message), "length") {
			converted.Code = "context_length_exceeded"
		}
		return converted
	}

	var reqErr *openrouter.RequestError
	if errors.As(err, &reqErr) {
		return llm.ErrorFromStatus(reqErr.HTTPStatusCode, err)
	}

	return llm.NewProviderError(llm.ErrCodeAPI, llm.ErrTypeAPI, 0, err)
}
