package openai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/uigen/go-llm/pkg/llm"
)

// ModelAttribute represents a model attribute with its pattern and value
type ModelAttribute[T any] struct {
	Pattern *regexp.Regexp
	Value   T
}

var (
	// Tools support patterns - models that support function calling
	toolsSupport = []ModelAttribute[bool]{
		{regexp.MustCompile(`^gpt-4o(-mini)?$`), true},
		{regexp.MustCompile(`^gpt-4\.1(-mini|-nano)?$`), true},
		{regexp.MustCompile(`^gpt-4(-0613|-32k|-32k-0613)?$`), true},
		{regexp.MustCompile(`^gpt-4-turbo(-preview|-\d{4}-\d{2}-\d{2})?$`), true},
		{regexp.MustCompile(`^gpt-3\.5-turbo(-16k|-\d{4}-\d{2}-\d{2})?$`), true},
		{regexp.MustCompile(`(?i).*gpt.*`), true}, // custom endpoints serving GPT-like models
		{regexp.MustCompile(`.*`), false},
	}

	// Context length patterns - maximum tokens for different models
	contextLength = []ModelAttribute[int]{
		{regexp.MustCompile(`^gpt-4\.1(-mini|-nano)?$`), 1047576},
		{regexp.MustCompile(`^gpt-4o(-mini)?$`), 128000},
		{regexp.MustCompile(`^gpt-4-turbo(-preview|-\d{4}-\d{2}-\d{2})?$`), 128000},
		{regexp.MustCompile(`^gpt-4-32k(-0613)?$`), 32768},
		{regexp.MustCompile(`^gpt-4(-0613)?$`), 8192},
		{regexp.MustCompile(`^gpt-3\.5-turbo-16k(-\d{4}-\d{2}-\d{2})?$`), 16384},
		{regexp.MustCompile(`.*`), 4096},
	}
)

// getModelAttribute returns the attribute value for a given model by matching against patterns
func getModelAttribute[T any](model string, attributes []ModelAttribute[T]) T {
	for _, attr := range attributes {
		if attr.Pattern.MatchString(model) {
			return attr.Value
		}
	}
	var zero T
	return zero
}

var _ llm.Client = (*Client)(nil)

// Client implements the llm.Client interface for OpenAI
type Client struct {
	client *openai.Client
	model  string
	health llm.HealthCache
}

// NewClient creates a new OpenAI client
func NewClient(config llm.ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, &llm.Error{
			Code:    llm.ErrCodeMissingAPIKey,
			Message: "API key is required for OpenAI",
			Type:    llm.ErrTypeAuthentication,
		}
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	model := config.Model
	if model == "" {
		model = llm.DefaultOpenAIModel
	}

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

// ChatCompletion performs a chat completion request
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	openaiReq := c.convertRequest(req)
	openaiReq.Stream = false

	resp, err := c.client.CreateChatCompletion(ctx, openaiReq)
	if err != nil {
		return nil, convertError(err)
	}

	chatResp := convertResponse(resp)
	chatResp.RawCall = llm.NewRawCall(req)
	return chatResp, nil
}

// StreamChatCompletion performs a streaming chat completion request using OpenAI
func (c *Client) StreamChatCompletion(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	openaiReq := c.convertRequest(req)
	openaiReq.Stream = true
	openaiReq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := c.client.CreateChatCompletionStream(ctx, openaiReq)
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

		var (
			finishReason string
			usage        llm.Usage
		)
		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				send(llm.NewFinishEvent(0, finishReason, usage, rawCall))
				return
			}
			if err != nil {
				if ctx.Err() == nil {
					send(llm.NewErrorEvent(convertError(err)))
				}
				return
			}

			if response.Usage != nil {
				usage = llm.NewUsage(response.Usage.PromptTokens, response.Usage.CompletionTokens)
			}
			if len(response.Choices) == 0 {
				continue
			}

			choice := response.Choices[0]
			if choice.FinishReason != "" {
				finishReason = convertFinishReason(choice.FinishReason)
			}

			delta := convertDelta(choice.Delta)
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
		Name:   llm.ProviderOpenAI,
		Status: c.health.Status(c.performHealthCheck),
	}
}

// performHealthCheck performs a simple health check on the OpenAI API
func (c *Client) performHealthCheck() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.client.ListModels(ctx)
	return err == nil
}

// GetModelInfo returns information about the model being used
func (c *Client) GetModelInfo() llm.ModelInfo {
	return llm.ModelInfo{
		Name:              c.model,
		Provider:          llm.ProviderOpenAI,
		MaxTokens:         getModelAttribute(c.model, contextLength),
		SupportsTools:     getModelAttribute(c.model, toolsSupport),
		SupportsStreaming: true,
	}
}

// Close cleans up any resources used by the client
func (c *Client) Close() error {
	return nil
}

// convertRequest converts our ChatRequest to OpenAI format
func (c *Client) convertRequest(req llm.ChatRequest) openai.ChatCompletionRequest {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	openaiReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: convertMessages(req.System, req.Messages),
	}

	if req.Temperature != nil {
		openaiReq.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		openaiReq.MaxTokens = *req.MaxTokens
	}
	if req.TopP != nil {
		openaiReq.TopP = *req.TopP
	}

	for _, tool := range req.Tools {
		openaiReq.Tools = append(openaiReq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  tool.Function.Parameters,
			},
		})
	}

	return openaiReq
}

// convertMessages converts our messages to OpenAI format
func convertMessages(system string, messages []llm.Message) []openai.ChatCompletionMessage {
	openaiMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for _, msg := range messages {
		openaiMsg := openai.ChatCompletionMessage{
			Role:       string(msg.Role),
			ToolCallID: msg.ToolCallID,
		}

		for _, tc := range msg.ToolCalls {
			openaiMsg.ToolCalls = append(openaiMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}

		// Use a space for empty text so the API never sees an undefined content
		text := msg.GetText()
		if strings.TrimSpace(text) == "" {
			text = " "
		}
		openaiMsg.Content = text

		openaiMessages = append(openaiMessages, openaiMsg)
	}

	return openaiMessages
}

// convertFinishReason maps OpenAI finish reasons onto the llm constants
func convertFinishReason(reason openai.FinishReason) string {
	switch reason {
	case openai.FinishReasonToolCalls, openai.FinishReasonFunctionCall:
		return llm.FinishReasonToolCalls
	case openai.FinishReasonLength:
		return llm.FinishReasonLength
	default:
		return llm.FinishReasonStop
	}
}

func convertDelta(d openai.ChatCompletionStreamChoiceDelta) *llm.MessageDelta {
	delta := &llm.MessageDelta{}
	if d.Content != "" {
		delta.Content = []llm.MessageContent{llm.NewTextContent(d.Content)}
	}
	for i, tc := range d.ToolCalls {
		index := i
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
	return delta
}

// convertResponse converts OpenAI response to our format
func convertResponse(resp openai.ChatCompletionResponse) *llm.ChatResponse {
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

// convertError converts OpenAI error to our format
func convertError(err error) *llm.Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return llm.ErrorFromStatus(apiErr.HTTPStatusCode, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return llm.ErrorFromStatus(reqErr.HTTPStatusCode, err)
	}

	return llm.NewProviderError(llm.ErrCodeAPI, llm.ErrTypeAPI, 0, err)
}
