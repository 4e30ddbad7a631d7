package anthropic

import (
	"context"
	"errors"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/uigen/go-llm/pkg/llm"
)

var _ llm.Client = (*Client)(nil)

// Client implements the llm.Client interface for the Anthropic API
type Client struct {
	client sdk.Client
	model  string
	health llm.HealthCache
}

// NewClient creates a new Anthropic client
func NewClient(config llm.ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, &llm.Error{
			Code:    llm.ErrCodeMissingAPIKey,
			Message: "API key is required for Anthropic provider",
			Type:    llm.ErrTypeAuthentication,
		}
	}

	model := config.Model
	if model == "" {
		model = llm.DefaultAnthropicModel
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}
	if config.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(config.MaxRetries))
	}

	return &Client{
		client: sdk.NewClient(opts...),
		model:  model,
	}, nil
}

// ChatCompletion performs a chat completion request
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	params := BuildParams(c.model, req)

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, convertError(err)
	}

	resp := ConvertMessage(msg, string(params.Model))
	resp.RawCall = llm.NewRawCall(req)
	return resp, nil
}

// StreamChatCompletion performs a streaming chat completion request
func (c *Client) StreamChatCompletion(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	params := BuildParams(c.model, req)
	rawCall := llm.NewRawCall(req)

	stream := c.client.Messages.NewStreaming(ctx, params)
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

		decoder := NewStreamDecoder()
		for stream.Next() {
			if event, ok := decoder.Decode(stream.Current()); ok {
				if !send(event) {
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			if ctx.Err() == nil {
				send(llm.NewErrorEvent(convertError(err)))
			}
			return
		}

		send(decoder.Finish(rawCall))
	}()

	return ch, nil
}

// GetRemote returns information about the remote client
func (c *Client) GetRemote() llm.ClientRemoteInfo {
	return llm.ClientRemoteInfo{
		Name:   llm.ProviderAnthropic,
		Status: c.health.Status(c.performHealthCheck),
	}
}

func (c *Client) performHealthCheck() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := c.client.Models.List(ctx, sdk.ModelListParams{})
	return err == nil
}

// GetModelInfo returns information about the model being used
func (c *Client) GetModelInfo() llm.ModelInfo {
	return llm.ModelInfo{
		Name:              c.model,
		Provider:          llm.ProviderAnthropic,
		MaxTokens:         200000,
		SupportsTools:     true,
		SupportsStreaming: true,
	}
}

// Close cleans up any resources used by the client
func (c *Client) Close() error {
	return nil
}

// convertError converts SDK errors to our internal error format
func convertError(err error) *llm.Error {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return llm.ErrorFromStatus(apiErr.StatusCode, err)
	}

	return llm.NewProviderError(llm.ErrCodeAPI, llm.ErrTypeAPI, 0, err)
}
