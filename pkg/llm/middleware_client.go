package llm

import (
	"context"
	"fmt"
)

// EnhancedClient wraps an LLM client with middleware chain
type EnhancedClient struct {
	client Client
	chain  *MiddlewareChain
}

// NewEnhancedClient creates a new enhanced LLM client with middleware
func NewEnhancedClient(client Client, chain []Middleware) *EnhancedClient {
	return &EnhancedClient{
		client: client,
		chain:  NewMiddlewareChain(chain),
	}
}

// ChatCompletion implements Client interface with middleware processing
func (e *EnhancedClient) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	processedReq, err := e.chain.ProcessRequest(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("middleware request processing failed: %w", err)
	}

	resp, err := e.client.ChatCompletion(ctx, *processedReq)

	return e.chain.ProcessResponse(ctx, processedReq, resp, err)
}

// StreamChatCompletion implements Client interface with middleware processing for streaming.
// The relay channel is unbuffered so the wrapped producer still sees the consumer's pace.
func (e *EnhancedClient) StreamChatCompletion(ctx context.Context, req ChatRequest) (<-chan StreamEvent, error) {
	processedReq, err := e.chain.ProcessRequest(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("middleware request processing failed: %w", err)
	}

	eventChan, err := e.client.StreamChatCompletion(ctx, *processedReq)
	if err != nil {
		_, _ = e.chain.ProcessResponse(ctx, processedReq, nil, err)
		return nil, err
	}

	processedChan := make(chan StreamEvent)

	go func() {
		defer close(processedChan)

		var streamErr error
		defer func() {
			_, _ = e.chain.ProcessResponse(ctx, processedReq, nil, streamErr)
		}()

		for event := range eventChan {
			processedEvent := e.chain.ProcessStreamEvent(ctx, processedReq, event)
			if processedEvent.IsError() {
				streamErr = processedEvent.Error
			}

			select {
			case processedChan <- processedEvent:
			case <-ctx.Done():
				return
			}
		}
	}()

	return processedChan, nil
}

// GetRemote implements Client interface
func (e *EnhancedClient) GetRemote() ClientRemoteInfo {
	return e.client.GetRemote()
}

// GetModelInfo implements Client interface
func (e *EnhancedClient) GetModelInfo() ModelInfo {
	return e.client.GetModelInfo()
}

// Close implements Client interface
func (e *EnhancedClient) Close() error {
	return e.client.Close()
}

// Unwrap returns the wrapped client
func (e *EnhancedClient) Unwrap() Client {
	return e.client
}

// AddMiddleware adds a middleware to the client's chain
func (e *EnhancedClient) AddMiddleware(middleware Middleware) {
	e.chain.AddMiddleware(middleware)
}

// RemoveMiddleware removes a middleware from the client's chain
func (e *EnhancedClient) RemoveMiddleware(name string) bool {
	return e.chain.RemoveMiddleware(name)
}

// GetMiddlewareNames returns the names of all middleware in the client's chain
func (e *EnhancedClient) GetMiddlewareNames() []string {
	return e.chain.GetMiddlewareNames()
}

// ClientWithMiddleware wraps an existing LLM client with the middleware system.
// An EnhancedClient gets the middleware appended to its existing chain.
func ClientWithMiddleware(client Client, chain []Middleware) Client {
	if enhancedClient, ok := client.(*EnhancedClient); ok {
		for _, middleware := range chain {
			enhancedClient.AddMiddleware(middleware)
		}
		return enhancedClient
	}

	return NewEnhancedClient(client, chain)
}
