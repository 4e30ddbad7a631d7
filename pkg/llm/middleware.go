package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Middleware observes or rewrites the traffic of a Client
type Middleware interface {
	// Name returns the middleware name for identification
	Name() string

	// ProcessRequest processes the request before sending to LLM
	ProcessRequest(ctx context.Context, req *ChatRequest) (*ChatRequest, error)

	// ProcessResponse processes the response after receiving from LLM.
	// Streaming calls report here once the stream has closed, with a nil resp.
	ProcessResponse(ctx context.Context, req *ChatRequest, resp *ChatResponse, err error) (*ChatResponse, error)

	// ProcessStreamEvent processes streaming events
	ProcessStreamEvent(ctx context.Context, req *ChatRequest, event StreamEvent) (StreamEvent, error)
}

// MiddlewareChain manages a chain of LLM middleware
type MiddlewareChain struct {
	mu          sync.RWMutex
	middlewares []Middleware
}

// NewMiddlewareChain creates a new middleware chain
func NewMiddlewareChain(middlewares []Middleware) *MiddlewareChain {
	chain := &MiddlewareChain{}
	for _, middleware := range middlewares {
		chain.AddMiddleware(middleware)
	}
	return chain
}

// AddMiddleware adds a middleware to the chain
func (c *MiddlewareChain) AddMiddleware(middleware Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middlewares = append(c.middlewares, middleware)
}

// RemoveMiddleware removes a middleware by name
func (c *MiddlewareChain) RemoveMiddleware(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, middleware := range c.middlewares {
		if middleware.Name() == name {
			c.middlewares = append(c.middlewares[:i], c.middlewares[i+1:]...)
			return true
		}
	}
	return false
}

func (c *MiddlewareChain) snapshot() []Middleware {
	c.mu.RLock()
	defer c.mu.RUnlock()
	middlewares := make([]Middleware, len(c.middlewares))
	copy(middlewares, c.middlewares)
	return middlewares
}

// ProcessRequest processes request through the middleware chain
func (c *MiddlewareChain) ProcessRequest(ctx context.Context, req *ChatRequest) (*ChatRequest, error) {
	currentReq := req
	var err error

	for _, middleware := range c.snapshot() {
		currentReq, err = middleware.ProcessRequest(ctx, currentReq)
		if err != nil {
			return nil, fmt.Errorf("middleware %s failed: %w", middleware.Name(), err)
		}
	}

	return currentReq, nil
}

// ProcessResponse processes response through the middleware chain (in reverse order).
// A failing middleware is skipped; the original error is always preserved.
func (c *MiddlewareChain) ProcessResponse(ctx context.Context, req *ChatRequest, resp *ChatResponse, err error) (*ChatResponse, error) {
	middlewares := c.snapshot()
	currentResp := resp

	for i := len(middlewares) - 1; i >= 0; i-- {
		processedResp, processErr := middlewares[i].ProcessResponse(ctx, req, currentResp, err)
		if processErr != nil {
			continue
		}
		currentResp = processedResp
	}

	return currentResp, err
}

// ProcessStreamEvent processes stream events through the middleware chain
func (c *MiddlewareChain) ProcessStreamEvent(ctx context.Context, req *ChatRequest, event StreamEvent) StreamEvent {
	currentEvent := event

	for _, middleware := range c.snapshot() {
		processed, err := middleware.ProcessStreamEvent(ctx, req, currentEvent)
		if err != nil {
			continue
		}
		currentEvent = processed
	}

	return currentEvent
}

// GetMiddlewareNames returns the names of all middleware in the chain
func (c *MiddlewareChain) GetMiddlewareNames() []string {
	middlewares := c.snapshot()
	names := make([]string, len(middlewares))
	for i, middleware := range middlewares {
		names[i] = middleware.Name()
	}
	return names
}

// LoggingMiddleware logs every call and the way it finished
type LoggingMiddleware struct {
	log zerolog.Logger

	mu      sync.Mutex
	started map[*ChatRequest]time.Time
}

// NewLoggingMiddleware creates a LoggingMiddleware writing to log
func NewLoggingMiddleware(log zerolog.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{
		log:     log,
		started: make(map[*ChatRequest]time.Time),
	}
}

func (m *LoggingMiddleware) Name() string { return "logging" }

func (m *LoggingMiddleware) ProcessRequest(ctx context.Context, req *ChatRequest) (*ChatRequest, error) {
	m.mu.Lock()
	m.started[req] = time.Now()
	m.mu.Unlock()

	m.log.Debug().
		Str("model", req.Model).
		Int("messages", len(req.Messages)).
		Int("tools", len(req.Tools)).
		Bool("stream", req.Stream).
		Msg("chat request")
	return req, nil
}

func (m *LoggingMiddleware) ProcessResponse(ctx context.Context, req *ChatRequest, resp *ChatResponse, err error) (*ChatResponse, error) {
	m.mu.Lock()
	start, ok := m.started[req]
	delete(m.started, req)
	m.mu.Unlock()

	event := m.log.Debug()
	if err != nil {
		event = m.log.Warn().Err(err)
	}
	if ok {
		event = event.Dur("elapsed", time.Since(start))
	}
	if resp != nil {
		event = event.
			Str("finish_reason", resp.FinishReason()).
			Int("tool_calls", len(resp.GetToolCalls())).
			Int("total_tokens", resp.Usage.TotalTokens)
	}
	event.Msg("chat response")
	return resp, nil
}

func (m *LoggingMiddleware) ProcessStreamEvent(ctx context.Context, req *ChatRequest, event StreamEvent) (StreamEvent, error) {
	switch {
	case event.IsDone():
		m.log.Debug().Str("finish_reason", event.Choice.FinishReason).Msg("stream done")
	case event.IsError():
		m.log.Warn().Str("code", event.Error.Code).Str("error", event.Error.Message).Msg("stream error")
	}
	return event, nil
}
