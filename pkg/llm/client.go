// Client interfaces
package llm

import (
	"context"
	"sync"
	"time"
)

// DefaultHealthCheckInterval defines how often health checks should be refreshed
// to avoid excessive API calls to remote providers
const DefaultHealthCheckInterval = 5 * time.Minute

// ClientRemoteInfo represents information about a remote client
type ClientRemoteInfo struct {
	Name   string
	Status *ClientRemoteInfoStatus
}

// ClientRemoteInfoStatus represents the status of a remote client
type ClientRemoteInfoStatus struct {
	Healthy     *bool
	LastChecked *time.Time
}

// Client defines the core interface that all LLM clients must implement
type Client interface {
	// ChatCompletion performs a chat completion request
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// StreamChatCompletion performs a streaming chat completion request.
	// The channel is closed after a done or error event.
	StreamChatCompletion(ctx context.Context, req ChatRequest) (<-chan StreamEvent, error)

	// GetRemote returns information about the client
	GetRemote() ClientRemoteInfo

	// GetModelInfo returns information about the model being used
	GetModelInfo() ModelInfo

	// Close cleans up any resources used by the client
	Close() error
}

// ModelInfo contains information about the model
type ModelInfo struct {
	Name              string `json:"name"`
	Provider          string `json:"provider"`
	MaxTokens         int    `json:"max_tokens"`
	SupportsTools     bool   `json:"supports_tools"`
	SupportsStreaming bool   `json:"supports_streaming"`
}

// HealthCache caches the result of a remote health probe for DefaultHealthCheckInterval
type HealthCache struct {
	mu          sync.Mutex
	lastChecked *time.Time
	healthy     *bool
}

// Status returns the cached status, refreshing it with probe when stale
func (h *HealthCache) Status(probe func() bool) *ClientRemoteInfoStatus {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	if h.lastChecked == nil || now.Sub(*h.lastChecked) >= DefaultHealthCheckInterval {
		healthy := probe()
		h.healthy = &healthy
		h.lastChecked = &now
	}
	return &ClientRemoteInfoStatus{
		Healthy:     h.healthy,
		LastChecked: h.lastChecked,
	}
}
