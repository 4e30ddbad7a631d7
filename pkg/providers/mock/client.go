package mock

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/uigen/go-llm/pkg/llm"
)

var _ llm.Client = (*Client)(nil)

// ProviderName is the provider reported in ModelInfo
const ProviderName = "mock"

// Client implements llm.Client by replaying the script step the
// conversation is at. It holds no per-call state and is safe for
// concurrent use.
type Client struct {
	model string
	opts  Options
	log   zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithPacer sets the pacer used between text units
func WithPacer(p Pacer) Option {
	return func(c *Client) { c.opts.Pacer = p }
}

// WithUnitSize sets the number of runes per text delta
func WithUnitSize(n int) Option {
	return func(c *Client) { c.opts.UnitSize = n }
}

// WithLogger sets the logger for per-call debug lines
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a mock client reporting model, or DefaultMockModel when empty
func NewClient(model string, opts ...Option) *Client {
	if model == "" {
		model = llm.DefaultMockModel
	}
	c := &Client{
		model: model,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Extra keys read by NewClientFromConfig
const (
	// ExtraPace scales the step delays: 0 disables them, 1 is realtime
	ExtraPace = "pace"
	// ExtraUnitSize is the number of runes per text delta
	ExtraUnitSize = "unit_size"
)

// NewClientFromConfig builds a client for the factory registry.
// Explicit opts override the pacing read from config.Extra.
func NewClientFromConfig(config llm.ClientConfig, opts ...Option) (*Client, error) {
	var fromConfig []Option

	if raw, ok := config.Extra[ExtraPace]; ok {
		scale, err := strconv.ParseFloat(raw, 64)
		if err != nil || scale < 0 {
			return nil, &llm.Error{
				Code:    "invalid_config",
				Message: fmt.Sprintf("invalid %s %q: must be a non-negative number", ExtraPace, raw),
				Type:    llm.ErrTypeValidation,
			}
		}
		switch scale {
		case 0:
			fromConfig = append(fromConfig, WithPacer(NoDelayPacer{}))
		case 1:
			fromConfig = append(fromConfig, WithPacer(RealtimePacer{}))
		default:
			fromConfig = append(fromConfig, WithPacer(ScaledPacer(scale)))
		}
	}

	if raw, ok := config.Extra[ExtraUnitSize]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, &llm.Error{
				Code:    "invalid_config",
				Message: fmt.Sprintf("invalid %s %q: must be a positive integer", ExtraUnitSize, raw),
				Type:    llm.ErrTypeValidation,
			}
		}
		fromConfig = append(fromConfig, WithUnitSize(n))
	}

	return NewClient(config.Model, append(fromConfig, opts...)...), nil
}

// plan classifies the request into the step and variant to replay
func (c *Client) plan(req llm.ChatRequest, mode string) (Step, Variant, error) {
	step, err := ClassifyStep(req.Messages)
	if err != nil {
		return 0, Variant{}, err
	}
	variant := ClassifyVariant(req.Messages)

	c.log.Debug().
		Str("step", step.String()).
		Str("variant", variant.Name).
		Str("mode", mode).
		Msg("mock call")
	return step, variant, nil
}

// ChatCompletion drains the step's sequence into a single response
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	step, variant, err := c.plan(req, "generate")
	if err != nil {
		return nil, err
	}

	var (
		text      strings.Builder
		toolCalls []llm.ToolCall
		reason    string
		usage     llm.Usage
	)
	for event, err := range Sequence(ctx, step, variant, c.opts) {
		if err != nil {
			return nil, err
		}
		switch event.Kind {
		case EventTextDelta:
			text.WriteString(event.Text)
		case EventToolCall:
			toolCalls = append(toolCalls, *event.ToolCall)
		case EventFinish:
			reason = event.FinishReason
			usage = event.Usage
		}
	}

	return &llm.ChatResponse{
		ID:    newResponseID(),
		Model: c.model,
		Choices: []llm.Choice{{
			Index:        0,
			Message:      llm.NewAssistantMessage(text.String(), toolCalls...),
			FinishReason: reason,
		}},
		Usage:   usage,
		RawCall: llm.NewRawCall(req),
	}, nil
}

// StreamChatCompletion replays the step's sequence over an unbuffered
// channel. History errors are returned before the channel exists. A failure
// while producing becomes a single error event; cancellation just closes
// the channel.
func (c *Client) StreamChatCompletion(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	step, variant, err := c.plan(req, "stream")
	if err != nil {
		return nil, err
	}

	rawCall := llm.NewRawCall(req)
	events := make(chan llm.StreamEvent)

	go func() {
		defer close(events)

		send := func(event llm.StreamEvent) bool {
			select {
			case events <- event:
				return true
			case <-ctx.Done():
				return false
			}
		}

		toolIndex := 0
		for event, err := range Sequence(ctx, step, variant, c.opts) {
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				send(llm.NewErrorEvent(llm.NewStreamProducerError(err)))
				return
			}

			var out llm.StreamEvent
			switch event.Kind {
			case EventTextDelta:
				out = llm.NewTextDeltaEvent(0, event.Text)
			case EventToolCall:
				out = llm.NewToolCallEvent(0, toolIndex, *event.ToolCall)
				toolIndex++
			case EventFinish:
				out = llm.NewFinishEvent(0, event.FinishReason, event.Usage, rawCall)
			}
			if !send(out) {
				return
			}
		}
	}()

	return events, nil
}

// GetRemote reports the mock as always healthy
func (c *Client) GetRemote() llm.ClientRemoteInfo {
	healthy := true
	now := time.Now()
	return llm.ClientRemoteInfo{
		Name: ProviderName,
		Status: &llm.ClientRemoteInfoStatus{
			Healthy:     &healthy,
			LastChecked: &now,
		},
	}
}

// GetModelInfo returns the fixed mock model description
func (c *Client) GetModelInfo() llm.ModelInfo {
	return llm.ModelInfo{
		Name:              c.model,
		Provider:          ProviderName,
		MaxTokens:         4096,
		SupportsTools:     true,
		SupportsStreaming: true,
	}
}

// Close is a no-op
func (c *Client) Close() error {
	return nil
}

func newResponseID() string {
	return "msg_" + uuid.NewString()
}
