package factory

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/uigen/go-llm/pkg/llm"
	"github.com/uigen/go-llm/pkg/logger"
)

// MockNotice is logged when the mock provider is selected
const MockNotice = "No ANTHROPIC_API_KEY found, using mock provider"

const mockHint = "add ANTHROPIC_API_KEY to the .env file to use the Anthropic API for component generation"

// Selector picks the process-wide client once, on first use.
// The choice is read-only afterwards.
type Selector struct {
	factory    *Factory
	source     func() llm.ClientConfig
	log        *zerolog.Logger
	middleware bool

	once   sync.Once
	client llm.Client
	err    error
}

// SelectorOption configures a Selector
type SelectorOption func(*Selector)

// WithConfigSource replaces the environment lookup used to build the config
func WithConfigSource(source func() llm.ClientConfig) SelectorOption {
	return func(s *Selector) { s.source = source }
}

// WithSelectorLogger sets the logger used for the selection diagnostic and the logging middleware
func WithSelectorLogger(log zerolog.Logger) SelectorOption {
	return func(s *Selector) { s.log = &log }
}

// WithoutMiddleware returns the selected client without the logging middleware
func WithoutMiddleware() SelectorOption {
	return func(s *Selector) { s.middleware = false }
}

// NewSelector creates a Selector reading its config from llm.GetLLMFromEnv
func NewSelector(opts ...SelectorOption) *Selector {
	s := &Selector{
		factory:    New(),
		source:     llm.GetLLMFromEnv,
		middleware: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client returns the selected client. The environment is read and the
// client built on the first call only; later calls return the same result.
func (s *Selector) Client() (llm.Client, error) {
	s.once.Do(func() {
		s.client, s.err = s.selectClient(s.source())
	})
	return s.client, s.err
}

func (s *Selector) selectClient(config llm.ClientConfig) (llm.Client, error) {
	log := logger.With("factory")
	if s.log != nil {
		log = *s.log
	}

	client, err := Select(s.factory, config, log)
	if err != nil {
		return nil, err
	}
	if !s.middleware {
		return client, nil
	}
	return llm.ClientWithMiddleware(client, []llm.Middleware{llm.NewLoggingMiddleware(log)}), nil
}

// Select builds the client for config. Selecting the mock logs MockNotice
// once per call. No credential is validated and nothing is retried.
func Select(f *Factory, config llm.ClientConfig, log zerolog.Logger) (llm.Client, error) {
	if config.IsMock() {
		log.Warn().Str("hint", mockHint).Msg(MockNotice)
	}

	client, err := f.CreateClient(config)
	if err != nil {
		return nil, err
	}

	info := client.GetModelInfo()
	log.Debug().
		Str("provider", info.Provider).
		Str("model", info.Name).
		Msg("selected language model")
	return client, nil
}

// DefaultSelector is the process-wide selector used by Default
var DefaultSelector = NewSelector()

// Default returns the process-wide client chosen from the environment
func Default() (llm.Client, error) {
	return DefaultSelector.Client()
}
