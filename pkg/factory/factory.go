package factory

import (
	"fmt"
	"strings"

	"github.com/uigen/go-llm/pkg/llm"
)

// DefaultProvider is used when a config names no provider
const DefaultProvider = llm.ProviderMock

// Factory creates LLM clients based on configuration
type Factory struct{}

// New creates a new client factory
func New() *Factory {
	return &Factory{}
}

// CreateClient creates an LLM client based on the configuration.
// An empty model is filled with the provider default.
func (f *Factory) CreateClient(config llm.ClientConfig) (llm.Client, error) {
	provider := config.Provider
	if provider == "" {
		provider = DefaultProvider
	}
	provider = strings.ToLower(provider)
	config.Provider = provider

	constructor, exists := GetProvider(provider)
	if !exists {
		return nil, &llm.Error{
			Code:    llm.ErrCodeUnsupportedProvider,
			Message: fmt.Sprintf("unsupported provider: %s", provider),
			Type:    llm.ErrTypeValidation,
		}
	}

	if config.Model == "" {
		config.Model = llm.DefaultModelFor(provider)
	}
	if config.Model == "" {
		return nil, &llm.Error{
			Code:    llm.ErrCodeMissingModel,
			Message: "model is required",
			Type:    llm.ErrTypeValidation,
		}
	}

	return constructor(config)
}
