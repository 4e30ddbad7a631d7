// Configuration types and environment-driven provider selection
package llm

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAnthropicModel  = "claude-haiku-4-5"
	DefaultMockModel       = "mock-claude-sonnet-4-0"
	DefaultBedrockModel    = "anthropic.claude-3-5-haiku-20241022-v1:0"
	DefaultOpenAIModel     = "gpt-4o-mini"
	DefaultGeminiModel     = "gemini-1.5-flash"
	DefaultDeepSeekModel   = "deepseek-chat"
	DefaultOpenRouterModel = "anthropic/claude-haiku-4.5"
)

// Provider names understood by the factory
const (
	ProviderAnthropic  = "anthropic"
	ProviderBedrock    = "bedrock"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderDeepSeek   = "deepseek"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Environment variables read by GetLLMFromEnv
const (
	EnvProvider        = "LLM_PROVIDER"
	EnvModel           = "LLM_MODEL"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvAnthropicModel  = "ANTHROPIC_MODEL"
	EnvAWSRegion       = "AWS_REGION"
)

const DefaultTimeout = 30 * time.Second

// ClientConfig holds configuration for creating LLM clients
type ClientConfig struct {
	Provider   string            `json:"provider"` // anthropic, bedrock, openai, mock, etc.
	Model      string            `json:"model"`
	APIKey     string            `json:"api_key,omitempty"`
	BaseURL    string            `json:"base_url,omitempty"`
	Timeout    time.Duration     `json:"timeout,omitempty"`
	MaxRetries int               `json:"max_retries,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"` // Provider-specific configs
}

// IsMock reports whether the config selects the mock provider
func (c ClientConfig) IsMock() bool {
	return strings.EqualFold(c.Provider, ProviderMock)
}

// LoadEnv loads environment variables from the given .env files, or from
// .env in the working directory when none are given. Variables already set
// in the process environment win.
func LoadEnv(filenames ...string) error {
	return godotenv.Load(filenames...)
}

// parseTimeoutFromEnv parses timeout from environment variable with fallback to default
func parseTimeoutFromEnv(envVar string, defaultTimeout time.Duration) time.Duration {
	if timeoutStr := os.Getenv(envVar); timeoutStr != "" {
		if timeoutSecs, err := strconv.Atoi(timeoutStr); err == nil && timeoutSecs > 0 {
			return time.Duration(timeoutSecs) * time.Second
		}
	}
	return defaultTimeout
}

// defaultModels maps each provider to the model used when none is configured
var defaultModels = map[string]string{
	ProviderAnthropic:  DefaultAnthropicModel,
	ProviderBedrock:    DefaultBedrockModel,
	ProviderOpenAI:     DefaultOpenAIModel,
	ProviderGemini:     DefaultGeminiModel,
	ProviderDeepSeek:   DefaultDeepSeekModel,
	ProviderOpenRouter: DefaultOpenRouterModel,
	ProviderMock:       DefaultMockModel,
}

// DefaultModelFor returns the default model for a provider, or "" if unknown
func DefaultModelFor(provider string) string {
	return defaultModels[strings.ToLower(provider)]
}

// GetLLMFromEnv decides which provider to use from the environment.
//
// Priority 1: LLM_PROVIDER names a provider explicitly; its key is read
// from <PROVIDER>_API_KEY and the model from LLM_MODEL.
// Priority 2: a non-blank ANTHROPIC_API_KEY selects the Anthropic API.
// Otherwise the mock provider is selected.
func GetLLMFromEnv() ClientConfig {
	_ = LoadEnv()

	if provider := strings.ToLower(strings.TrimSpace(os.Getenv(EnvProvider))); provider != "" {
		return explicitProviderConfig(provider)
	}

	if apiKey := strings.TrimSpace(os.Getenv(EnvAnthropicAPIKey)); apiKey != "" {
		model := DefaultAnthropicModel
		if customModel := os.Getenv(EnvAnthropicModel); customModel != "" {
			model = customModel
		}
		return ClientConfig{
			Provider: ProviderAnthropic,
			Model:    model,
			APIKey:   apiKey,
			BaseURL:  os.Getenv("ANTHROPIC_BASE_URL"),
			Timeout:  parseTimeoutFromEnv("ANTHROPIC_TIMEOUT", DefaultTimeout),
		}
	}

	return ClientConfig{
		Provider: ProviderMock,
		Model:    DefaultMockModel,
	}
}

func explicitProviderConfig(provider string) ClientConfig {
	prefix := strings.ToUpper(provider)

	model := os.Getenv(EnvModel)
	if model == "" {
		model = DefaultModelFor(provider)
	}

	config := ClientConfig{
		Provider: provider,
		Model:    model,
		APIKey:   strings.TrimSpace(os.Getenv(prefix + "_API_KEY")),
		BaseURL:  os.Getenv(prefix + "_BASE_URL"),
		Timeout:  parseTimeoutFromEnv(prefix+"_TIMEOUT", DefaultTimeout),
	}

	if provider == ProviderBedrock {
		region := os.Getenv(EnvAWSRegion)
		if region == "" {
			region = "us-east-1"
		}
		config.Extra = map[string]string{"region": region}
	}

	return config
}
