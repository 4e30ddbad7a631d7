package factory

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uigen/go-llm/pkg/llm"
	"github.com/uigen/go-llm/pkg/providers/anthropic"
	"github.com/uigen/go-llm/pkg/providers/mock"
)

func TestFactory_CreateClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		config       llm.ClientConfig
		wantProvider string
		wantModel    string
		wantCode     string
	}{
		{
			name:         "empty provider defaults to mock",
			config:       llm.ClientConfig{},
			wantProvider: llm.ProviderMock,
			wantModel:    llm.DefaultMockModel,
		},
		{
			name:         "provider name is case-insensitive",
			config:       llm.ClientConfig{Provider: "MOCK", Model: "test-model"},
			wantProvider: llm.ProviderMock,
			wantModel:    "test-model",
		},
		{
			name:         "anthropic gets its default model",
			config:       llm.ClientConfig{Provider: "anthropic", APIKey: "sk-ant-test"},
			wantProvider: llm.ProviderAnthropic,
			wantModel:    llm.DefaultAnthropicModel,
		},
		{
			name:     "unsupported provider",
			config:   llm.ClientConfig{Provider: "nonexistent", Model: "x"},
			wantCode: llm.ErrCodeUnsupportedProvider,
		},
		{
			name:     "provider error is passed through",
			config:   llm.ClientConfig{Provider: "openai"},
			wantCode: llm.ErrCodeMissingAPIKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, err := New().CreateClient(tt.config)
			if tt.wantCode != "" {
				require.Error(t, err)
				var llmErr *llm.Error
				require.True(t, errors.As(err, &llmErr))
				assert.Equal(t, tt.wantCode, llmErr.Code)
				return
			}

			require.NoError(t, err)
			info := client.GetModelInfo()
			assert.Equal(t, tt.wantProvider, info.Provider)
			assert.Equal(t, tt.wantModel, info.Name)
		})
	}
}

func TestListProviders(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{
		llm.ProviderAnthropic,
		llm.ProviderBedrock,
		llm.ProviderDeepSeek,
		llm.ProviderGemini,
		llm.ProviderMock,
		llm.ProviderOpenAI,
		llm.ProviderOpenRouter,
	}, ListProviders())

	_, ok := GetProvider("Anthropic")
	assert.True(t, ok)
}

func TestSelector_MockFallback(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	calls := 0
	s := NewSelector(
		WithSelectorLogger(zerolog.New(&buf)),
		WithConfigSource(func() llm.ClientConfig {
			calls++
			return llm.ClientConfig{Provider: llm.ProviderMock, Model: llm.DefaultMockModel}
		}),
	)

	first, err := s.Client()
	require.NoError(t, err)
	second, err := s.Client()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, llm.DefaultMockModel, first.GetModelInfo().Name)

	enhanced, ok := first.(*llm.EnhancedClient)
	require.True(t, ok)
	assert.IsType(t, &mock.Client{}, enhanced.Unwrap())
	assert.Equal(t, []string{"logging"}, enhanced.GetMiddlewareNames())

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(MockNotice)))
	assert.Contains(t, buf.String(), ".env")
}

func TestSelector_WithoutMiddleware(t *testing.T) {
	t.Parallel()

	s := NewSelector(
		WithoutMiddleware(),
		WithSelectorLogger(zerolog.Nop()),
		WithConfigSource(func() llm.ClientConfig {
			return llm.ClientConfig{Provider: llm.ProviderAnthropic, Model: llm.DefaultAnthropicModel, APIKey: "sk-ant-test"}
		}),
	)

	client, err := s.Client()
	require.NoError(t, err)
	assert.IsType(t, &anthropic.Client{}, client)
}

func TestSelector_ErrorIsSticky(t *testing.T) {
	t.Parallel()

	calls := 0
	s := NewSelector(
		WithSelectorLogger(zerolog.Nop()),
		WithConfigSource(func() llm.ClientConfig {
			calls++
			return llm.ClientConfig{Provider: "nonexistent"}
		}),
	)

	_, err := s.Client()
	require.Error(t, err)
	_, err = s.Client()
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

// The environment tests mutate process state and cannot run in parallel.
func TestSelector_FromEnvironment(t *testing.T) {
	tests := []struct {
		name         string
		env          map[string]string
		wantProvider string
		wantModel    string
		wantNotice   bool
	}{
		{
			name:         "no credential selects the mock",
			env:          map[string]string{llm.EnvAnthropicAPIKey: "", llm.EnvProvider: ""},
			wantProvider: llm.ProviderMock,
			wantModel:    llm.DefaultMockModel,
			wantNotice:   true,
		},
		{
			name:         "blank credential selects the mock",
			env:          map[string]string{llm.EnvAnthropicAPIKey: "   ", llm.EnvProvider: ""},
			wantProvider: llm.ProviderMock,
			wantModel:    llm.DefaultMockModel,
			wantNotice:   true,
		},
		{
			name:         "credential selects anthropic",
			env:          map[string]string{llm.EnvAnthropicAPIKey: "sk-ant-test", llm.EnvProvider: "", llm.EnvAnthropicModel: ""},
			wantProvider: llm.ProviderAnthropic,
			wantModel:    llm.DefaultAnthropicModel,
		},
		{
			name: "explicit provider wins",
			env: map[string]string{
				llm.EnvAnthropicAPIKey: "sk-ant-test",
				llm.EnvProvider:        "openai",
				"OPENAI_API_KEY":       "sk-test",
				llm.EnvModel:           "gpt-4o",
			},
			wantProvider: llm.ProviderOpenAI,
			wantModel:    "gpt-4o",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			var buf bytes.Buffer
			client, err := NewSelector(WithSelectorLogger(zerolog.New(&buf))).Client()
			require.NoError(t, err)

			info := client.GetModelInfo()
			assert.Equal(t, tt.wantProvider, info.Provider)
			assert.Equal(t, tt.wantModel, info.Name)
			assert.Equal(t, tt.wantNotice, bytes.Contains(buf.Bytes(), []byte(MockNotice)))
		})
	}
}
