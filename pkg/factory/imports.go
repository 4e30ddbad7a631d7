package factory

import (
	"github.com/uigen/go-llm/pkg/llm"
	"github.com/uigen/go-llm/pkg/logger"
	"github.com/uigen/go-llm/pkg/providers/anthropic"
	"github.com/uigen/go-llm/pkg/providers/bedrock"
	"github.com/uigen/go-llm/pkg/providers/deepseek"
	"github.com/uigen/go-llm/pkg/providers/gemini"
	"github.com/uigen/go-llm/pkg/providers/mock"
	"github.com/uigen/go-llm/pkg/providers/openai"
	"github.com/uigen/go-llm/pkg/providers/openrouter"
)

func init() {
	RegisterProvider(llm.ProviderAnthropic, func(config llm.ClientConfig) (llm.Client, error) {
		return anthropic.NewClient(config)
	})

	RegisterProvider(llm.ProviderBedrock, func(config llm.ClientConfig) (llm.Client, error) {
		return bedrock.NewClient(config)
	})

	RegisterProvider(llm.ProviderOpenAI, func(config llm.ClientConfig) (llm.Client, error) {
		return openai.NewClient(config)
	})

	RegisterProvider(llm.ProviderGemini, func(config llm.ClientConfig) (llm.Client, error) {
		return gemini.NewClient(config)
	})

	RegisterProvider(llm.ProviderDeepSeek, func(config llm.ClientConfig) (llm.Client, error) {
		return deepseek.NewClient(config)
	})

	RegisterProvider(llm.ProviderOpenRouter, func(config llm.ClientConfig) (llm.Client, error) {
		return openrouter.NewClient(config)
	})

	RegisterProvider(llm.ProviderMock, func(config llm.ClientConfig) (llm.Client, error) {
		return mock.NewClientFromConfig(config, mock.WithLogger(logger.With("mock")))
	})
}
