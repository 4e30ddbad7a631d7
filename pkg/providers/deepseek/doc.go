// Package deepseek provides an LLM client for DeepSeek models.
//
// This provider implements the llm.Client interface for DeepSeek's
// OpenAI-style API using github.com/cohesion-org/deepseek-go, supporting
// streaming and non-streaming chat completions with tool calling.
//
// Usage:
//
//	client, err := deepseek.NewClient(llm.ClientConfig{
//	    Provider: "deepseek",
//	    APIKey:   "your-api-key",
//	    Model:    "deepseek-chat",
//	})
package deepseek
