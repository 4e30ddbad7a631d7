// Package gemini provides an LLM client for Google Gemini models.
//
// This provider implements the llm.Client interface for Google's Gemini API
// using the official google.golang.org/genai library. It supports streaming
// and non-streaming chat completions with function calling.
//
// System messages and ChatRequest.System are sent as the system instruction.
// Tool results are sent back as function responses; Gemini matches them by
// function name, which is recovered from the assistant turn that made the call.
//
// Usage:
//
//	client, err := gemini.NewClient(llm.ClientConfig{
//	    Provider: "gemini",
//	    APIKey:   "your-api-key",
//	    Model:    "gemini-1.5-flash",
//	})
package gemini
