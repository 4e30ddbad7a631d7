// Package openai provides an OpenAI client implementation for the go-llm library.
//
// This package implements the llm.Client interface for OpenAI's GPT models
// (and OpenAI-compatible endpoints through BaseURL), supporting chat
// completions, streaming and tools (function calling). Content is text only.
//
// Finish reasons are mapped onto the llm constants, so a "tool_calls" finish
// is reported as llm.FinishReasonToolCalls in both modes.
package openai
