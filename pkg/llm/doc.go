// Package llm provides the provider-agnostic contract for Large Language Model clients.
//
// Every provider, real or mocked, implements Client with two consumption modes:
//
// - ChatCompletion: a buffered call returning one aggregate ChatResponse
// - StreamChatCompletion: a channel of StreamEvent values, delta events
// closed by exactly one done or error event
//
// CollectStream rebuilds the aggregate from a stream so both modes can be
// compared. The package also carries the message and tool types, the
// standardized *Error, env-driven configuration (GetLLMFromEnv) and a
// middleware chain for wrapping clients.
//
// Provider implementations are located in separate packages under /pkg/providers/
// to maintain clean separation of concerns and avoid import cycles.
package llm
