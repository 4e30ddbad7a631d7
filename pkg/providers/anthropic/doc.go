// Package anthropic implements llm.Client on the Anthropic Messages API
// through the official anthropic-sdk-go.
//
// The request and stream conversions are exported so other transports of
// the same wire format (Claude on AWS Bedrock) can reuse them:
//
//	params := anthropic.BuildParams(model, req)
//	decoder := anthropic.NewStreamDecoder()
//
// Usage:
//
//	client, err := anthropic.NewClient(llm.ClientConfig{
//	    Provider: "anthropic",
//	    Model:    "claude-haiku-4-5",
//	    APIKey:   os.Getenv("ANTHROPIC_API_KEY"),
//	})
package anthropic
