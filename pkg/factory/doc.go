// Package factory provides provider registration, client construction and
// the environment-driven provider facade.
//
// Importing the package registers every provider shipped with the module
// (anthropic, bedrock, openai, gemini, deepseek, openrouter and mock).
//
// Most callers only need Default, which picks a provider once from the
// environment and falls back to the mock when no credential is set:
//
//	client, err := factory.Default()
//	if err != nil {
//	    return err
//	}
//	resp, err := client.ChatCompletion(ctx, req)
//
// Clients for an explicit configuration come from a Factory:
//
//	client, err := factory.New().CreateClient(llm.ClientConfig{
//	    Provider: "openai",
//	    Model:    "gpt-4o-mini",
//	    APIKey:   "your-api-key",
//	})
package factory
