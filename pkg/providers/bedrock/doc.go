// Package bedrock implements llm.Client for Claude models hosted on AWS Bedrock.
//
// Requests use the Claude Messages body (anthropic_version
// "bedrock-2023-05-31") built by the anthropic provider package and are sent
// with InvokeModel and InvokeModelWithResponseStream. Stream chunks carry the
// same events as the Anthropic API and are decoded the same way.
//
// Usage:
//
//	client, err := bedrock.NewClient(llm.ClientConfig{
//	    Provider: "bedrock",
//	    Model:    "anthropic.claude-3-5-haiku-20241022-v1:0",
//	    Extra: map[string]string{
//	        "region": "us-east-1",
//	    },
//	})
//
// The client uses the AWS SDK's default credential chain for authentication,
// supporting environment variables, IAM roles, profiles, and other standard
// AWS authentication methods.
package bedrock
