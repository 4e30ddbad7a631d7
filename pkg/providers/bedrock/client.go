package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"

	"github.com/uigen/go-llm/pkg/llm"
	"github.com/uigen/go-llm/pkg/providers/anthropic"
)

const (
	defaultRegion    = "us-east-1"
	anthropicVersion = "bedrock-2023-05-31"
)

var _ llm.Client = (*Client)(nil)

// Client implements the llm.Client interface for AWS Bedrock
type Client struct {
	bedrockClient        *bedrock.Client
	bedrockRuntimeClient *bedrockruntime.Client
	model                string
	region               string
	health               llm.HealthCache
}

// NewClient creates a new AWS Bedrock client
func NewClient(config llm.ClientConfig) (*Client, error) {
	region := defaultRegion
	if r := config.Extra["region"]; r != "" {
		region = r
	}

	model := config.Model
	if model == "" {
		model = llm.DefaultBedrockModel
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, &llm.Error{
			Code:    "aws_config_error",
			Message: fmt.Sprintf("Failed to load AWS configuration: %v", err),
			Type:    llm.ErrTypeAuthentication,
		}
	}

	bedrockClient := bedrock.NewFromConfig(awsConfig, func(o *bedrock.Options) {
		if endpoint := config.Extra["bedrock_endpoint"]; endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	bedrockRuntimeClient := bedrockruntime.NewFromConfig(awsConfig, func(o *bedrockruntime.Options) {
		if endpoint := config.Extra["bedrock_runtime_endpoint"]; endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		if config.BaseURL != "" {
			o.BaseEndpoint = aws.String(config.BaseURL)
		}
	})

	return &Client{
		bedrockClient:        bedrockClient,
		bedrockRuntimeClient: bedrockRuntimeClient,
		model:                model,
		region:               region,
	}, nil
}

// ChatCompletion performs a chat completion request
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	payload, err := buildBody(c.model, req)
	if err != nil {
		return nil, err
	}

	response, err := c.bedrockRuntimeClient.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, convertError(err)
	}

	var msg sdk.Message
	if err := json.Unmarshal(response.Body, &msg); err != nil {
		return nil, convertError(fmt.Errorf("failed to decode Bedrock response: %w", err))
	}

	resp := anthropic.ConvertMessage(&msg, c.model)
	resp.Model = c.model
	resp.RawCall = llm.NewRawCall(req)
	return resp, nil
}

// StreamChatCompletion performs a streaming chat completion request
func (c *Client) StreamChatCompletion(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	payload, err := buildBody(c.model, req)
	if err != nil {
		return nil, err
	}

	response, err := c.bedrockRuntimeClient.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     aws.String(c.model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, convertError(err)
	}

	rawCall := llm.NewRawCall(req)
	ch := make(chan llm.StreamEvent)

	go func() {
		defer close(ch)

		stream := response.GetStream()
		defer stream.Close()

		send := func(event llm.StreamEvent) bool {
			select {
			case ch <- event:
				return true
			case <-ctx.Done():
				return false
			}
		}

		decoder := anthropic.NewStreamDecoder()
		for event := range stream.Events() {
			chunk, ok := event.(*types.ResponseStreamMemberChunk)
			if !ok {
				continue
			}

			var streamEvent sdk.MessageStreamEventUnion
			if err := json.Unmarshal(chunk.Value.Bytes, &streamEvent); err != nil {
				send(llm.NewErrorEvent(convertError(fmt.Errorf("failed to decode stream chunk: %w", err))))
				return
			}
			if out, ok := decoder.Decode(streamEvent); ok {
				if !send(out) {
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			if ctx.Err() == nil {
				send(llm.NewErrorEvent(convertError(err)))
			}
			return
		}

		send(decoder.Finish(rawCall))
	}()

	return ch, nil
}

// buildBody renders the Claude Messages body Bedrock expects: the Anthropic
// params without model or stream, plus anthropic_version.
func buildBody(model string, req llm.ChatRequest) ([]byte, error) {
	params := anthropic.BuildParams(model, req)

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, convertError(fmt.Errorf("failed to encode Bedrock request: %w", err))
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, convertError(fmt.Errorf("failed to encode Bedrock request: %w", err))
	}
	delete(body, "model")
	delete(body, "stream")
	body["anthropic_version"] = anthropicVersion

	return json.Marshal(body)
}

// GetRemote returns information about the remote client
func (c *Client) GetRemote() llm.ClientRemoteInfo {
	return llm.ClientRemoteInfo{
		Name:   llm.ProviderBedrock,
		Status: c.health.Status(c.performHealthCheck),
	}
}

// performHealthCheck performs a simple health check on AWS Bedrock
func (c *Client) performHealthCheck() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := c.bedrockClient.ListFoundationModels(ctx, &bedrock.ListFoundationModelsInput{})
	return err == nil
}

// GetModelInfo returns information about the model being used
func (c *Client) GetModelInfo() llm.ModelInfo {
	return llm.ModelInfo{
		Name:              c.model,
		Provider:          llm.ProviderBedrock,
		MaxTokens:         200000,
		SupportsTools:     true,
		SupportsStreaming: true,
	}
}

// Close cleans up any resources used by the client
func (c *Client) Close() error {
	// AWS SDK clients don't require explicit cleanup
	return nil
}

// convertError converts errors to our internal error format
func convertError(err error) *llm.Error {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		status := 0
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			status = respErr.HTTPStatusCode()
		}

		switch apiErr.ErrorCode() {
		case "UnrecognizedClientException", "AccessDeniedException", "ExpiredTokenException":
			return llm.NewProviderError(llm.ErrCodeAuthentication, llm.ErrTypeAuthentication, status, err)
		case "ThrottlingException", "TooManyRequestsException", "ServiceQuotaExceededException":
			return llm.NewProviderError(llm.ErrCodeRateLimit, llm.ErrTypeRateLimit, status, err)
		case "ResourceNotFoundException":
			return llm.NewProviderError(llm.ErrCodeModelNotFound, llm.ErrTypeValidation, status, err)
		case "ValidationException":
			return llm.NewProviderError(llm.ErrCodeInvalidRequest, llm.ErrTypeValidation, status, err)
		}
		if status != 0 {
			return llm.ErrorFromStatus(status, err)
		}
	}

	return llm.NewProviderError(llm.ErrCodeAPI, llm.ErrTypeAPI, 0, err)
}
