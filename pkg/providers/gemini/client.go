package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/uigen/go-llm/pkg/llm"
)

// safeIntToInt32 safely converts int to int32
func safeIntToInt32(val int) int32 {
	if val > 2147483647 {
		return 2147483647
	}
	if val < -2147483648 {
		return -2147483648
	}
	return int32(val)
}

// modelCapabilities defines the capabilities for a model pattern
type modelCapabilities struct {
	pattern       *regexp.Regexp
	maxTokens     int
	supportsTools bool
}

// modelCapabilitiesList defines capabilities for different Gemini models.
// Models are matched in order, first match wins
var modelCapabilitiesList = []modelCapabilities{
	{pattern: regexp.MustCompile(`gemini-(2\.\d|1\.5)-pro`), maxTokens: 2000000, supportsTools: true},
	{pattern: regexp.MustCompile(`gemini-(2\.\d|1\.5)-flash`), maxTokens: 1000000, supportsTools: true},
	{pattern: regexp.MustCompile(`gemini-.*-vision`), maxTokens: 30720, supportsTools: false},
}

var _ llm.Client = (*Client)(nil)

// Client implements the llm.Client interface for Google Gemini
type Client struct {
	model  string
	genai  *genai.Client
	health llm.HealthCache
}

// NewClient creates a new Gemini client using the official Google Generative AI library.
func NewClient(config llm.ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, &llm.Error{
			Code:    llm.ErrCodeMissingAPIKey,
			Message: "API key is required for Gemini",
			Type:    llm.ErrTypeAuthentication,
		}
	}
	model := config.Model
	if model == "" {
		model = llm.DefaultGeminiModel
	}

	genaiConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		genaiConfig.HTTPOptions.BaseURL = config.BaseURL
	}
	if config.Timeout > 0 {
		timeout := config.Timeout
		genaiConfig.HTTPOptions.Timeout = &timeout
	}

	genaiClient, err := genai.NewClient(context.Background(), genaiConfig)
	if err != nil {
		return nil, llm.NewProviderError("client_creation_error", llm.ErrTypeAPI, 0,
			fmt.Errorf("failed to create genai client: %w", err))
	}

	return &Client{
		model: model,
		genai: genaiClient,
	}, nil
}

// ChatCompletion performs a non-streaming content generation request.
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	model, contents, config, err := c.prepare(req)
	if err != nil {
		return nil, err
	}

	response, err := c.genai.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, convertError(err)
	}

	resp := convertResponse(response, model)
	resp.RawCall = llm.NewRawCall(req)
	return resp, nil
}

// StreamChatCompletion performs a streaming content generation request.
// Gemini delivers function calls whole, so each one becomes a single delta.
func (c *Client) StreamChatCompletion(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	model, contents, config, err := c.prepare(req)
	if err != nil {
		return nil, err
	}

	rawCall := llm.NewRawCall(req)
	ch := make(chan llm.StreamEvent)

	go func() {
		defer close(ch)

		send := func(event llm.StreamEvent) bool {
			select {
			case ch <- event:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var (
			usage     llm.Usage
			callIndex int
			finish    = llm.FinishReasonStop
		)
		for response, err := range c.genai.Models.GenerateContentStream(ctx, model, contents, config) {
			if err != nil {
				if ctx.Err() == nil {
					send(llm.NewErrorEvent(convertError(err)))
				}
				return
			}

			if response.UsageMetadata != nil {
				usage = convertUsage(response.UsageMetadata)
			}
			if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
				continue
			}

			candidate := response.Candidates[0]
			if candidate.FinishReason != "" {
				finish = convertFinishReason(candidate.FinishReason)
			}
			for _, part := range candidate.Content.Parts {
				var event llm.StreamEvent
				switch {
				case part.FunctionCall != nil:
					event = llm.NewToolCallEvent(0, callIndex, convertFunctionCall(part.FunctionCall, callIndex))
					callIndex++
				case part.Text != "" && !part.Thought:
					event = llm.NewTextDeltaEvent(0, part.Text)
				default:
					continue
				}
				if !send(event) {
					return
				}
			}
		}

		if callIndex > 0 {
			finish = llm.FinishReasonToolCalls
		}
		send(llm.NewFinishEvent(0, finish, usage, rawCall))
	}()

	return ch, nil
}

// prepare resolves the model and builds the contents and generation config for a request
func (c *Client) prepare(req llm.ChatRequest) (string, []*genai.Content, *genai.GenerateContentConfig, error) {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	contents, system, err := convertMessages(req.Messages)
	if err != nil {
		return "", nil, nil, err
	}

	config := &genai.GenerateContentConfig{
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Tools:       convertTools(req.Tools),
	}
	if req.MaxTokens != nil {
		config.MaxOutputTokens = safeIntToInt32(*req.MaxTokens)
	}

	if req.System != "" {
		system = append([]string{req.System}, system...)
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	return model, contents, config, nil
}

// convertMessages converts our messages to genai contents. System messages
// are returned separately so they can be sent as the system instruction.
func convertMessages(messages []llm.Message) ([]*genai.Content, []string, error) {
	var (
		contents []*genai.Content
		system   []string
	)
	// tool results only carry the call ID but Gemini wants the function name
	callNames := make(map[string]string)

	appendParts := func(role string, parts ...*genai.Part) {
		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, parts...)
			return
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			if text := msg.GetText(); text != "" {
				system = append(system, text)
			}

		case llm.RoleTool:
			appendParts(genai.RoleUser, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       msg.ToolCallID,
					Name:     callNames[msg.ToolCallID],
					Response: map[string]any{"output": msg.GetText()},
				},
			})

		case llm.RoleAssistant:
			var parts []*genai.Part
			if text := msg.GetText(); text != "" {
				parts = append(parts, genai.NewPartFromText(text))
			}
			for _, tc := range msg.ToolCalls {
				callNames[tc.ID] = tc.Function.Name
				args := make(map[string]any)
				if tc.Function.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
						args = map[string]any{"invalid_json_stringified": tc.Function.Arguments}
					}
				}
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Function.Name, Args: args},
				})
			}
			if len(parts) > 0 {
				appendParts(genai.RoleModel, parts...)
			}

		default:
			if text := msg.GetText(); text != "" {
				appendParts(genai.RoleUser, genai.NewPartFromText(text))
			}
		}
	}

	if len(contents) == 0 {
		return nil, nil, llm.NewProviderError(llm.ErrCodeInvalidRequest, llm.ErrTypeValidation, 400,
			errors.New("no valid messages provided"))
	}

	return contents, system, nil
}

// convertTools converts our tools to genai function declarations
func convertTools(tools []llm.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
			Parameters:  convertSchema(tool.Function.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// convertSchema maps a JSON schema object onto the genai schema subset
func convertSchema(schema map[string]any) *genai.Schema {
	if len(schema) == 0 {
		return nil
	}

	out := &genai.Schema{}
	if t, ok := schema["type"].(string); ok {
		out.Type = genai.Type(strings.ToUpper(t))
	}
	if d, ok := schema["description"].(string); ok {
		out.Description = d
	}
	out.Required = stringList(schema["required"])
	out.Enum = stringList(schema["enum"])

	if props, ok := schema["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			if propSchema, ok := prop.(map[string]any); ok {
				out.Properties[name] = convertSchema(propSchema)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		out.Items = convertSchema(items)
	}

	return out
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	}
	return nil
}

func convertFunctionCall(fc *genai.FunctionCall, index int) llm.ToolCall {
	id := fc.ID
	if id == "" {
		id = fmt.Sprintf("call_%d", index)
	}
	args, err := json.Marshal(fc.Args)
	if err != nil || fc.Args == nil {
		args = []byte("{}")
	}
	return llm.ToolCall{
		ID:   id,
		Type: llm.ToolTypeFunction,
		Function: llm.ToolCallFunction{
			Name:      fc.Name,
			Arguments: string(args),
		},
	}
}

func convertFinishReason(reason genai.FinishReason) string {
	switch {
	case reason == genai.FinishReasonMaxTokens:
		return llm.FinishReasonLength
	case strings.Contains(string(reason), "SAFETY"):
		return "content_filter"
	default:
		return llm.FinishReasonStop
	}
}

func convertUsage(meta *genai.GenerateContentResponseUsageMetadata) llm.Usage {
	return llm.NewUsage(int(meta.PromptTokenCount), int(meta.CandidatesTokenCount))
}

// convertResponse converts genai response to our internal format
func convertResponse(resp *genai.GenerateContentResponse, model string) *llm.ChatResponse {
	id := resp.ResponseID
	if id == "" {
		id = fmt.Sprintf("gemini-%s", time.Now().Format(time.RFC3339Nano))
	}

	chatResp := &llm.ChatResponse{
		ID:      id,
		Model:   model,
		Choices: []llm.Choice{},
	}
	if resp.UsageMetadata != nil {
		chatResp.Usage = convertUsage(resp.UsageMetadata)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return chatResp
	}

	candidate := resp.Candidates[0]
	var (
		text      strings.Builder
		toolCalls []llm.ToolCall
	)
	for _, part := range candidate.Content.Parts {
		switch {
		case part.FunctionCall != nil:
			toolCalls = append(toolCalls, convertFunctionCall(part.FunctionCall, len(toolCalls)))
		case !part.Thought:
			text.WriteString(part.Text)
		}
	}

	finishReason := convertFinishReason(candidate.FinishReason)
	if len(toolCalls) > 0 {
		finishReason = llm.FinishReasonToolCalls
	}

	chatResp.Choices = append(chatResp.Choices, llm.Choice{
		Message:      llm.NewAssistantMessage(text.String(), toolCalls...),
		FinishReason: finishReason,
	})
	return chatResp
}

// convertError converts genai errors to our internal error format
func convertError(err error) *llm.Error {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return llm.ErrorFromStatus(apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return llm.ErrorFromStatus(apiErrPtr.Code, err)
	}

	return llm.NewProviderError(llm.ErrCodeAPI, llm.ErrTypeAPI, 0, err)
}

// GetRemote returns information about the remote client
func (c *Client) GetRemote() llm.ClientRemoteInfo {
	return llm.ClientRemoteInfo{
		Name:   llm.ProviderGemini,
		Status: c.health.Status(c.performHealthCheck),
	}
}

// performHealthCheck performs a simple health check on the Gemini API
func (c *Client) performHealthCheck() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.genai.Models.GenerateContent(ctx, c.model,
		genai.Text("test"), &genai.GenerateContentConfig{MaxOutputTokens: 1})
	return err == nil
}

// GetModelInfo returns information about the model being used
func (c *Client) GetModelInfo() llm.ModelInfo {
	caps := modelCapabilities{
		maxTokens:     30720,
		supportsTools: true,
	}
	for _, modelCaps := range modelCapabilitiesList {
		if modelCaps.pattern.MatchString(c.model) {
			caps = modelCaps
			break
		}
	}

	return llm.ModelInfo{
		Name:              c.model,
		Provider:          llm.ProviderGemini,
		MaxTokens:         caps.maxTokens,
		SupportsTools:     caps.supportsTools,
		SupportsStreaming: true,
	}
}

// Close is a no-op; the genai client holds no resources that need releasing
func (c *Client) Close() error {
	return nil
}
