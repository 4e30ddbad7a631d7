package llm

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient replays canned responses and records the requests it saw
type stubClient struct {
	mu       sync.Mutex
	model    string
	response *ChatResponse
	events   []StreamEvent
	err      error
	calls    []ChatRequest
}

func newStubClient(model string) *stubClient {
	return &stubClient{
		model: model,
		response: &ChatResponse{
			ID:      "stub-response",
			Model:   model,
			Choices: []Choice{{Message: NewAssistantMessage("Test response"), FinishReason: FinishReasonStop}},
			Usage:   NewUsage(10, 5),
		},
		events: []StreamEvent{
			NewTextDeltaEvent(0, "Test"),
			NewDoneEvent(0, FinishReasonStop),
		},
	}
}

func (c *stubClient) record(req ChatRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, req)
}

func (c *stubClient) ChatCompletion(_ context.Context, req ChatRequest) (*ChatResponse, error) {
	c.record(req)
	if c.err != nil {
		return nil, c.err
	}
	return c.response, nil
}

func (c *stubClient) StreamChatCompletion(_ context.Context, req ChatRequest) (<-chan StreamEvent, error) {
	c.record(req)
	if c.err != nil {
		return nil, c.err
	}
	ch := make(chan StreamEvent)
	go func() {
		defer close(ch)
		for _, event := range c.events {
			ch <- event
		}
	}()
	return ch, nil
}

func (c *stubClient) GetRemote() ClientRemoteInfo { return ClientRemoteInfo{Name: "stub"} }

func (c *stubClient) GetModelInfo() ModelInfo {
	return ModelInfo{Name: c.model, Provider: "stub", MaxTokens: 4096, SupportsTools: true, SupportsStreaming: true}
}

func (c *stubClient) Close() error { return nil }

// recordingMiddleware notes every hook it was called from
type recordingMiddleware struct {
	name       string
	mu         sync.Mutex
	order      *[]string
	requestErr error
	respErrs   []error
	events     int
}

func newRecordingMiddleware(name string, order *[]string) *recordingMiddleware {
	return &recordingMiddleware{name: name, order: order}
}

func (m *recordingMiddleware) note(hook string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.order != nil {
		*m.order = append(*m.order, m.name+":"+hook)
	}
}

func (m *recordingMiddleware) Name() string { return m.name }

func (m *recordingMiddleware) ProcessRequest(_ context.Context, req *ChatRequest) (*ChatRequest, error) {
	m.note("request")
	if m.requestErr != nil {
		return nil, m.requestErr
	}
	return req, nil
}

func (m *recordingMiddleware) ProcessResponse(_ context.Context, _ *ChatRequest, resp *ChatResponse, err error) (*ChatResponse, error) {
	m.note("response")
	m.mu.Lock()
	m.respErrs = append(m.respErrs, err)
	m.mu.Unlock()
	return resp, nil
}

func (m *recordingMiddleware) ProcessStreamEvent(_ context.Context, _ *ChatRequest, event StreamEvent) (StreamEvent, error) {
	m.mu.Lock()
	m.events++
	m.mu.Unlock()
	return event, nil
}

// rewriteMiddleware sets a model on every request
type rewriteMiddleware struct{ model string }

func (m rewriteMiddleware) Name() string { return "rewrite" }

func (m rewriteMiddleware) ProcessRequest(_ context.Context, req *ChatRequest) (*ChatRequest, error) {
	out := *req
	out.Model = m.model
	return &out, nil
}

func (m rewriteMiddleware) ProcessResponse(_ context.Context, _ *ChatRequest, resp *ChatResponse, _ error) (*ChatResponse, error) {
	return resp, errors.New("ignored")
}

func (m rewriteMiddleware) ProcessStreamEvent(_ context.Context, _ *ChatRequest, event StreamEvent) (StreamEvent, error) {
	return event, nil
}

func TestMiddlewareChain_AddRemove(t *testing.T) {
	t.Parallel()

	chain := NewMiddlewareChain([]Middleware{
		newRecordingMiddleware("first", nil),
		newRecordingMiddleware("second", nil),
	})
	assert.Equal(t, []string{"first", "second"}, chain.GetMiddlewareNames())

	chain.AddMiddleware(newRecordingMiddleware("third", nil))
	assert.True(t, chain.RemoveMiddleware("first"))
	assert.False(t, chain.RemoveMiddleware("missing"))
	assert.Equal(t, []string{"second", "third"}, chain.GetMiddlewareNames())
}

func TestMiddlewareChain_Order(t *testing.T) {
	t.Parallel()

	var order []string
	chain := NewMiddlewareChain([]Middleware{
		newRecordingMiddleware("a", &order),
		newRecordingMiddleware("b", &order),
	})

	req := &ChatRequest{}
	_, err := chain.ProcessRequest(context.Background(), req)
	require.NoError(t, err)
	_, err = chain.ProcessResponse(context.Background(), req, &ChatResponse{}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a:request", "b:request", "b:response", "a:response"}, order)
}

func TestMiddlewareChain_RequestError(t *testing.T) {
	t.Parallel()

	failing := newRecordingMiddleware("guard", nil)
	failing.requestErr = errors.New("rejected")
	chain := NewMiddlewareChain([]Middleware{failing})

	_, err := chain.ProcessRequest(context.Background(), &ChatRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "middleware guard failed")
	assert.ErrorIs(t, err, failing.requestErr)
}

func TestMiddlewareChain_ResponseKeepsOriginalError(t *testing.T) {
	t.Parallel()

	chain := NewMiddlewareChain([]Middleware{rewriteMiddleware{model: "x"}})
	callErr := errors.New("provider down")

	resp, err := chain.ProcessResponse(context.Background(), &ChatRequest{}, nil, callErr)
	assert.Nil(t, resp)
	assert.Same(t, callErr, err)
}

func TestMiddlewareChain_Concurrency(t *testing.T) {
	t.Parallel()

	chain := NewMiddlewareChain(nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			chain.AddMiddleware(newRecordingMiddleware("m", nil))
		}()
		go func() {
			defer wg.Done()
			_, _ = chain.ProcessRequest(context.Background(), &ChatRequest{})
		}()
	}
	wg.Wait()

	assert.Len(t, chain.GetMiddlewareNames(), 20)
}

func TestClientWithMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("wraps a plain client", func(t *testing.T) {
		t.Parallel()

		stub := newStubClient("test-model")
		wrapped := ClientWithMiddleware(stub, []Middleware{newRecordingMiddleware("one", nil)})

		enhanced, ok := wrapped.(*EnhancedClient)
		require.True(t, ok)
		assert.Same(t, stub, enhanced.Unwrap())
		assert.Equal(t, []string{"one"}, enhanced.GetMiddlewareNames())
		assert.Equal(t, "test-model", enhanced.GetModelInfo().Name)
		assert.Equal(t, "stub", enhanced.GetRemote().Name)
		assert.NoError(t, enhanced.Close())
	})

	t.Run("extends an enhanced client", func(t *testing.T) {
		t.Parallel()

		enhanced := NewEnhancedClient(newStubClient("m"), []Middleware{newRecordingMiddleware("initial", nil)})
		result := ClientWithMiddleware(enhanced, []Middleware{newRecordingMiddleware("added", nil)})

		assert.Same(t, enhanced, result)
		assert.Equal(t, []string{"initial", "added"}, enhanced.GetMiddlewareNames())
	})

	t.Run("rewritten request reaches the client", func(t *testing.T) {
		t.Parallel()

		stub := newStubClient("m")
		client := ClientWithMiddleware(stub, []Middleware{rewriteMiddleware{model: "override"}})

		resp, err := client.ChatCompletion(context.Background(), ChatRequest{Model: "original"})
		require.NoError(t, err)
		assert.Equal(t, "Test response", resp.Text())
		require.Len(t, stub.calls, 1)
		assert.Equal(t, "override", stub.calls[0].Model)
	})

	t.Run("client error is returned", func(t *testing.T) {
		t.Parallel()

		stub := newStubClient("m")
		stub.err = errors.New("boom")
		recorder := newRecordingMiddleware("rec", nil)
		client := ClientWithMiddleware(stub, []Middleware{recorder})

		_, err := client.ChatCompletion(context.Background(), ChatRequest{})
		assert.Same(t, stub.err, err)
		assert.Equal(t, []error{stub.err}, recorder.respErrs)
	})
}

func TestClientWithMiddleware_Streaming(t *testing.T) {
	t.Parallel()

	t.Run("events pass through every middleware", func(t *testing.T) {
		t.Parallel()

		recorder := newRecordingMiddleware("rec", nil)
		client := ClientWithMiddleware(newStubClient("m"), []Middleware{recorder})

		stream, err := client.StreamChatCompletion(context.Background(), ChatRequest{Stream: true})
		require.NoError(t, err)

		resp, err := CollectStream(stream)
		require.NoError(t, err)
		assert.Equal(t, "Test", resp.Text())

		for range stream {
		}
		recorder.mu.Lock()
		defer recorder.mu.Unlock()
		assert.Equal(t, 2, recorder.events)
		assert.Equal(t, []error{nil}, recorder.respErrs)
	})

	t.Run("stream error is reported after close", func(t *testing.T) {
		t.Parallel()

		stub := newStubClient("m")
		streamErr := &Error{Code: ErrCodeAPI, Message: "lost connection", Type: ErrTypeAPI}
		stub.events = []StreamEvent{NewTextDeltaEvent(0, "partial"), NewErrorEvent(streamErr)}
		recorder := newRecordingMiddleware("rec", nil)
		client := ClientWithMiddleware(stub, []Middleware{recorder})

		stream, err := client.StreamChatCompletion(context.Background(), ChatRequest{Stream: true})
		require.NoError(t, err)

		_, err = CollectStream(stream)
		require.ErrorIs(t, err, streamErr)

		// Drain so the relay goroutine finishes and reports
		for range stream {
		}
		recorder.mu.Lock()
		defer recorder.mu.Unlock()
		require.Len(t, recorder.respErrs, 1)
		assert.Equal(t, streamErr, recorder.respErrs[0])
	})

	t.Run("setup failure is reported", func(t *testing.T) {
		t.Parallel()

		stub := newStubClient("m")
		stub.err = errors.New("refused")
		recorder := newRecordingMiddleware("rec", nil)
		client := ClientWithMiddleware(stub, []Middleware{recorder})

		_, err := client.StreamChatCompletion(context.Background(), ChatRequest{})
		assert.Same(t, stub.err, err)
		assert.Equal(t, []error{stub.err}, recorder.respErrs)
	})
}

func TestLoggingMiddleware(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	client := ClientWithMiddleware(newStubClient("m"), []Middleware{NewLoggingMiddleware(log)})

	_, err := client.ChatCompletion(context.Background(), ChatRequest{Model: "m", Messages: []Message{NewTextMessage(RoleUser, "hi")}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"message":"chat request"`)
	assert.Contains(t, out, `"messages":1`)
	assert.Contains(t, out, `"message":"chat response"`)
	assert.Contains(t, out, `"finish_reason":"stop"`)
	assert.Contains(t, out, `"total_tokens":15`)
	assert.Contains(t, out, `"elapsed"`)
}
