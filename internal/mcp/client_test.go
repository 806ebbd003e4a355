package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport is an in-memory Transport driven by a per-method
// handler. Each Send of a request queues whatever messages the handler
// returns; Receive pops them in order.
type fakeTransport struct {
	handle     func(req Request) []*Response
	queue      []*Response
	sent       []Request
	startErr   error
	receiveErr error
	running    bool
}

func (f *fakeTransport) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.running = true
	return nil
}

func (f *fakeTransport) Send(msg any) error {
	if !f.running {
		return errors.New("transport not started")
	}
	req, ok := msg.(Request)
	if !ok {
		return fmt.Errorf("unexpected message type %T", msg)
	}
	f.sent = append(f.sent, req)
	if req.ID != 0 && f.handle != nil {
		f.queue = append(f.queue, f.handle(req)...)
	}
	return nil
}

func (f *fakeTransport) Receive(ctx context.Context) (*Response, error) {
	if f.receiveErr != nil {
		return nil, f.receiveErr
	}
	if len(f.queue) == 0 {
		return nil, &ProtocolError{Reason: "stream closed"}
	}
	resp := f.queue[0]
	f.queue = f.queue[1:]
	return resp, nil
}

func (f *fakeTransport) Stop()         { f.running = false }
func (f *fakeTransport) Running() bool { return f.running }

// okHandler answers initialize and tools/list like a well-behaved
// server.
func okHandler(tools ...Tool) func(req Request) []*Response {
	return func(req Request) []*Response {
		switch req.Method {
		case "initialize":
			return []*Response{{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(`{"protocolVersion":"2024-11-05"}`)}}
		case "tools/list":
			result, _ := json.Marshal(listToolsResult{Tools: tools})
			return []*Response{{JSONRPC: "2.0", ID: req.ID, Result: result}}
		}
		return []*Response{{JSONRPC: "2.0", ID: req.ID, Error: &ResponseError{Code: -32601, Message: "method not found"}}}
	}
}

func newFakeClient(f *fakeTransport) *Client {
	return NewClient("test-client", "0.0.1", func() Transport { return f }, zerolog.Nop())
}

func TestConnectHandshake(t *testing.T) {
	f := &fakeTransport{handle: okHandler()}
	c := newFakeClient(f)

	require.NoError(t, c.Connect(context.Background()))
	assert.True(t, c.Connected())

	require.Len(t, f.sent, 2)
	assert.Equal(t, "initialize", f.sent[0].Method)
	assert.Equal(t, int64(1), f.sent[0].ID)

	var params initializeParams
	require.NoError(t, json.Unmarshal(f.sent[0].Params, &params))
	assert.Equal(t, protocolVersion, params.ProtocolVersion)
	assert.Equal(t, "test-client", params.ClientInfo.Name)

	assert.Equal(t, "notifications/initialized", f.sent[1].Method)
	assert.Zero(t, f.sent[1].ID, "initialized must be a notification")

	// Reconnecting a live session is a no-op.
	require.NoError(t, c.Connect(context.Background()))
	assert.Len(t, f.sent, 2)
}

func TestConnectStartFailure(t *testing.T) {
	f := &fakeTransport{startErr: &StartupError{Command: "uvx", Err: errors.New("not found")}}
	c := newFakeClient(f)

	err := c.Connect(context.Background())
	var startErr *StartupError
	require.True(t, errors.As(err, &startErr))
	assert.False(t, c.Connected())
}

func TestConnectRejectedInitialize(t *testing.T) {
	f := &fakeTransport{handle: func(req Request) []*Response {
		return []*Response{{JSONRPC: "2.0", ID: req.ID, Error: &ResponseError{Code: -32600, Message: "unsupported protocol"}}}
	}}
	c := newFakeClient(f)

	err := c.Connect(context.Background())
	var protoErr *ProtocolError
	require.True(t, errors.As(err, &protoErr))
	assert.False(t, c.Connected())
	assert.False(t, f.running, "transport must be stopped after a failed handshake")
}

func TestDisconnectIsAlwaysSafe(t *testing.T) {
	f := &fakeTransport{handle: okHandler()}
	c := newFakeClient(f)

	// Never connected.
	c.Disconnect()

	require.NoError(t, c.Connect(context.Background()))
	c.Disconnect()
	assert.False(t, c.Connected())

	// Already disconnected.
	c.Disconnect()
}

func TestListToolsCachedForSession(t *testing.T) {
	listCalls := 0
	base := okHandler(Tool{Name: "search_documentation", Description: "Search AWS docs"})
	f := &fakeTransport{handle: func(req Request) []*Response {
		if req.Method == "tools/list" {
			listCalls++
		}
		return base(req)
	}}
	c := newFakeClient(f)

	tools, err := c.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "search_documentation", tools[0].Name)

	_, err = c.ListTools(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, listCalls, "tool list must be cached for the session")

	// A fresh session refetches.
	c.Disconnect()
	_, err = c.ListTools(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, listCalls)
}

func TestListToolsMalformedResult(t *testing.T) {
	f := &fakeTransport{handle: func(req Request) []*Response {
		if req.Method == "initialize" {
			return okHandler()(req)
		}
		return []*Response{{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(`"not an object"`)}}
	}}
	c := newFakeClient(f)

	_, err := c.ListTools(context.Background())
	var protoErr *ProtocolError
	require.True(t, errors.As(err, &protoErr))
}

func TestCallToolSuccess(t *testing.T) {
	f := &fakeTransport{handle: func(req Request) []*Response {
		if req.Method == "initialize" {
			return okHandler()(req)
		}
		var params CallToolParams
		require.NoError(t, json.Unmarshal(req.Params, &params))
		assert.Equal(t, "read_documentation", params.Name)
		assert.Equal(t, "https://docs.aws.amazon.com/s3/", params.Arguments["url"])
		return []*Response{{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(`{"content":[{"type":"text","text":"# S3"}]}`)}}
	}}
	c := newFakeClient(f)

	result, err := c.CallTool(context.Background(), "read_documentation", map[string]any{"url": "https://docs.aws.amazon.com/s3/"})
	require.NoError(t, err)
	assert.Equal(t, "# S3", result.Text())
}

func TestCallToolServerError(t *testing.T) {
	tests := []struct {
		name    string
		respond func(req Request) []*Response
	}{
		{
			name: "json-rpc error object",
			respond: func(req Request) []*Response {
				return []*Response{{JSONRPC: "2.0", ID: req.ID, Error: &ResponseError{Code: -32000, Message: "backend exploded"}}}
			},
		},
		{
			name: "isError result",
			respond: func(req Request) []*Response {
				return []*Response{{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(`{"content":[{"type":"text","text":"backend exploded"}],"isError":true}`)}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeTransport{handle: func(req Request) []*Response {
				if req.Method == "initialize" {
					return okHandler()(req)
				}
				return tt.respond(req)
			}}
			c := newFakeClient(f)

			_, err := c.CallTool(context.Background(), "git_status", nil)
			var toolErr *ToolError
			require.True(t, errors.As(err, &toolErr), "want *ToolError, got %T: %v", err, err)
			assert.Equal(t, "git_status", toolErr.Tool)
			assert.Contains(t, toolErr.Message, "backend exploded")
			assert.True(t, c.Connected(), "a tool failure must not poison the session")
		})
	}
}

func TestResponseCorrelationSkipsNoise(t *testing.T) {
	f := &fakeTransport{handle: func(req Request) []*Response {
		if req.Method == "initialize" {
			return okHandler()(req)
		}
		// A notification and a stale response precede the real one.
		return []*Response{
			{JSONRPC: "2.0", Result: json.RawMessage(`{"level":"info"}`)},
			{JSONRPC: "2.0", ID: req.ID + 100, Result: json.RawMessage(`{}`)},
			{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(`{"content":[{"type":"text","text":"clean"}]}`)},
		}
	}}
	c := newFakeClient(f)

	result, err := c.CallTool(context.Background(), "git_status", nil)
	require.NoError(t, err)
	assert.Equal(t, "clean", result.Text())
}

func TestMonotonicRequestIDs(t *testing.T) {
	f := &fakeTransport{handle: okHandler()}
	c := newFakeClient(f)
	require.NoError(t, c.Connect(context.Background()))

	for i := 0; i < 3; i++ {
		_, err := c.CallTool(context.Background(), "git_status", nil)
		require.Error(t, err) // okHandler answers method-not-found
	}

	var ids []int64
	for _, req := range f.sent {
		if req.ID != 0 {
			ids = append(ids, req.ID)
		}
	}
	require.Len(t, ids, 4) // initialize + three calls
	for i := 1; i < len(ids); i++ {
		assert.Greater(t, ids[i], ids[i-1], "ids must increase monotonically")
	}
}

func TestTimeoutDiscardsSession(t *testing.T) {
	factoryCalls := 0
	timedOut := &fakeTransport{handle: okHandler()}
	fresh := &fakeTransport{handle: okHandler()}

	c := NewClient("test-client", "0.0.1", func() Transport {
		factoryCalls++
		if factoryCalls == 1 {
			return timedOut
		}
		return fresh
	}, zerolog.Nop())

	require.NoError(t, c.Connect(context.Background()))

	// Make the next receive time out.
	timedOut.receiveErr = &TimeoutError{Op: "receive", Err: context.DeadlineExceeded}

	_, err := c.CallTool(context.Background(), "git_status", nil)
	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr), "want *TimeoutError, got %T: %v", err, err)
	assert.False(t, c.Connected(), "timeout must poison the session")
	assert.False(t, timedOut.running, "poisoned transport must be stopped")

	// The next call reconnects with a fresh process.
	_, err = c.CallTool(context.Background(), "git_status", nil)
	require.Error(t, err) // method-not-found from okHandler, but over a live session
	assert.Equal(t, 2, factoryCalls)
	assert.True(t, c.Connected())
}
