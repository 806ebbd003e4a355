package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransport(command string, args ...string) *StdioTransport {
	return NewStdioTransport(command, args, nil, zerolog.Nop())
}

func TestStartNonexistentExecutable(t *testing.T) {
	tr := newTestTransport("/nonexistent/mcp-server-binary")

	err := tr.Start(context.Background())
	require.Error(t, err)

	var startErr *StartupError
	require.True(t, errors.As(err, &startErr), "want *StartupError, got %T: %v", err, err)
	assert.Equal(t, "/nonexistent/mcp-server-binary", startErr.Command)
}

func TestSendReceiveRoundTrip(t *testing.T) {
	// cat echoes our request line back, exercising framing both ways.
	tr := newTestTransport("cat")
	require.NoError(t, tr.Start(context.Background()))
	defer tr.Stop()

	req := Request{JSONRPC: "2.0", ID: 7, Method: "tools/list"}
	require.NoError(t, tr.Send(req))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := tr.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, "2.0", resp.JSONRPC)
}

func TestReceiveSkipsBlankLines(t *testing.T) {
	tr := newTestTransport("sh", "-c", `printf '\n  \n{"jsonrpc":"2.0","id":1,"result":{}}\n'; sleep 1`)
	require.NoError(t, tr.Start(context.Background()))
	defer tr.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := tr.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ID)
}

func TestReceiveMalformedJSON(t *testing.T) {
	tr := newTestTransport("sh", "-c", `printf 'this is not json\n'; sleep 1`)
	require.NoError(t, tr.Start(context.Background()))
	defer tr.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := tr.Receive(ctx)

	var protoErr *ProtocolError
	require.True(t, errors.As(err, &protoErr), "want *ProtocolError, got %T: %v", err, err)
}

func TestReceiveStreamClosed(t *testing.T) {
	tr := newTestTransport("true")
	require.NoError(t, tr.Start(context.Background()))
	defer tr.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := tr.Receive(ctx)

	var protoErr *ProtocolError
	require.True(t, errors.As(err, &protoErr), "want *ProtocolError, got %T: %v", err, err)
}

func TestReceiveTimeout(t *testing.T) {
	tr := newTestTransport("sleep", "30")
	require.NoError(t, tr.Start(context.Background()))
	defer tr.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := tr.Receive(ctx)

	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr), "want *TimeoutError, got %T: %v", err, err)
}

func TestReceiveErrorIncludesStderr(t *testing.T) {
	tr := newTestTransport("sh", "-c", `echo 'boom: missing credentials' >&2; exit 1`)
	require.NoError(t, tr.Start(context.Background()))
	defer tr.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := tr.Receive(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing credentials")
}

func TestStopIdempotent(t *testing.T) {
	// Never started: must not panic.
	newTestTransport("cat").Stop()

	tr := newTestTransport("cat")
	require.NoError(t, tr.Start(context.Background()))
	tr.Stop()
	tr.Stop()
	assert.False(t, tr.Running())
}

func TestSendAfterStop(t *testing.T) {
	tr := newTestTransport("cat")
	require.NoError(t, tr.Start(context.Background()))
	tr.Stop()

	err := tr.Send(Request{JSONRPC: "2.0", ID: 1, Method: "tools/list"})
	require.Error(t, err)
}

func TestEnvPassedToProcess(t *testing.T) {
	tr := NewStdioTransport("sh",
		[]string{"-c", `printf '{"jsonrpc":"2.0","id":1,"result":{"env":"%s"}}\n' "$DOCS_TEST_VAR"; sleep 1`},
		map[string]string{"DOCS_TEST_VAR": "hello"},
		zerolog.Nop())
	require.NoError(t, tr.Start(context.Background()))
	defer tr.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := tr.Receive(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(resp.Result), "hello")
}
