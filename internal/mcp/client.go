package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Transport carries JSON messages to and from an MCP server.
//
// Implementations are single-owner: one Client drives one Transport and
// serializes Send/Receive pairs.
type Transport interface {
	Start(ctx context.Context) error
	Send(msg any) error
	Receive(ctx context.Context) (*Response, error)
	Stop()
	Running() bool
}

// Client is an MCP client session over a Transport.
//
// A Client allows one outstanding request at a time. It performs no
// internal locking; callers either serialize calls or open separate
// clients. Transport failures are never retried. A *TimeoutError
// poisons the session: the process is torn down and the next call
// reconnects with a fresh one.
type Client struct {
	name      string
	version   string
	newT      func() Transport
	transport Transport
	nextID    int64
	tools     []Tool
	log       zerolog.Logger
}

// NewClient returns a disconnected client. name/version identify this
// client in the MCP initialize handshake. newTransport is invoked for
// every (re)connection so a poisoned session can be replaced wholesale.
func NewClient(name, version string, newTransport func() Transport, log zerolog.Logger) *Client {
	return &Client{
		name:    name,
		version: version,
		newT:    newTransport,
		log:     log.With().Str("component", "mcp-client").Str("server", name).Logger(),
	}
}

// Connected reports whether the client holds a live session.
func (c *Client) Connected() bool {
	return c.transport != nil && c.transport.Running()
}

// Connect starts the server process and performs the MCP initialize
// handshake. Connecting an already-connected client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	if c.Connected() {
		return nil
	}

	t := c.newT()
	if err := t.Start(ctx); err != nil {
		return err
	}
	c.transport = t
	c.nextID = 0

	params, err := json.Marshal(initializeParams{
		ProtocolVersion: protocolVersion,
		Capabilities: map[string]any{
			"roots": map[string]any{"listChanged": true},
		},
		ClientInfo: clientInfo{Name: c.name, Version: c.version},
	})
	if err != nil {
		c.reset()
		return fmt.Errorf("marshal initialize params: %w", err)
	}

	resp, err := c.roundTrip(ctx, "initialize", params)
	if err != nil {
		c.reset()
		return fmt.Errorf("initialize handshake: %w", err)
	}
	if resp.Error != nil {
		c.reset()
		return &ProtocolError{Reason: fmt.Sprintf("server rejected initialize: %s", resp.Error.Message)}
	}

	// The handshake completes with a fire-and-forget notification.
	if err := t.Send(Request{JSONRPC: "2.0", Method: "notifications/initialized"}); err != nil {
		c.reset()
		return fmt.Errorf("initialized notification: %w", err)
	}

	c.log.Info().Msg("connected to MCP server")
	return nil
}

// Disconnect stops the transport and drops the session state. Always a
// no-op on an unconnected or already-disconnected client; never fails.
func (c *Client) Disconnect() {
	if c.transport != nil {
		c.transport.Stop()
		c.transport = nil
	}
	c.tools = nil
}

// ListTools returns the server's tool descriptors in server order. The
// list is fetched once and cached for the session lifetime.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	if c.tools != nil {
		return c.tools, nil
	}

	resp, err := c.roundTrip(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, &ProtocolError{Reason: fmt.Sprintf("tools/list failed: %s", resp.Error.Message)}
	}
	var result listToolsResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, &ProtocolError{Reason: "malformed tools/list result", Err: err}
	}
	c.tools = result.Tools
	return c.tools, nil
}

// CallTool invokes the named tool and returns its result payload. A
// server-side failure is reported as *ToolError; the session survives.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (*ToolResult, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}

	params, err := json.Marshal(CallToolParams{Name: name, Arguments: arguments})
	if err != nil {
		return nil, fmt.Errorf("marshal tool arguments: %w", err)
	}

	resp, err := c.roundTrip(ctx, "tools/call", params)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, &ToolError{Tool: name, Code: resp.Error.Code, Message: resp.Error.Message}
	}
	var result ToolResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, &ProtocolError{Reason: "malformed tools/call result", Err: err}
	}
	if result.IsError {
		msg := result.Text()
		if msg == "" {
			msg = "tool reported an error without detail"
		}
		return nil, &ToolError{Tool: name, Message: msg}
	}
	return &result, nil
}

// roundTrip sends one request and reads until the response with the
// matching id arrives. Server notifications (no id) and responses to
// superseded requests are skipped. With calls serialized, the matching
// response is the next real response on the stream.
func (c *Client) roundTrip(ctx context.Context, method string, params json.RawMessage) (*Response, error) {
	c.nextID++
	id := c.nextID

	req := Request{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	c.log.Debug().Str("method", method).Int64("id", id).Msg("request")
	if err := c.transport.Send(req); err != nil {
		return nil, err
	}

	for {
		resp, err := c.transport.Receive(ctx)
		if err != nil {
			var te *TimeoutError
			if errors.As(err, &te) {
				c.log.Warn().Str("method", method).Msg("call timed out, discarding session")
				c.reset()
			}
			return nil, err
		}
		if resp.ID == 0 {
			// Notification; not addressed to any pending call.
			continue
		}
		if resp.ID != id {
			c.log.Debug().Int64("got", resp.ID).Int64("want", id).Msg("skipping stale response")
			continue
		}
		return resp, nil
	}
}

func (c *Client) reset() {
	if c.transport != nil {
		c.transport.Stop()
		c.transport = nil
	}
	c.tools = nil
}
