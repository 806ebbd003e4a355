// Package mcptest provides configurable in-process MCP servers for
// exercising the client stack offline. The servers are built on the
// official SDK and can be attached to in-memory transports (tests) or
// stdio (the mockdocs binary).
package mcptest

import (
	"context"
	"encoding/json"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ServerConfig describes a test MCP server.
type ServerConfig struct {
	Name    string
	Version string
	Tools   []ToolConfig
}

// ToolConfig defines one tool the test server exposes.
type ToolConfig struct {
	Name        string
	Description string
	InputSchema map[string]any
	// Handler produces the tool result text. A returned error becomes
	// an isError tool result, not a protocol failure.
	Handler func(args map[string]any) (string, error)
}

// WithTool appends a tool to the configuration.
func (c *ServerConfig) WithTool(tool ToolConfig) *ServerConfig {
	c.Tools = append(c.Tools, tool)
	return c
}

// Server is a configurable MCP test server.
type Server struct {
	config *ServerConfig
	server *sdk.Server
}

// NewServer builds the SDK server with the configured tools registered.
func NewServer(config *ServerConfig) *Server {
	impl := &sdk.Implementation{
		Name:    config.Name,
		Version: config.Version,
	}
	server := sdk.NewServer(impl, nil)

	for _, toolCfg := range config.Tools {
		tool := toolCfg // Capture for closure
		server.AddTool(&sdk.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}, func(ctx context.Context, req *sdk.CallToolRequest) (*sdk.CallToolResult, error) {
			var args map[string]any
			if len(req.Params.Arguments) > 0 {
				if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
					return errorResult(fmt.Sprintf("failed to parse arguments: %v", err)), nil
				}
			}

			text, err := tool.Handler(args)
			if err != nil {
				return errorResult(err.Error()), nil
			}
			return &sdk.CallToolResult{
				Content: []sdk.Content{&sdk.TextContent{Text: text}},
			}, nil
		})
	}

	return &Server{config: config, server: server}
}

func errorResult(text string) *sdk.CallToolResult {
	return &sdk.CallToolResult{
		IsError: true,
		Content: []sdk.Content{&sdk.TextContent{Text: text}},
	}
}

// Run serves the configured server over the given transport until ctx
// is cancelled or the peer disconnects.
func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.server.Run(ctx, transport)
}

// RunStdio serves over the process's stdin/stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// Connect wires the server to an in-memory transport pair and returns
// the client end. The server side runs in a goroutine until ctx ends.
func (s *Server) Connect(ctx context.Context) sdk.Transport {
	serverTransport, clientTransport := sdk.NewInMemoryTransports()
	go func() {
		_ = s.server.Run(ctx, serverTransport)
	}()
	return clientTransport
}
