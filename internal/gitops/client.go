// Package gitops wraps an MCP client session against the git
// operations server.
package gitops

import (
	"context"

	"github.com/docsrelay/aws-docs-agent/internal/mcp"
)

type session interface {
	ListTools(ctx context.Context) ([]mcp.Tool, error)
	CallTool(ctx context.Context, name string, arguments map[string]any) (*mcp.ToolResult, error)
	Disconnect()
}

// Client issues git operations over an MCP session. All operations
// accept an optional repository path; when empty the server uses its
// own working directory.
type Client struct {
	session session
}

// New wraps an MCP client session.
func New(s session) *Client {
	return &Client{session: s}
}

// Close disconnects the underlying session. Safe to call repeatedly.
func (c *Client) Close() { c.session.Disconnect() }

// Tools returns the server's tool descriptors.
func (c *Client) Tools(ctx context.Context) ([]mcp.Tool, error) {
	return c.session.ListTools(ctx)
}

// Status reports working-tree state: modified, staged and untracked
// files.
func (c *Client) Status(ctx context.Context, repoPath string) (string, error) {
	return c.call(ctx, "git_status", withRepo(repoPath, nil))
}

// Log returns up to maxCount commits, newest first.
func (c *Client) Log(ctx context.Context, repoPath string, maxCount int) (string, error) {
	args := map[string]any{}
	if maxCount > 0 {
		args["max_count"] = maxCount
	}
	return c.call(ctx, "git_log", withRepo(repoPath, args))
}

// Diff shows unstaged changes, or staged ones when cached is set.
func (c *Client) Diff(ctx context.Context, repoPath string, cached bool) (string, error) {
	return c.call(ctx, "git_diff", withRepo(repoPath, map[string]any{"cached": cached}))
}

// Add stages the given files.
func (c *Client) Add(ctx context.Context, repoPath string, files []string) (string, error) {
	return c.call(ctx, "git_add", withRepo(repoPath, map[string]any{"files": files}))
}

// Commit records staged changes with the given message.
func (c *Client) Commit(ctx context.Context, repoPath, message string) (string, error) {
	return c.call(ctx, "git_commit", withRepo(repoPath, map[string]any{"message": message}))
}

func (c *Client) call(ctx context.Context, tool string, args map[string]any) (string, error) {
	result, err := c.session.CallTool(ctx, tool, args)
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

func withRepo(repoPath string, args map[string]any) map[string]any {
	if args == nil {
		args = map[string]any{}
	}
	if repoPath != "" {
		args["repo_path"] = repoPath
	}
	return args
}
