// Package awsdocs wraps an MCP client session against the AWS
// documentation server, exposing typed search, read and recommend
// operations.
package awsdocs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/docsrelay/aws-docs-agent/internal/mcp"
)

// Tool names exposed by the AWS documentation MCP server.
const (
	toolSearch    = "search_documentation"
	toolRead      = "read_documentation"
	toolRecommend = "recommend"
)

// session is the slice of mcp.Client the docs client needs.
type session interface {
	ListTools(ctx context.Context) ([]mcp.Tool, error)
	CallTool(ctx context.Context, name string, arguments map[string]any) (*mcp.ToolResult, error)
	Disconnect()
}

// SearchResult is one entry of a documentation search, ordered by rank.
type SearchResult struct {
	RankOrder int    `json:"rank_order"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Context   string `json:"context,omitempty"`
}

// Recommendation is one related-page suggestion for a documentation URL.
type Recommendation struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Context string `json:"context,omitempty"`
}

// SearchOptions narrow a documentation search. Zero values are omitted
// from the tool arguments.
type SearchOptions struct {
	// ProductTypes restricts the search to specific AWS services.
	ProductTypes []string
	// Limit caps the number of returned results.
	Limit int
}

// Client issues documentation operations over an MCP session.
type Client struct {
	session session
}

// New wraps an MCP client session. The caller keeps ownership of the
// session's lifecycle; Close is a convenience passthrough.
func New(s session) *Client {
	return &Client{session: s}
}

// Close disconnects the underlying session. Safe to call repeatedly.
func (c *Client) Close() { c.session.Disconnect() }

// Tools returns the server's tool descriptors.
func (c *Client) Tools(ctx context.Context) ([]mcp.Tool, error) {
	return c.session.ListTools(ctx)
}

// Search queries the AWS documentation index and returns the ordered
// result list.
func (c *Client) Search(ctx context.Context, phrase string, opts SearchOptions) ([]SearchResult, error) {
	args := map[string]any{"search_phrase": phrase}
	if len(opts.ProductTypes) > 0 {
		args["product_types"] = opts.ProductTypes
	}
	if opts.Limit > 0 {
		args["limit"] = opts.Limit
	}

	result, err := c.session.CallTool(ctx, toolSearch, args)
	if err != nil {
		return nil, err
	}
	return decodeSearchPayload(result.Text())
}

// Read fetches one documentation page as markdown. maxLength and
// startIndex are passed through to the server when positive; the server
// returns at most maxLength characters starting at startIndex.
func (c *Client) Read(ctx context.Context, url string, maxLength, startIndex int) (string, error) {
	args := map[string]any{"url": url}
	if maxLength > 0 {
		args["max_length"] = maxLength
	}
	if startIndex > 0 {
		args["start_index"] = startIndex
	}

	result, err := c.session.CallTool(ctx, toolRead, args)
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

// Recommend returns related pages for a documentation URL.
func (c *Client) Recommend(ctx context.Context, url string) ([]Recommendation, error) {
	result, err := c.session.CallTool(ctx, toolRecommend, map[string]any{"url": url})
	if err != nil {
		return nil, err
	}

	text := result.Text()
	var recs []Recommendation
	if err := json.Unmarshal([]byte(text), &recs); err == nil {
		return recs, nil
	}
	var wrapped struct {
		Recommendations []Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(text), &wrapped); err == nil && wrapped.Recommendations != nil {
		return wrapped.Recommendations, nil
	}
	return nil, &mcp.ProtocolError{Reason: fmt.Sprintf("unexpected recommend payload: %.120s", text)}
}

// decodeSearchPayload handles the two shapes the server emits: a bare
// JSON array of results, or an object wrapping it under
// "search_results".
func decodeSearchPayload(text string) ([]SearchResult, error) {
	var results []SearchResult
	if err := json.Unmarshal([]byte(text), &results); err == nil {
		return results, nil
	}
	var wrapped struct {
		SearchResults []SearchResult `json:"search_results"`
	}
	if err := json.Unmarshal([]byte(text), &wrapped); err == nil && wrapped.SearchResults != nil {
		return wrapped.SearchResults, nil
	}
	return nil, &mcp.ProtocolError{Reason: fmt.Sprintf("unexpected search payload: %.120s", text)}
}
