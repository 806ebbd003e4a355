package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/docsrelay/aws-docs-agent/internal/awsdocs"
)

// DocsClient is the slice of the AWS documentation client the agent
// tools need.
type DocsClient interface {
	Search(ctx context.Context, phrase string, opts awsdocs.SearchOptions) ([]awsdocs.SearchResult, error)
	Read(ctx context.Context, url string, maxLength, startIndex int) (string, error)
	Recommend(ctx context.Context, url string) ([]awsdocs.Recommendation, error)
}

// GitClient is the slice of the git operations client the agent tools
// need.
type GitClient interface {
	Status(ctx context.Context, repoPath string) (string, error)
	Log(ctx context.Context, repoPath string, maxCount int) (string, error)
	Diff(ctx context.Context, repoPath string, cached bool) (string, error)
}

// RegisterDocsTools binds the AWS documentation operations to the
// registry under the names the model sees.
func RegisterDocsTools(r *Registry, docs DocsClient) error {
	defs := []ToolDefinition{
		{
			Name:        "search_aws_documentation",
			Description: "Search AWS documentation for information about AWS services, features, and best practices",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"search_phrase": map[string]any{
						"type":        "string",
						"description": "The search query for AWS documentation",
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximum number of results to return (optional)",
					},
				},
				"required": []string{"search_phrase"},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				phrase, _ := args["search_phrase"].(string)
				if phrase == "" {
					return "", fmt.Errorf("search_phrase is required")
				}
				results, err := docs.Search(ctx, phrase, awsdocs.SearchOptions{Limit: intArg(args, "limit")})
				if err != nil {
					return "", err
				}
				return marshalResult(results)
			},
		},
		{
			Name:        "read_aws_documentation",
			Description: "Read a specific AWS documentation page given its URL",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{
						"type":        "string",
						"description": "The URL of the AWS documentation page to read",
					},
					"max_length": map[string]any{
						"type":        "integer",
						"description": "Maximum length of content to return (optional)",
					},
					"start_index": map[string]any{
						"type":        "integer",
						"description": "Character offset to start reading from (optional)",
					},
				},
				"required": []string{"url"},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				url, _ := args["url"].(string)
				if url == "" {
					return "", fmt.Errorf("url is required")
				}
				return docs.Read(ctx, url, intArg(args, "max_length"), intArg(args, "start_index"))
			},
		},
		{
			Name:        "recommend_aws_documentation",
			Description: "Get related AWS documentation pages for a given documentation URL",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{
						"type":        "string",
						"description": "The URL of the AWS documentation page to get recommendations for",
					},
				},
				"required": []string{"url"},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				url, _ := args["url"].(string)
				if url == "" {
					return "", fmt.Errorf("url is required")
				}
				recs, err := docs.Recommend(ctx, url)
				if err != nil {
					return "", err
				}
				return marshalResult(recs)
			},
		},
	}
	return registerAll(r, defs)
}

// RegisterGitTools binds the git operations to the registry.
func RegisterGitTools(r *Registry, git GitClient) error {
	defs := []ToolDefinition{
		{
			Name:        "git_status",
			Description: "Get the current git status of the repository, showing modified, staged, and untracked files",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"repo_path": map[string]any{
						"type":        "string",
						"description": "Path to the git repository (optional, defaults to current directory)",
					},
				},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				repo, _ := args["repo_path"].(string)
				return git.Status(ctx, repo)
			},
		},
		{
			Name:        "git_log",
			Description: "Get the git commit history",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"max_count": map[string]any{
						"type":        "integer",
						"description": "Maximum number of commits to return (default: 10)",
					},
					"repo_path": map[string]any{
						"type":        "string",
						"description": "Path to the git repository (optional)",
					},
				},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				repo, _ := args["repo_path"].(string)
				maxCount := intArg(args, "max_count")
				if maxCount == 0 {
					maxCount = 10
				}
				return git.Log(ctx, repo, maxCount)
			},
		},
		{
			Name:        "git_diff",
			Description: "Get the git diff showing changes in the working directory or staged changes",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"cached": map[string]any{
						"type":        "boolean",
						"description": "If true, show staged changes; if false, show unstaged changes",
					},
					"repo_path": map[string]any{
						"type":        "string",
						"description": "Path to the git repository (optional)",
					},
				},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				repo, _ := args["repo_path"].(string)
				cached, _ := args["cached"].(bool)
				return git.Diff(ctx, repo, cached)
			},
		},
	}
	return registerAll(r, defs)
}

func registerAll(r *Registry, defs []ToolDefinition) error {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// intArg extracts an integer argument; JSON numbers decode as float64.
func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func marshalResult(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal tool result: %w", err)
	}
	return string(data), nil
}
