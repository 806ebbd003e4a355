package mcptest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// docPage is one canned documentation page.
type docPage struct {
	Title   string
	URL     string
	Context string
	Body    string
}

var docPages = []docPage{
	{
		Title:   "Amazon S3 bucket policies",
		URL:     "https://docs.aws.amazon.com/AmazonS3/latest/userguide/bucket-policies.html",
		Context: "Use bucket policies to grant access permissions to your bucket and the objects in it.",
		Body: "# Bucket policies for Amazon S3\n\n" +
			"A bucket policy is a resource-based policy that you can use to grant access " +
			"permissions to your Amazon S3 bucket and the objects in it. Only the bucket " +
			"owner can associate a policy with a bucket.\n",
	},
	{
		Title:   "What is AWS Lambda?",
		URL:     "https://docs.aws.amazon.com/lambda/latest/dg/welcome.html",
		Context: "Lambda runs your code on a high-availability compute infrastructure.",
		Body: "# What is AWS Lambda?\n\n" +
			"Lambda is a compute service that runs your code in response to events and " +
			"automatically manages the compute resources.\n",
	},
	{
		Title:   "Amazon DynamoDB partition keys",
		URL:     "https://docs.aws.amazon.com/amazondynamodb/latest/developerguide/HowItWorks.Partitions.html",
		Context: "DynamoDB uses the partition key value as input to an internal hash function.",
		Body: "# Partitions and data distribution\n\n" +
			"DynamoDB stores data in partitions. A partition is an allocation of storage " +
			"for a table, backed by solid state drives.\n",
	},
}

// DocsServerConfig returns a server mimicking the AWS documentation MCP
// server: search_documentation, read_documentation and recommend over a
// small canned corpus. read_documentation honors max_length and
// start_index the way the hosted server does.
func DocsServerConfig() *ServerConfig {
	cfg := &ServerConfig{Name: "mock-aws-docs", Version: "1.0.0"}

	cfg.WithTool(ToolConfig{
		Name:        "search_documentation",
		Description: "Search AWS documentation",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"search_phrase": map[string]any{"type": "string"},
				"product_types": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"limit":         map[string]any{"type": "integer"},
			},
			"required": []string{"search_phrase"},
		},
		Handler: searchHandler,
	})

	cfg.WithTool(ToolConfig{
		Name:        "read_documentation",
		Description: "Read an AWS documentation page as markdown",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url":         map[string]any{"type": "string"},
				"max_length":  map[string]any{"type": "integer"},
				"start_index": map[string]any{"type": "integer"},
			},
			"required": []string{"url"},
		},
		Handler: readHandler,
	})

	cfg.WithTool(ToolConfig{
		Name:        "recommend",
		Description: "Get related documentation pages for a URL",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{"type": "string"},
			},
			"required": []string{"url"},
		},
		Handler: recommendHandler,
	})

	return cfg
}

func searchHandler(args map[string]any) (string, error) {
	phrase, _ := args["search_phrase"].(string)
	if phrase == "" {
		return "", fmt.Errorf("search_phrase is required")
	}

	limit := len(docPages)
	if n, ok := args["limit"].(float64); ok && int(n) > 0 {
		limit = int(n)
	}

	// Phrase terms match against title and context, any term suffices.
	terms := strings.Fields(strings.ToLower(phrase))
	var results []map[string]any
	rank := 1
	for _, page := range docPages {
		haystack := strings.ToLower(page.Title + " " + page.Context)
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				results = append(results, map[string]any{
					"rank_order": rank,
					"url":        page.URL,
					"title":      page.Title,
					"context":    page.Context,
				})
				rank++
				break
			}
		}
		if len(results) >= limit {
			break
		}
	}

	payload, err := json.Marshal(map[string]any{"search_results": results})
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func readHandler(args map[string]any) (string, error) {
	url, _ := args["url"].(string)
	if url == "" {
		return "", fmt.Errorf("url is required")
	}

	var body string
	for _, page := range docPages {
		if page.URL == url {
			body = page.Body
			break
		}
	}
	if body == "" {
		return "", fmt.Errorf("page not found: %s", url)
	}

	start := 0
	if n, ok := args["start_index"].(float64); ok && int(n) > 0 {
		start = int(n)
	}
	if start >= len(body) {
		return "", nil
	}
	body = body[start:]

	if n, ok := args["max_length"].(float64); ok && int(n) > 0 && int(n) < len(body) {
		body = body[:int(n)]
	}
	return body, nil
}

func recommendHandler(args map[string]any) (string, error) {
	url, _ := args["url"].(string)
	if url == "" {
		return "", fmt.Errorf("url is required")
	}

	// Every other page in the corpus is "related".
	var recs []map[string]any
	for _, page := range docPages {
		if page.URL == url {
			continue
		}
		recs = append(recs, map[string]any{
			"url":     page.URL,
			"title":   page.Title,
			"context": page.Context,
		})
	}

	payload, err := json.Marshal(map[string]any{"recommendations": recs})
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// GitServerConfig returns a server mimicking the git MCP server with
// static but plausible command output.
func GitServerConfig() *ServerConfig {
	repoSchema := func(extra map[string]any) map[string]any {
		props := map[string]any{
			"repo_path": map[string]any{"type": "string"},
		}
		for k, v := range extra {
			props[k] = v
		}
		return map[string]any{"type": "object", "properties": props}
	}

	cfg := &ServerConfig{Name: "mock-git", Version: "1.0.0"}

	cfg.WithTool(ToolConfig{
		Name:        "git_status",
		Description: "Show the working tree status",
		InputSchema: repoSchema(nil),
		Handler: func(args map[string]any) (string, error) {
			return "On branch main\nnothing to commit, working tree clean", nil
		},
	})

	cfg.WithTool(ToolConfig{
		Name:        "git_log",
		Description: "Show recent commits",
		InputSchema: repoSchema(map[string]any{
			"max_count": map[string]any{"type": "integer"},
		}),
		Handler: func(args map[string]any) (string, error) {
			commits := []string{
				"commit aaa111 Initial import",
				"commit bbb222 Add search command",
				"commit ccc333 Wire chat agent",
			}
			if n, ok := args["max_count"].(float64); ok && int(n) > 0 && int(n) < len(commits) {
				commits = commits[:int(n)]
			}
			return strings.Join(commits, "\n"), nil
		},
	})

	cfg.WithTool(ToolConfig{
		Name:        "git_diff",
		Description: "Show changes in the working tree",
		InputSchema: repoSchema(map[string]any{
			"cached": map[string]any{"type": "boolean"},
		}),
		Handler: func(args map[string]any) (string, error) {
			if cached, _ := args["cached"].(bool); cached {
				return "diff --git a/staged.txt b/staged.txt\n+staged change", nil
			}
			return "diff --git a/file.txt b/file.txt\n+unstaged change", nil
		},
	})

	return cfg
}
