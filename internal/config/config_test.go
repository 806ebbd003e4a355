package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	aws, ok := cfg.Servers[ServerAWSDocs]
	require.True(t, ok)
	assert.Equal(t, "uvx", aws.Command)
	assert.Equal(t, []string{"awslabs.aws-documentation-mcp-server@latest"}, aws.Args)
	assert.Equal(t, "ERROR", aws.Env["FASTMCP_LOG_LEVEL"])

	git, ok := cfg.Servers[ServerGit]
	require.True(t, ok)
	assert.Equal(t, []string{"mcp-server-git"}, git.Args)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 5, cfg.LLM.MaxIterations)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

[llm]
model = "gpt-4o"
base_url = "http://localhost:11434/v1"
max_iterations = 8

[servers.awsdocs]
command = "/usr/local/bin/mockdocs"
args = ["--fixtures", "testdata"]

[servers.awsdocs.env]
FASTMCP_LOG_LEVEL = "DEBUG"

[servers.git]
command = "uvx"
args = ["mcp-server-git"]
working_directory = "/tmp/repo"
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "http://localhost:11434/v1", cfg.LLM.BaseURL)
	assert.Equal(t, 8, cfg.LLM.MaxIterations)

	aws := cfg.Servers[ServerAWSDocs]
	require.NotNil(t, aws)
	assert.Equal(t, "/usr/local/bin/mockdocs", aws.Command)
	assert.Equal(t, "DEBUG", aws.Env["FASTMCP_LOG_LEVEL"])
	assert.Equal(t, "/tmp/repo", cfg.Servers[ServerGit].WorkingDirectory)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Servers[ServerAWSDocs].Command, cfg.Servers[ServerAWSDocs].Command)
}

func TestLoadInvalidTOML(t *testing.T) {
	path := writeConfig(t, `[servers.awsdocs`)
	_, err := LoadFromFile(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "no servers",
			mutate:  func(c *Config) { c.Servers = nil },
			wantErr: "no MCP servers",
		},
		{
			name:    "empty command",
			mutate:  func(c *Config) { c.Servers["git"].Command = "" },
			wantErr: "command must not be empty",
		},
		{
			name:    "zero iterations",
			mutate:  func(c *Config) { c.LLM.MaxIterations = 0 },
			wantErr: "max_iterations",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
