// Package config loads the TOML configuration describing the MCP tool
// servers and the LLM settings.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Default server identifiers. The built-in defaults spawn the uvx
// distributions of the AWS documentation and git MCP servers.
const (
	ServerAWSDocs = "awsdocs"
	ServerGit     = "git"
)

// Config is the top-level configuration.
type Config struct {
	Servers  map[string]*ServerConfig `toml:"servers"`
	LLM      LLMConfig                `toml:"llm"`
	LogLevel string                   `toml:"log_level"`
}

// ServerConfig describes how one MCP server process is spawned.
type ServerConfig struct {
	Command          string            `toml:"command"`
	Args             []string          `toml:"args"`
	Env              map[string]string `toml:"env"`
	WorkingDirectory string            `toml:"working_directory"`
}

// LLMConfig holds the completion-endpoint settings for the agent. The
// API key is deliberately absent: it comes only from the OPENAI_API_KEY
// environment variable.
type LLMConfig struct {
	Model         string `toml:"model"`
	BaseURL       string `toml:"base_url"`
	MaxIterations int    `toml:"max_iterations"`
}

// Default returns the built-in configuration matching the hosted uvx
// server distributions.
func Default() *Config {
	return &Config{
		Servers: map[string]*ServerConfig{
			ServerAWSDocs: {
				Command: "uvx",
				Args:    []string{"awslabs.aws-documentation-mcp-server@latest"},
				Env:     map[string]string{"FASTMCP_LOG_LEVEL": "ERROR"},
			},
			ServerGit: {
				Command: "uvx",
				Args:    []string{"mcp-server-git"},
			},
		},
		LLM: LLMConfig{
			Model:         "gpt-4o-mini",
			MaxIterations: 5,
		},
		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a TOML file and validates it.
// Unset sections fall back to the built-in defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode TOML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load returns the configuration at path, or the defaults when path
// does not exist. An unreadable or invalid file is still an error.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return LoadFromFile(path)
}

// Validate rejects configurations that cannot possibly work.
func (c *Config) Validate() error {
	if len(c.Servers) == 0 {
		return fmt.Errorf("no MCP servers configured")
	}
	for name, s := range c.Servers {
		if s == nil || s.Command == "" {
			return fmt.Errorf("server %q: command must not be empty", name)
		}
	}
	if c.LLM.MaxIterations < 1 {
		return fmt.Errorf("llm.max_iterations must be at least 1, got %d", c.LLM.MaxIterations)
	}
	return nil
}

// APIKey returns the LLM API key from the environment. An empty value
// is a fatal startup condition for agent commands, reported before any
// network call.
func APIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}
