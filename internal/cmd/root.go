package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/docsrelay/aws-docs-agent/internal/config"
	"github.com/docsrelay/aws-docs-agent/internal/logging"
	"github.com/docsrelay/aws-docs-agent/internal/mcp"
)

var (
	configFile string
	envFile    string
	logLevel   string
	opTimeout  time.Duration
	version    = "dev" // Default version, overridden by SetVersion
)

var rootCmd = &cobra.Command{
	Use:     "docsagent",
	Short:   "AWS documentation assistant backed by MCP tool servers",
	Version: version,
	Long: `docsagent spawns AWS documentation and git MCP servers as local
subprocesses and exposes their tools directly (search, read, recommend,
git) or through an LLM chat agent that calls them on your behalf.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "config.toml", "Path to config file")
	pf.StringVar(&envFile, "env", "", "Path to .env file to load environment variables")
	pf.StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error); overrides config")
	pf.DurationVar(&opTimeout, "timeout", 30*time.Second, "Per-call timeout for MCP tool operations (0 disables)")
}

// setup loads the environment file and configuration and builds the root
// logger. Every subcommand calls it before touching a server.
func setup() (*config.Config, zerolog.Logger, error) {
	if envFile != "" {
		if err := loadEnvFile(envFile); err != nil {
			return nil, zerolog.Nop(), fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logging.New(os.Stderr, lvl)

	log.Debug().Str("config", configFile).Int("servers", len(cfg.Servers)).Msg("configuration loaded")
	return cfg, log, nil
}

// newServerClient builds an MCP client for the named configured server.
// The transport factory respawns the subprocess after a discarded
// session.
func newServerClient(cfg *config.Config, name string, log zerolog.Logger) (*mcp.Client, error) {
	sc, ok := cfg.Servers[name]
	if !ok {
		return nil, fmt.Errorf("server %q is not configured", name)
	}
	slog := log.With().Str("server", name).Logger()
	factory := func() mcp.Transport {
		t := mcp.NewStdioTransport(sc.Command, sc.Args, sc.Env, slog)
		if sc.WorkingDirectory != "" {
			t.SetWorkingDirectory(sc.WorkingDirectory)
		}
		return t
	}
	return mcp.NewClient("docsagent", version, factory, slog), nil
}

// opContext derives the per-call context from the --timeout flag.
func opContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if opTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, opTimeout)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// loadEnvFile reads a .env file and sets environment variables
func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := os.ExpandEnv(strings.TrimSpace(parts[1]))

		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	return scanner.Err()
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
