package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/docsrelay/aws-docs-agent/internal/mcp"
)

var (
	toolsServer string
	toolsJSON   bool
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools exposed by the configured MCP servers",
	Args:  cobra.NoArgs,
	RunE:  runTools,
}

func init() {
	toolsCmd.Flags().StringVar(&toolsServer, "server", "", "Only query the named server")
	toolsCmd.Flags().BoolVar(&toolsJSON, "json", false, "Print tool descriptors as JSON")
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	var names []string
	if toolsServer != "" {
		if _, ok := cfg.Servers[toolsServer]; !ok {
			return fmt.Errorf("server %q is not configured", toolsServer)
		}
		names = []string{toolsServer}
	} else {
		for name := range cfg.Servers {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	byServer := make(map[string][]mcp.Tool, len(names))
	for _, name := range names {
		client, err := newServerClient(cfg, name, log)
		if err != nil {
			return err
		}

		ctx, cancel := opContext(cmd.Context())
		tools, err := client.ListTools(ctx)
		cancel()
		client.Disconnect()
		if err != nil {
			return fmt.Errorf("server %q: %w", name, err)
		}
		byServer[name] = tools
	}

	if toolsJSON {
		return printJSON(cmd.OutOrStdout(), byServer)
	}

	w := cmd.OutOrStdout()
	for _, name := range names {
		fmt.Fprintf(w, "%s (%d tools)\n", name, len(byServer[name]))
		for _, t := range byServer[name] {
			fmt.Fprintf(w, "  %-30s %s\n", t.Name, t.Description)
		}
	}
	return nil
}
