package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docsrelay/aws-docs-agent/internal/config"
	"github.com/docsrelay/aws-docs-agent/internal/gitops"
)

var (
	gitRepo     string
	gitMaxCount int
	gitCached   bool
)

var gitCmd = &cobra.Command{
	Use:   "git",
	Short: "Run git operations through the git MCP server",
}

var gitStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the working tree status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGit(cmd, func(g *gitops.Client) (string, error) {
			ctx, cancel := opContext(cmd.Context())
			defer cancel()
			return g.Status(ctx, gitRepo)
		})
	},
}

var gitLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent commits",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGit(cmd, func(g *gitops.Client) (string, error) {
			ctx, cancel := opContext(cmd.Context())
			defer cancel()
			return g.Log(ctx, gitRepo, gitMaxCount)
		})
	},
}

var gitDiffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show unstaged changes (or staged with --cached)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGit(cmd, func(g *gitops.Client) (string, error) {
			ctx, cancel := opContext(cmd.Context())
			defer cancel()
			return g.Diff(ctx, gitRepo, gitCached)
		})
	},
}

func init() {
	gitCmd.PersistentFlags().StringVar(&gitRepo, "repo", "", "Repository path (defaults to the server's working directory)")
	gitLogCmd.Flags().IntVar(&gitMaxCount, "max-count", 10, "Maximum number of commits to show")
	gitDiffCmd.Flags().BoolVar(&gitCached, "cached", false, "Show staged changes instead of unstaged")

	gitCmd.AddCommand(gitStatusCmd, gitLogCmd, gitDiffCmd)
	rootCmd.AddCommand(gitCmd)
}

func runGit(cmd *cobra.Command, op func(*gitops.Client) (string, error)) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	client, err := newServerClient(cfg, config.ServerGit, log)
	if err != nil {
		return err
	}
	git := gitops.New(client)
	defer git.Close()

	out, err := op(git)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
