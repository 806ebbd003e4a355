package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/docsrelay/aws-docs-agent/internal/agent"
	"github.com/docsrelay/aws-docs-agent/internal/awsdocs"
	"github.com/docsrelay/aws-docs-agent/internal/config"
	"github.com/docsrelay/aws-docs-agent/internal/gitops"
)

var (
	chatDemo          bool
	chatMaxIterations int
)

// demoQueries exercise the git and documentation tool paths without any
// typing.
var demoQueries = []string{
	"What is the current git status of this repository?",
	"Show me the last 3 commits in the git log",
	"Search AWS documentation for S3 bucket policies",
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with an LLM agent that can use the documentation and git tools",
	Long: `Chat runs a conversation loop against an OpenAI-compatible endpoint.
The model is given function-calling access to the AWS documentation and
git servers and decides when to call them. Requires OPENAI_API_KEY.

Inside the session, 'reset' clears the conversation history and 'exit'
or 'quit' ends it.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatDemo, "demo", false, "Run the built-in demo queries instead of reading from stdin")
	chatCmd.Flags().IntVar(&chatMaxIterations, "max-iterations", 0, "Maximum tool-calling rounds per message (0 uses config)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	docsMCP, err := newServerClient(cfg, config.ServerAWSDocs, log)
	if err != nil {
		return err
	}
	docs := awsdocs.New(docsMCP)
	defer docs.Close()

	gitMCP, err := newServerClient(cfg, config.ServerGit, log)
	if err != nil {
		return err
	}
	git := gitops.New(gitMCP)
	defer git.Close()

	registry := agent.NewRegistry()
	if err := agent.RegisterDocsTools(registry, docs); err != nil {
		return err
	}
	if err := agent.RegisterGitTools(registry, git); err != nil {
		return err
	}

	maxIterations := cfg.LLM.MaxIterations
	if chatMaxIterations > 0 {
		maxIterations = chatMaxIterations
	}

	a, err := agent.New(registry, agent.Options{
		APIKey:        config.APIKey(),
		BaseURL:       cfg.LLM.BaseURL,
		Model:         cfg.LLM.Model,
		MaxIterations: maxIterations,
		Log:           log,
	})
	if err != nil {
		return err
	}

	if chatDemo {
		return runDemo(cmd, a)
	}
	return runInteractive(cmd, a)
}

func runDemo(cmd *cobra.Command, a *agent.Agent) error {
	w := cmd.OutOrStdout()
	conv := agent.NewConversation("")

	for i, query := range demoQueries {
		fmt.Fprintf(w, "\nDemo query %d: %s\n\n", i+1, query)

		answer, err := a.Chat(cmd.Context(), conv, query)
		if err != nil && !errors.Is(err, agent.ErrIterationLimit) {
			return err
		}
		fmt.Fprintf(w, "Agent: %s\n", answer)

		// Each demo query starts from a clean slate.
		conv.Reset()
	}
	return nil
}

func runInteractive(cmd *cobra.Command, a *agent.Agent) error {
	w := cmd.OutOrStdout()
	interactive := term.IsTerminal(int(os.Stdin.Fd()))

	if interactive {
		fmt.Fprintln(w, "Chat with the AWS documentation and git agent.")
		fmt.Fprintln(w, "Type 'reset' to clear the conversation, 'exit' or 'quit' to leave.")
	}

	conv := agent.NewConversation("")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		if interactive {
			fmt.Fprint(w, "\nYou: ")
		}
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "exit", "quit":
			if interactive {
				fmt.Fprintln(w, "Goodbye!")
			}
			return nil
		case "reset":
			conv.Reset()
			if interactive {
				fmt.Fprintln(w, "Conversation history cleared.")
			}
			continue
		}

		answer, err := a.Chat(cmd.Context(), conv, input)
		if err != nil && !errors.Is(err, agent.ErrIterationLimit) {
			// The conversation survives a failed turn.
			fmt.Fprintf(w, "Error: %v\n", err)
			continue
		}
		fmt.Fprintf(w, "\nAgent: %s\n", answer)
	}
	return scanner.Err()
}
