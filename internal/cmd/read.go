package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docsrelay/aws-docs-agent/internal/awsdocs"
	"github.com/docsrelay/aws-docs-agent/internal/config"
)

var (
	readMaxLength  int
	readStartIndex int
)

var readCmd = &cobra.Command{
	Use:   "read <url>",
	Short: "Read an AWS documentation page as markdown",
	Long: `Read fetches a docs.aws.amazon.com page through the documentation
server and prints it converted to markdown. Long pages can be fetched in
chunks with --max-length and --start-index.`,
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

func init() {
	readCmd.Flags().IntVar(&readMaxLength, "max-length", 0, "Maximum number of characters to return (0 for server default)")
	readCmd.Flags().IntVar(&readStartIndex, "start-index", 0, "Character offset to start reading from")
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	client, err := newServerClient(cfg, config.ServerAWSDocs, log)
	if err != nil {
		return err
	}
	docs := awsdocs.New(client)
	defer docs.Close()

	ctx, cancel := opContext(cmd.Context())
	defer cancel()

	content, err := docs.Read(ctx, args[0], readMaxLength, readStartIndex)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), content)
	return nil
}
