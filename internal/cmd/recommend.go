package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docsrelay/aws-docs-agent/internal/awsdocs"
	"github.com/docsrelay/aws-docs-agent/internal/config"
)

var recommendJSON bool

var recommendCmd = &cobra.Command{
	Use:   "recommend <url>",
	Short: "Get related AWS documentation pages for a URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecommend,
}

func init() {
	recommendCmd.Flags().BoolVar(&recommendJSON, "json", false, "Print recommendations as JSON")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
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

	recs, err := docs.Recommend(ctx, args[0])
	if err != nil {
		return err
	}

	if recommendJSON {
		return printJSON(cmd.OutOrStdout(), recs)
	}

	w := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(w, "No recommendations found.")
		return nil
	}
	for _, r := range recs {
		fmt.Fprintf(w, "- %s\n  %s\n", r.Title, r.URL)
		if r.Context != "" {
			fmt.Fprintf(w, "  %s\n", r.Context)
		}
	}
	return nil
}
