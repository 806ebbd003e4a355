package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docsrelay/aws-docs-agent/internal/awsdocs"
	"github.com/docsrelay/aws-docs-agent/internal/config"
)

var (
	searchService string
	searchLimit   int
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search AWS documentation",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchService, "service", "", "Restrict results to one AWS service (e.g. s3, lambda)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
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

	opts := awsdocs.SearchOptions{Limit: searchLimit}
	if searchService != "" {
		opts.ProductTypes = []string{searchService}
	}

	results, err := docs.Search(ctx, args[0], opts)
	if err != nil {
		return err
	}

	if searchJSON {
		return printJSON(cmd.OutOrStdout(), results)
	}

	w := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(w, "%2d. %s\n    %s\n", r.RankOrder, r.Title, r.URL)
		if r.Context != "" {
			fmt.Fprintf(w, "    %s\n", r.Context)
		}
	}
	return nil
}
