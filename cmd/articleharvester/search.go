package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ArticleHarvester/internal/domain"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one search and harvest the results",
	RunE:  runSearch,
}

var (
	searchQuery string
	searchMax   int
)

func init() {
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Search query (required)")
	searchCmd.Flags().IntVarP(&searchMax, "max", "n", 10, "Maximum number of articles to harvest")

	if err := searchCmd.MarkFlagRequired("query"); err != nil {
		panic(fmt.Sprintf("failed to mark query flag as required: %v", err))
	}

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, _, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	batch, err := application.Search(ctx, searchQuery, searchMax)
	printReport(cmd.OutOrStdout(), batch)
	if err != nil {
		return fmt.Errorf("search %q: %w", searchQuery, err)
	}
	return nil
}

// printReport writes the batch summary with one line per harvested article.
func printReport(w io.Writer, batch domain.Batch) {
	fmt.Fprintf(w, "Query: %s\n", batch.Query)
	fmt.Fprintf(w, "Attempted: %d  Succeeded: %d  Download only: %d\n",
		batch.Attempted, batch.Succeeded, batch.DownloadOnly)

	for _, record := range batch.Records {
		resource := "no document"
		if record.ResourceURL != "" {
			resource = string(record.ResourceOrigin)
		}
		fmt.Fprintf(w, "%02d  %-14s  %-14s  %s\n", record.Sequence, record.Status(), resource, record.Title)
		fmt.Fprintf(w, "    %s\n", record.Dir)
	}
}
