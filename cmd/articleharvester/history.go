package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently harvested articles (requires a database)",
	RunE:  runHistory,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of entries to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, _, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	entries, err := application.History(ctx, historyLimit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-14s  %s\n    %s\n", e.HarvestedAt.Format(time.DateTime), e.Status, e.Title, e.SourceURL)
	}
	return nil
}
