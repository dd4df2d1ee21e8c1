package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ArticleHarvester/internal/config"
	"ArticleHarvester/internal/domain"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Repeat a search periodically until interrupted",
	RunE:  runWatch,
}

var (
	watchQuery string
	watchMax   int
	watchEvery time.Duration
)

func init() {
	watchCmd.Flags().StringVarP(&watchQuery, "query", "q", "", "Search query (required)")
	watchCmd.Flags().IntVarP(&watchMax, "max", "n", 10, "Maximum number of articles per run")
	watchCmd.Flags().DurationVar(&watchEvery, "every", 0, "Interval between runs (overrides scheduler.interval)")

	if err := watchCmd.MarkFlagRequired("query"); err != nil {
		panic(fmt.Sprintf("failed to mark query flag as required: %v", err))
	}

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, logger, err := newApplication(ctx, func(cfg *config.Config) {
		if watchEvery > 0 {
			cfg.Scheduler.Interval = watchEvery
		}
	})
	if err != nil {
		return err
	}
	defer application.Close()

	logger.Info("watching", "query", watchQuery, "max", watchMax)
	return application.Watch(ctx, watchQuery, watchMax, func(batch domain.Batch) {
		printReport(cmd.OutOrStdout(), batch)
	})
}
