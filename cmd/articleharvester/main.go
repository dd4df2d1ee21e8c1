// Package main provides the articleharvester command line tool.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ArticleHarvester/internal/app"
	"ArticleHarvester/internal/config"
	"ArticleHarvester/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "articleharvester",
	Short:         "Harvest scholarly articles from a search query",
	Long:          "Searches an article repository, extracts title, text and abstract of every hit, downloads the article document when one can be located and writes a local digest.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var outputDir string

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputDir, "out", "o", "", "Output directory (overrides output.dir)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApplication loads configuration and builds the application for a subcommand.
func newApplication(ctx context.Context, overrides ...func(*config.Config)) (*app.Application, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	for _, override := range overrides {
		override(&cfg)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init application: %w", err)
	}
	return application, logger, nil
}
