// Package cmd provides CLI commands for bibtidy.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bibtidy/config"
)

var configDir string

func setupLogger() {
	logLevel := strings.ToUpper(os.Getenv("LOG_LEVEL"))
	if logLevel == "" {
		logLevel = "INFO"
	}

	var level slog.Level
	switch logLevel {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	logger := slog.New(handler)

	slog.SetDefault(logger)
}

var rootCmd = &cobra.Command{
	Use:   "bibtidy",
	Short: "Clean and normalize BibTeX bibliographies",
	Long: `Bibtidy cleans BibTeX files for publication.

It lowercases entry types and field names, drops unwanted fields,
reformats author and editor names as "I. I. Family", normalizes page
ranges and fills in missing DOIs from Crossref.

Examples:
  bibtidy clean -i refs.bib -o refs.clean.bib
  cat refs.bib | bibtidy clean --no-lookup
  bibtidy validate -i refs.bib
  bibtidy doi "Attention Is All You Need" --author Vaswani`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configDir != "" {
			config.SetConfigDir(configDir)
		}
	},
}

// Execute runs the root command. An interrupt cancels in-flight lookups.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	setupLogger()
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default: ~/.bibtidy)")
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(doiCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
}
