package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bibtidy/config"
	"github.com/lehigh-university-libraries/bibtidy/doi"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached Crossref responses",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached Crossref responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := config.CacheDir()
		if err != nil {
			return err
		}

		cache, err := doi.NewCache(dir, doi.DefaultCacheTTL)
		if err != nil {
			return err
		}
		if err := cache.Clear(); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", cache.Dir)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
}
