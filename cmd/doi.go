package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bibtidy/config"
	"github.com/lehigh-university-libraries/bibtidy/doi"
)

var (
	doiAuthor string
	doiExact  bool
)

var doiCmd = &cobra.Command{
	Use:   "doi <title>",
	Short: "Look up the DOI of a single title",
	Long: `Look up one title on Crossref and print its DOI.

Uses the lookup settings of the config file. With --exact the returned
record's title must match after folding case, braces and accents.

Examples:
  bibtidy doi "Attention Is All You Need"
  bibtidy doi "Deep Residual Learning for Image Recognition" --author He --exact`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDOI,
}

func init() {
	doiCmd.Flags().StringVar(&doiAuthor, "author", "", "First author's family name")
	doiCmd.Flags().BoolVar(&doiExact, "exact", false, "Require an exact title match")
}

func runDOI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client := newCrossrefClient(cfg)
	q := doi.Query{
		Title:        strings.Join(args, " "),
		AuthorFamily: doiAuthor,
		Exact:        doiExact,
	}

	ctx := cmd.Context()
	if t := cfg.LookupTimeout(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	found, err := client.Lookup(ctx, q)
	if errors.Is(err, doi.ErrNotFound) {
		return fmt.Errorf("no DOI found for %q", q.Title)
	}
	if err != nil {
		return fmt.Errorf("looking up %q: %w", q.Title, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), found)
	return nil
}
