package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bibtidy/config"
	"github.com/lehigh-university-libraries/bibtidy/doi"
	"github.com/lehigh-university-libraries/bibtidy/format"
	"github.com/lehigh-university-libraries/bibtidy/pipeline"

	// Register format plugins
	_ "github.com/lehigh-university-libraries/bibtidy/format/bibtex"
	_ "github.com/lehigh-university-libraries/bibtidy/format/csl"
	_ "github.com/lehigh-university-libraries/bibtidy/format/json"
)

var (
	inputFile  string
	outputFile string
	configFile string
	dropFields []string
	noLookup   bool
	timeout    float64
	workers    int
	mailto     string
	toFormat   string
	strict     bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean a BibTeX file",
	Long: `Clean a BibTeX file: lowercase types and field names, drop unwanted
fields, reformat author and editor names, normalize page ranges and fill
in missing DOIs.

Input defaults to stdin, output defaults to stdout. Entries whose DOI
lookup failed are still written, without a doi, and listed on stderr.

Examples:
  # Clean a file in place
  bibtidy clean -i refs.bib -o refs.bib

  # Skip Crossref and drop extra fields
  cat refs.bib | bibtidy clean --no-lookup --drop note,file

  # Inspect the cleaned entries as JSON
  bibtidy clean -i refs.bib --to json --no-lookup

  # Fail when any lookup could not complete
  bibtidy clean -i refs.bib --strict --mailto me@example.org`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file (default: stdin)")
	cleanCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cleanCmd.Flags().StringVar(&configFile, "config", "", "Config file (default: ~/.bibtidy/config.yaml)")
	cleanCmd.Flags().StringSliceVar(&dropFields, "drop", nil, "Fields to drop, replacing fields_to_drop")
	cleanCmd.Flags().BoolVar(&noLookup, "no-lookup", false, "Do not look up missing DOIs")
	cleanCmd.Flags().Float64Var(&timeout, "timeout", 0, "Per-lookup timeout in seconds")
	cleanCmd.Flags().IntVar(&workers, "workers", 0, "Concurrent DOI lookups")
	cleanCmd.Flags().StringVar(&mailto, "mailto", "", "Contact e-mail sent to Crossref")
	cleanCmd.Flags().StringVar(&toFormat, "to", "bibtex", "Output format ("+strings.Join(format.Serializers(), ", ")+")")
	cleanCmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any DOI lookup fails")
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	doc, err := readDocument(inputFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Parsed %d entries\n", len(doc.Entries))

	var lookup doi.Lookuper
	if cfg.LookupEnabled {
		lookup = newCrossrefClient(cfg)
	}

	start := time.Now()
	result := pipeline.New(cfg, lookup).Run(cmd.Context(), doc)

	if err := writeDocument(result.Document, outputFile, toFormat); err != nil {
		return err
	}

	if result.Lookup != nil {
		slog.Info("doi backfill",
			"filled", result.Lookup.Count(doi.OutcomeFilled),
			"notFound", result.Lookup.Count(doi.OutcomeNotFound),
			"alreadyPresent", result.Lookup.Count(doi.OutcomeHasDOI),
			"noTitle", result.Lookup.Count(doi.OutcomeNoTitle),
			"failed", len(result.Failures()),
			"duration", time.Since(start))
	}

	failures := result.Failures()
	if len(failures) > 0 {
		fmt.Fprintf(os.Stderr, "DOI lookup unavailable for %d entries:\n", len(failures))
		for _, f := range failures {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", f.Key, f.Err)
		}
		if strict {
			return fmt.Errorf("%d DOI lookups failed", len(failures))
		}
	}

	return nil
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("drop") {
		cfg.FieldsToDrop = dropFields
	}
	if noLookup {
		cfg.LookupEnabled = false
	}
	if flags.Changed("timeout") {
		cfg.LookupTimeoutSeconds = timeout
	}
	if flags.Changed("workers") {
		cfg.LookupWorkers = workers
	}
	if flags.Changed("mailto") {
		cfg.LookupMailto = mailto
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newCrossrefClient builds the Crossref client described by cfg. The
// response cache is skipped with a warning when it cannot be created.
func newCrossrefClient(cfg *config.Config) *doi.CrossrefClient {
	client := doi.NewCrossrefClient(cfg.LookupMailto, cfg.LookupRate, cfg.LookupMaxRetries)
	if !cfg.CacheEnabled {
		return client
	}

	dir, err := config.CacheDir()
	if err == nil {
		client.Cache, err = doi.NewCache(dir, cfg.CacheTTL())
	}
	if err != nil {
		slog.Warn("lookup cache disabled", "error", err)
	}
	return client
}
