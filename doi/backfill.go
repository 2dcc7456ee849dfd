package doi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/bibtidy/bib"
	"github.com/lehigh-university-libraries/bibtidy/helpers"
)

// Outcome is what happened to one entry during a backfill run.
type Outcome string

const (
	OutcomeFilled      Outcome = "filled"
	OutcomeNotFound    Outcome = "not-found"
	OutcomeHasDOI      Outcome = "has-doi"
	OutcomeNoTitle     Outcome = "no-title"
	OutcomeUnavailable Outcome = "unavailable"
)

// Result records the outcome for one entry.
type Result struct {
	Key     string
	Outcome Outcome
	DOI     string
	Err     error
}

// Report collects per-entry results in document order.
type Report struct {
	Results  []Result
	Failures []*LookupUnavailableError
}

// Count returns the number of entries with the given outcome.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Backfiller looks up missing DOIs for a set of entries with bounded
// concurrency. A failed lookup only affects its own entry.
type Backfiller struct {
	Lookuper Lookuper

	// Workers bounds the number of lookups in flight (default 1).
	Workers int

	// Timeout limits each lookup. Zero means no per-lookup limit.
	Timeout time.Duration

	// RelaxedTypes lists entry types for which the best-scored record is
	// accepted without an exact title match.
	RelaxedTypes []string
}

// Run fills the doi field of every entry that lacks one and returns the
// per-entry report. Entries that already have a non-empty doi are never
// modified. Each entry is written only by its own task.
func (b *Backfiller) Run(ctx context.Context, entries []*bib.Entry) *Report {
	start := time.Now()
	results := make([]Result, len(entries))

	workers := b.Workers
	if workers <= 0 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, e := range entries {
		g.Go(func() error {
			results[i] = b.backfill(ctx, e)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{Results: results}
	for _, res := range results {
		if res.Outcome != OutcomeUnavailable {
			continue
		}
		var unavailable *LookupUnavailableError
		if errors.As(res.Err, &unavailable) {
			report.Failures = append(report.Failures, unavailable)
		}
	}

	slog.Debug("doi backfill complete",
		"entries", len(entries),
		"filled", report.Count(OutcomeFilled),
		"notFound", report.Count(OutcomeNotFound),
		"failed", len(report.Failures),
		"duration", time.Since(start))
	return report
}

func (b *Backfiller) backfill(ctx context.Context, e *bib.Entry) Result {
	res := Result{Key: e.Key}

	if e.Fields.Has("doi") {
		res.Outcome = OutcomeHasDOI
		res.DOI = e.Fields.Value("doi")
		return res
	}

	title := helpers.NormalizeWhitespace(helpers.StripBraces(e.Fields.Value("title")))
	if title == "" {
		res.Outcome = OutcomeNoTitle
		return res
	}

	q := Query{
		Title:        title,
		AuthorFamily: helpers.FirstAuthorFamily(e.Fields.Value("author")),
		Exact:        !b.relaxed(e.Type),
	}

	found, err := b.lookup(ctx, q)
	if err != nil || found == "" {
		// A blank doi counts as missing; an entry left without one drops it.
		e.Delete("doi")
	}
	switch {
	case errors.Is(err, ErrNotFound), err == nil && found == "":
		slog.Debug("doi not found", "key", e.Key, "title", title)
		res.Outcome = OutcomeNotFound
	case err != nil:
		slog.Debug("doi lookup failed", "key", e.Key, "error", err)
		res.Outcome = OutcomeUnavailable
		res.Err = &LookupUnavailableError{Key: e.Key, Err: err}
	default:
		e.Set("doi", found)
		res.Outcome = OutcomeFilled
		res.DOI = found
	}
	return res
}

// lookup runs one query under the per-lookup timeout. The deadline is
// enforced here as well, so a Lookuper that ignores its context still
// cannot hold a worker past the timeout.
func (b *Backfiller) lookup(ctx context.Context, q Query) (string, error) {
	if b.Timeout <= 0 {
		return b.Lookuper.Lookup(ctx, q)
	}

	lctx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()

	type answer struct {
		doi string
		err error
	}
	done := make(chan answer, 1)
	go func() {
		found, err := b.Lookuper.Lookup(lctx, q)
		done <- answer{found, err}
	}()

	select {
	case a := <-done:
		if a.err != nil && errors.Is(lctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("timed out after %s: %w", b.Timeout, a.err)
		}
		return a.doi, a.err
	case <-lctx.Done():
		if errors.Is(lctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("timed out after %s: %w", b.Timeout, lctx.Err())
		}
		return "", lctx.Err()
	}
}

func (b *Backfiller) relaxed(entryType string) bool {
	for _, t := range b.RelaxedTypes {
		if strings.EqualFold(t, entryType) {
			return true
		}
	}
	return false
}
