// Package pipeline runs the cleaning stages over a parsed bibliography:
// field normalization, page ranges, author names and DOI backfill.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/bibtidy/bib"
	"github.com/lehigh-university-libraries/bibtidy/config"
	"github.com/lehigh-university-libraries/bibtidy/doi"
	"github.com/lehigh-university-libraries/bibtidy/normalize"
)

// Pipeline applies entry stages in order, then backfills DOIs.
type Pipeline struct {
	Stages []normalize.Stage

	// Backfiller is nil when lookups are disabled.
	Backfiller *doi.Backfiller
}

// Result is the outcome of a run.
type Result struct {
	Document *bib.Document

	// Lookup is nil when no backfill ran.
	Lookup *doi.Report
}

// Failures returns the entries whose DOI lookup failed, in document order.
func (r *Result) Failures() []*doi.LookupUnavailableError {
	if r.Lookup == nil {
		return nil
	}
	return r.Lookup.Failures
}

// New builds the pipeline described by cfg. lookup may be nil, which
// disables the backfill regardless of cfg.
func New(cfg *config.Config, lookup doi.Lookuper) *Pipeline {
	p := &Pipeline{
		Stages: []normalize.Stage{
			&normalize.FieldStage{
				Drop:       cfg.DropSet(),
				DropByType: cfg.TypeDropSets(),
			},
		},
	}
	if cfg.NormalizePages {
		p.Stages = append(p.Stages, &normalize.PagesStage{})
	}
	if len(cfg.NameFields) > 0 {
		p.Stages = append(p.Stages, &normalize.NameStage{Fields: cfg.NameFields})
	}

	if cfg.LookupEnabled && lookup != nil {
		p.Backfiller = &doi.Backfiller{
			Lookuper:     lookup,
			Workers:      cfg.LookupWorkers,
			Timeout:      cfg.LookupTimeout(),
			RelaxedTypes: cfg.LookupRelaxedTypes,
		}
	}
	return p
}

// Run cleans a copy of doc. The input document is not modified.
func (p *Pipeline) Run(ctx context.Context, doc *bib.Document) *Result {
	out := &bib.Document{
		Source:  doc.Source,
		Entries: make([]*bib.Entry, len(doc.Entries)),
	}
	for i, e := range doc.Entries {
		out.Entries[i] = e.Clone()
	}

	for _, stage := range p.Stages {
		start := time.Now()
		for _, e := range out.Entries {
			stage.Apply(e)
		}
		slog.Debug("stage complete", "stage", stage.Name(), "entries", len(out.Entries), "duration", time.Since(start))
	}

	result := &Result{Document: out}
	if p.Backfiller != nil {
		result.Lookup = p.Backfiller.Run(ctx, out.Entries)
	}
	return result
}
