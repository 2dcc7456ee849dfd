// Package doi fills in missing DOI fields by querying a bibliographic
// metadata service.
package doi

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by a Lookuper when the service answered but had
// no matching record. It is not a failure of the run.
var ErrNotFound = errors.New("doi not found")

// Query describes one lookup.
type Query struct {
	Title string

	// AuthorFamily narrows the search to the first author's family name.
	// Optional.
	AuthorFamily string

	// Exact requires the returned record's title to match Title after
	// folding. When false the best-scored record is accepted.
	Exact bool
}

// Lookuper resolves a title to a DOI. Implementations return ErrNotFound
// when no record matches and any other error when the service could not
// be reached or answered badly.
type Lookuper interface {
	Lookup(ctx context.Context, q Query) (string, error)
}

// LookupFunc adapts a plain function to the Lookuper interface.
type LookupFunc func(ctx context.Context, q Query) (string, error)

// Lookup calls f(ctx, q).
func (f LookupFunc) Lookup(ctx context.Context, q Query) (string, error) {
	return f(ctx, q)
}

// LookupUnavailableError reports that the DOI of one entry could not be
// determined because the lookup failed or timed out. The entry is left
// unchanged.
type LookupUnavailableError struct {
	Key string
	Err error
}

func (e *LookupUnavailableError) Error() string {
	return fmt.Sprintf("doi lookup unavailable for %q: %v", e.Key, e.Err)
}

func (e *LookupUnavailableError) Unwrap() error {
	return e.Err
}

// Retryable reports whether running the lookup again may succeed. Lookup
// failures are transport problems, so this is always true.
func (e *LookupUnavailableError) Retryable() bool {
	return true
}
