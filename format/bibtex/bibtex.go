// Package bibtex provides a format plugin for BibTeX bibliography files.
package bibtex

import (
	"regexp"

	"github.com/lehigh-university-libraries/bibtidy/format"
)

// Format implements the BibTeX format.
type Format struct{}

// Ensure Format implements the interfaces
var (
	_ format.Format     = (*Format)(nil)
	_ format.Parser     = (*Format)(nil)
	_ format.Serializer = (*Format)(nil)
)

// entryHeaderRegex matches the start of an entry such as "@Article{".
var entryHeaderRegex = regexp.MustCompile(`(?m)^\s*@[A-Za-z][\w-]*\s*\{`)

// Name returns the format identifier.
func (f *Format) Name() string {
	return "bibtex"
}

// Description returns a human-readable format description.
func (f *Format) Description() string {
	return "BibTeX bibliography format"
}

// Extensions returns file extensions associated with this format.
func (f *Format) Extensions() []string {
	return []string{"bib", "bibtex"}
}

// CanParse returns true if the input looks like BibTeX.
func (f *Format) CanParse(peek []byte) bool {
	return entryHeaderRegex.Match(peek)
}

func init() {
	format.Register(&Format{})
}
