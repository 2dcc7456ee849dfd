// Package format defines the interface for bibliography format plugins.
package format

import (
	"io"

	"github.com/lehigh-university-libraries/bibtidy/bib"
)

// Format defines the interface that all format plugins must implement.
type Format interface {
	// Name returns the format identifier (e.g., "bibtex", "json")
	Name() string

	// Description returns a human-readable format description
	Description() string

	// Extensions returns file extensions associated with this format
	Extensions() []string

	// CanParse returns true if this format can parse the given input
	CanParse(peek []byte) bool
}

// Parser is a format that can parse input into a document.
type Parser interface {
	Format

	// Parse reads input and returns the parsed document.
	Parse(r io.Reader, opts *ParseOptions) (*bib.Document, error)
}

// Serializer is a format that can write a document to output.
type Serializer interface {
	Format

	// Serialize writes the document's entries to the output.
	Serialize(w io.Writer, doc *bib.Document, opts *SerializeOptions) error
}

// ParseOptions contains options for parsing.
type ParseOptions struct {
	// SourceName is an identifier for the source (for error messages)
	SourceName string
}

// SerializeOptions contains options for serialization.
type SerializeOptions struct {
	// Indent is the prefix written before each field line
	Indent string

	// Pretty enables pretty-printing (for JSON output)
	Pretty bool
}

// NewParseOptions creates ParseOptions with defaults.
func NewParseOptions() *ParseOptions {
	return &ParseOptions{}
}

// NewSerializeOptions creates SerializeOptions with defaults.
func NewSerializeOptions() *SerializeOptions {
	return &SerializeOptions{
		Indent: "  ",
		Pretty: true,
	}
}
