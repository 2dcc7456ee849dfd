// Package csl provides an output format plugin for CSL-JSON (Citation Style Language).
package csl

import (
	"github.com/lehigh-university-libraries/bibtidy/format"
)

// Version documents the CSL specification this implementation targets.
const Version = "1.0.2"

// Format implements the CSL-JSON format.
type Format struct{}

// Ensure Format implements the interfaces
var (
	_ format.Format     = (*Format)(nil)
	_ format.Serializer = (*Format)(nil)
)

// Name returns the format identifier.
func (f *Format) Name() string {
	return "csl"
}

// Description returns a human-readable format description.
func (f *Format) Description() string {
	return "CSL-JSON (Citation Style Language v" + Version + "), output only"
}

// Extensions returns file extensions associated with this format.
func (f *Format) Extensions() []string {
	return []string{"csl", "json"}
}

// CanParse always returns false; CSL-JSON is written, never read.
func (f *Format) CanParse(peek []byte) bool {
	return false
}

func init() {
	format.Register(&Format{})
}
