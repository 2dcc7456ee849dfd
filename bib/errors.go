package bib

import "fmt"

// MalformedEntryError reports structurally broken BibTeX input.
// It is fatal for the whole document.
type MalformedEntryError struct {
	// Offset is the byte offset in the input where the problem was found.
	Offset int
	Reason string
	// Source is the input name, when known.
	Source string
}

func (e *MalformedEntryError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: malformed entry at offset %d: %s", e.Source, e.Offset, e.Reason)
	}
	return fmt.Sprintf("malformed entry at offset %d: %s", e.Offset, e.Reason)
}
