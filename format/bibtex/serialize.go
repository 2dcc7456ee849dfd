package bibtex

import (
	"fmt"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/bibtidy/bib"
	"github.com/lehigh-university-libraries/bibtidy/format"
)

// Serialize writes the document's entries as BibTeX, one blank line apart.
func (f *Format) Serialize(w io.Writer, doc *bib.Document, opts *format.SerializeOptions) error {
	indent := "  "
	if opts != nil && opts.Indent != "" {
		indent = opts.Indent
	}

	for i, entry := range doc.Entries {
		if _, err := io.WriteString(w, FormatEntry(entry, indent)); err != nil {
			return fmt.Errorf("writing entry %q: %w", entry.Key, err)
		}
		if i < len(doc.Entries)-1 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
	}

	return nil
}

// FormatEntry renders a single entry. Delimited values are written in
// braces, bare values as they were read.
func FormatEntry(entry *bib.Entry, indent string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "@%s{%s,\n", entry.Type, entry.Key)
	for _, field := range entry.Fields {
		if field.Bare {
			fmt.Fprintf(&sb, "%s%s = %s,\n", indent, field.Name, field.Value)
		} else {
			fmt.Fprintf(&sb, "%s%s = {%s},\n", indent, field.Name, field.Value)
		}
	}
	sb.WriteString("}\n")

	return sb.String()
}
