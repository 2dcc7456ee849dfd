// Package json provides a JSON output format for inspecting cleaned entries.
package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/lehigh-university-libraries/bibtidy/bib"
	"github.com/lehigh-university-libraries/bibtidy/format"
)

// Format implements JSON output.
type Format struct{}

var (
	_ format.Format     = (*Format)(nil)
	_ format.Serializer = (*Format)(nil)
)

// Name returns the format identifier.
func (f *Format) Name() string {
	return "json"
}

// Description returns a human-readable format description.
func (f *Format) Description() string {
	return "JSON array of entries (output only)"
}

// Extensions returns file extensions associated with this format.
func (f *Format) Extensions() []string {
	return []string{"json"}
}

// CanParse always returns false; the format is output only.
func (f *Format) CanParse(peek []byte) bool {
	return false
}

type jsonEntry struct {
	Type   string        `json:"type"`
	Key    string        `json:"key"`
	Fields orderedFields `json:"fields"`
}

// orderedFields marshals as a JSON object that keeps field order.
type orderedFields bib.Fields

func (fs orderedFields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range fs {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, field.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeString(&buf, field.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeString writes s as a JSON string without HTML escaping.
func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// Serialize writes the entries as a JSON array.
func (f *Format) Serialize(w io.Writer, doc *bib.Document, opts *format.SerializeOptions) error {
	entries := make([]jsonEntry, len(doc.Entries))
	for i, e := range doc.Entries {
		entries[i] = jsonEntry{Type: e.Type, Key: e.Key, Fields: orderedFields(e.Fields)}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if opts != nil && opts.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encoding entries: %w", err)
	}
	return nil
}

func init() {
	format.Register(&Format{})
}
