// Package bib defines the in-memory model of a BibTeX bibliography.
package bib

import "strings"

// Field is a single name/value pair of an entry.
type Field struct {
	Name  string
	Value string

	// Bare is set for values written without delimiters (year = 2020, month = jan).
	Bare bool
}

// Fields is an ordered list of fields. Lookups are case-insensitive.
type Fields []Field

// Index returns the position of the named field, or -1.
func (fs Fields) Index(name string) int {
	for i, f := range fs {
		if strings.EqualFold(f.Name, name) {
			return i
		}
	}
	return -1
}

// Get returns the value of the named field.
func (fs Fields) Get(name string) (string, bool) {
	if i := fs.Index(name); i >= 0 {
		return fs[i].Value, true
	}
	return "", false
}

// Value returns the value of the named field, or "" when absent.
func (fs Fields) Value(name string) string {
	v, _ := fs.Get(name)
	return v
}

// Has reports whether the named field is present with a non-blank value.
func (fs Fields) Has(name string) bool {
	v, ok := fs.Get(name)
	return ok && strings.TrimSpace(v) != ""
}

// Names returns the field names in order.
func (fs Fields) Names() []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}

// Entry is one bibliographic record: @type{key, name = value, ...}.
type Entry struct {
	Type   string
	Key    string
	Fields Fields

	// Offset is the byte offset of the entry's '@' in the source text.
	Offset int
}

// Get returns the value of the named field.
func (e *Entry) Get(name string) (string, bool) {
	return e.Fields.Get(name)
}

// Set replaces the value of an existing field, keeping its position,
// name and delimiter style, or appends a new braced field.
func (e *Entry) Set(name, value string) {
	if i := e.Fields.Index(name); i >= 0 {
		e.Fields[i].Value = value
		return
	}
	e.Fields = append(e.Fields, Field{Name: name, Value: value})
}

// SetField replaces the value and delimiter style of an existing field,
// keeping its position, or appends f.
func (e *Entry) SetField(f Field) {
	if i := e.Fields.Index(f.Name); i >= 0 {
		e.Fields[i].Value = f.Value
		e.Fields[i].Bare = f.Bare
		return
	}
	e.Fields = append(e.Fields, f)
}

// Delete removes the named field. It reports whether a field was removed.
func (e *Entry) Delete(name string) bool {
	i := e.Fields.Index(name)
	if i < 0 {
		return false
	}
	e.Fields = append(e.Fields[:i], e.Fields[i+1:]...)
	return true
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	c.Fields = make(Fields, len(e.Fields))
	copy(c.Fields, e.Fields)
	return &c
}

// Document is a parsed bibliography.
type Document struct {
	// Source identifies the input (file name or "stdin") for messages.
	Source  string
	Entries []*Entry
}

// Keys returns the citation keys in document order.
func (d *Document) Keys() []string {
	keys := make([]string, len(d.Entries))
	for i, e := range d.Entries {
		keys[i] = e.Key
	}
	return keys
}
