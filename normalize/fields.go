// Package normalize holds the pure transformation stages applied to each entry.
package normalize

import (
	"sort"
	"strings"

	"github.com/lehigh-university-libraries/bibtidy/bib"
)

// DropSet is a set of field names to remove. Names are stored lowercased.
type DropSet map[string]struct{}

// NewDropSet builds a DropSet from field names in any case.
func NewDropSet(names ...string) DropSet {
	d := make(DropSet, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			d[name] = struct{}{}
		}
	}
	return d
}

// Contains reports whether name is in the set, ignoring case.
func (d DropSet) Contains(name string) bool {
	_, ok := d[strings.ToLower(name)]
	return ok
}

// Union returns a new set holding the names of d and other.
func (d DropSet) Union(other DropSet) DropSet {
	u := make(DropSet, len(d)+len(other))
	for name := range d {
		u[name] = struct{}{}
	}
	for name := range other {
		u[name] = struct{}{}
	}
	return u
}

// Names returns the sorted names in the set.
func (d DropSet) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fields returns a copy of e with the entry type and every field name
// lowercased and the fields named in drop removed. The citation key is
// never touched. Names that collide after lowercasing keep the first
// position and the last value.
func Fields(e *bib.Entry, drop DropSet) *bib.Entry {
	out := &bib.Entry{
		Type:   strings.ToLower(e.Type),
		Key:    e.Key,
		Offset: e.Offset,
		Fields: make(bib.Fields, 0, len(e.Fields)),
	}

	for _, f := range e.Fields {
		name := strings.ToLower(f.Name)
		if drop.Contains(name) {
			continue
		}
		out.SetField(bib.Field{Name: name, Value: f.Value, Bare: f.Bare})
	}

	return out
}
