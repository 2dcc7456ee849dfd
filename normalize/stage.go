package normalize

import (
	"strings"

	"github.com/lehigh-university-libraries/bibtidy/bib"
	"github.com/lehigh-university-libraries/bibtidy/helpers"
)

// Stage is one in-place transformation of an entry. Stages are
// independent and can be composed in any order.
type Stage interface {
	Name() string
	Apply(e *bib.Entry)
}

var (
	_ Stage = (*FieldStage)(nil)
	_ Stage = (*PagesStage)(nil)
	_ Stage = (*NameStage)(nil)
)

// FieldStage lowercases types and field names and drops unwanted fields.
type FieldStage struct {
	// Drop applies to every entry.
	Drop DropSet
	// DropByType adds names for specific (lowercase) entry types.
	DropByType map[string]DropSet
}

// Name returns the stage identifier.
func (s *FieldStage) Name() string { return "fields" }

// Apply replaces e's type and fields with their normalized form.
func (s *FieldStage) Apply(e *bib.Entry) {
	*e = *Fields(e, s.dropFor(e.Type))
}

func (s *FieldStage) dropFor(entryType string) DropSet {
	extra, ok := s.DropByType[strings.ToLower(entryType)]
	if !ok {
		return s.Drop
	}
	return s.Drop.Union(extra)
}

// PagesStage normalizes the pages field.
type PagesStage struct{}

// Name returns the stage identifier.
func (s *PagesStage) Name() string { return "pages" }

// Apply rewrites the pages field when present.
func (s *PagesStage) Apply(e *bib.Entry) {
	if v, ok := e.Get("pages"); ok {
		e.Set("pages", Pages(v))
	}
}

// NameStage reformats person-name fields ("author", "editor") to
// "I. I. Family".
type NameStage struct {
	Fields []string
}

// Name returns the stage identifier.
func (s *NameStage) Name() string { return "names" }

// Apply reformats each configured field that is present. Absent or empty
// fields are left as they are.
func (s *NameStage) Apply(e *bib.Entry) {
	for _, name := range s.Fields {
		v, ok := e.Get(name)
		if !ok {
			continue
		}
		e.Set(name, helpers.FormatAuthors(v))
	}
}
