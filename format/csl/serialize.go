package csl

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/bibtidy/bib"
	"github.com/lehigh-university-libraries/bibtidy/format"
	"github.com/lehigh-university-libraries/bibtidy/helpers"
)

// Serialize writes the document's entries as a CSL-JSON array.
func (f *Format) Serialize(w io.Writer, doc *bib.Document, opts *format.SerializeOptions) error {
	if opts == nil {
		opts = format.NewSerializeOptions()
	}

	items := make([]JSONItem, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		items = append(items, entryToItem(entry))
	}

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if opts.Pretty {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(items); err != nil {
		return fmt.Errorf("encoding csl-json: %w", err)
	}
	return nil
}

// entryToItem maps one BibTeX entry to a CSL item. The citation key
// becomes the item id.
func entryToItem(e *bib.Entry) JSONItem {
	value := func(name string) string {
		return helpers.NormalizeWhitespace(helpers.StripBraces(e.Fields.Value(name)))
	}

	item := JSONItem{
		ID:             e.Key,
		Type:           itemType(e),
		Title:          value("title"),
		Abstract:       value("abstract"),
		Language:       value("language"),
		DOI:            value("doi"),
		URL:            value("url"),
		ISBN:           value("isbn"),
		ISSN:           value("issn"),
		Publisher:      value("publisher"),
		PublisherPlace: value("address"),
		Edition:        value("edition"),
		Volume:         value("volume"),
		Issue:          value("number"),
		Page:           value("pages"),
		Note:           value("note"),
	}

	switch {
	case e.Fields.Has("journal"):
		item.ContainerTitle = value("journal")
	case e.Fields.Has("booktitle"):
		item.ContainerTitle = value("booktitle")
	}
	if item.Publisher == "" {
		// Theses and reports name an institution instead of a publisher.
		for _, name := range []string{"school", "institution", "organization"} {
			if e.Fields.Has(name) {
				item.Publisher = value(name)
				break
			}
		}
	}

	item.Author = names(e.Fields.Value("author"))
	item.Editor = names(e.Fields.Value("editor"))
	item.Translator = names(e.Fields.Value("translator"))

	if parts := helpers.DateParts(e.Fields.Value("year"), e.Fields.Value("month")); parts != nil {
		item.Issued = &JSONDate{DateParts: [][]int{parts}}
	}

	return item
}

// names splits a BibTeX name list into CSL names. Names that cannot be
// split, such as "{Barnes and Noble}", become literals.
func names(value string) []JSONName {
	var out []JSONName
	for _, author := range helpers.SplitAuthors(value) {
		if author == "others" {
			continue
		}
		parsed, ok := helpers.ParseAuthor(author)
		if !ok {
			out = append(out, JSONName{Literal: helpers.ComposeLaTeX(author)})
			continue
		}
		out = append(out, JSONName{
			Family: helpers.ComposeLaTeX(parsed.Family),
			Given:  helpers.ComposeLaTeX(strings.Join(parsed.Initials(), " ")),
		})
	}
	return out
}

// itemType maps a BibTeX entry type to a CSL item type.
func itemType(e *bib.Entry) string {
	switch strings.ToLower(e.Type) {
	case "article":
		return "article-journal"
	case "book", "booklet":
		return "book"
	case "inbook", "incollection":
		return "chapter"
	case "inproceedings", "conference":
		return "paper-conference"
	case "proceedings":
		return "book"
	case "phdthesis", "mastersthesis", "thesis":
		return "thesis"
	case "techreport", "report":
		return "report"
	case "manual":
		return "report"
	case "dataset":
		return "dataset"
	case "software":
		return "software"
	case "online", "electronic", "www":
		return "webpage"
	case "patent":
		return "patent"
	case "unpublished":
		return "manuscript"
	default:
		return "document"
	}
}

// JSON types for CSL-JSON output.

type JSONItem struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	Title          string     `json:"title,omitempty"`
	Abstract       string     `json:"abstract,omitempty"`
	Language       string     `json:"language,omitempty"`
	Author         []JSONName `json:"author,omitempty"`
	Editor         []JSONName `json:"editor,omitempty"`
	Translator     []JSONName `json:"translator,omitempty"`
	Issued         *JSONDate  `json:"issued,omitempty"`
	DOI            string     `json:"DOI,omitempty"`
	URL            string     `json:"URL,omitempty"`
	ISBN           string     `json:"ISBN,omitempty"`
	ISSN           string     `json:"ISSN,omitempty"`
	Publisher      string     `json:"publisher,omitempty"`
	PublisherPlace string     `json:"publisher-place,omitempty"`
	ContainerTitle string     `json:"container-title,omitempty"`
	Edition        string     `json:"edition,omitempty"`
	Volume         string     `json:"volume,omitempty"`
	Issue          string     `json:"issue,omitempty"`
	Page           string     `json:"page,omitempty"`
	Note           string     `json:"note,omitempty"`
}

type JSONName struct {
	Family  string `json:"family,omitempty"`
	Given   string `json:"given,omitempty"`
	Literal string `json:"literal,omitempty"`
}

type JSONDate struct {
	DateParts [][]int `json:"date-parts,omitempty"`
}
