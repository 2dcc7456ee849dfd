package normalize

import (
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/bibtidy/bib"
)

func TestFieldStage_DropByType(t *testing.T) {
	stage := &FieldStage{
		Drop:       NewDropSet("abstract", "owner"),
		DropByType: map[string]DropSet{"article": NewDropSet("issn", "url")},
	}

	article := sampleEntry()
	stage.Apply(article)
	if got := strings.Join(article.Fields.Names(), ","); got != "title,author,year" {
		t.Errorf("article names: got %s", got)
	}

	book := sampleEntry()
	book.Type = "Book"
	stage.Apply(book)
	if got := strings.Join(book.Fields.Names(), ","); got != "title,author,year,issn" {
		t.Errorf("book names: got %s", got)
	}
	if book.Type != "book" {
		t.Errorf("book type: got %q", book.Type)
	}
}

func TestNameStage(t *testing.T) {
	e := &bib.Entry{Type: "book", Key: "k", Fields: bib.Fields{
		{Name: "author", Value: "JCC Silva and Souza, Maria"},
		{Name: "editor", Value: "João Carlos Pereira"},
		{Name: "title", Value: "Keep Me"},
	}}

	stage := &NameStage{Fields: []string{"author", "editor"}}
	stage.Apply(e)

	if v := e.Fields.Value("author"); v != "J. C. C. Silva and M. Souza" {
		t.Errorf("author: got %q", v)
	}
	if v := e.Fields.Value("editor"); v != "J. C. Pereira" {
		t.Errorf("editor: got %q", v)
	}
	if v := e.Fields.Value("title"); v != "Keep Me" {
		t.Errorf("title changed: got %q", v)
	}
}

func TestNameStage_AbsentAndEmpty(t *testing.T) {
	e := &bib.Entry{Type: "misc", Key: "k", Fields: bib.Fields{{Name: "author", Value: ""}}}
	(&NameStage{Fields: []string{"author", "editor"}}).Apply(e)

	if len(e.Fields) != 1 || e.Fields[0].Value != "" {
		t.Errorf("empty author was modified: %+v", e.Fields)
	}
	if _, ok := e.Get("editor"); ok {
		t.Error("absent editor was added")
	}
}

func TestPagesStage(t *testing.T) {
	e := &bib.Entry{Fields: bib.Fields{{Name: "pages", Value: "7--19"}}}
	(&PagesStage{}).Apply(e)
	if v := e.Fields.Value("pages"); v != "7-19" {
		t.Errorf("pages: got %q", v)
	}

	noPages := &bib.Entry{}
	(&PagesStage{}).Apply(noPages)
	if len(noPages.Fields) != 0 {
		t.Errorf("pages added to entry without pages: %+v", noPages.Fields)
	}
}
