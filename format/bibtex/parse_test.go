package bibtex

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/bibtidy/bib"
	"github.com/lehigh-university-libraries/bibtidy/format"
)

const sampleBib = `This file was exported by a reference manager. Contact: someone@example.org

@Article{silva2020,
  Title = {A {GPU} Approach to {BibTeX}},
  AUTHOR = "Silva, Jo{\~a}o and JCC Souza",
  year = 2020,
  month = jan,
  journal = {Journal of "Quoted" Things},
}

@comment{ ignored {nested} block }
@String{ieee = "IEEE"}

@book{knuth84, title={The {\TeX}book}, author={Donald E. Knuth}, publisher = {Addison-Wesley}}
`

func TestParse(t *testing.T) {
	f := &Format{}
	doc, err := f.Parse(strings.NewReader(sampleBib), &format.ParseOptions{SourceName: "sample.bib"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if doc.Source != "sample.bib" {
		t.Errorf("Source = %q", doc.Source)
	}
	if len(doc.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(doc.Entries))
	}

	e := doc.Entries[0]
	if e.Type != "Article" {
		t.Errorf("Type: got %q, want %q", e.Type, "Article")
	}
	if e.Key != "silva2020" {
		t.Errorf("Key: got %q, want %q", e.Key, "silva2020")
	}
	if e.Offset != strings.Index(sampleBib, "@Article") {
		t.Errorf("Offset: got %d, want %d", e.Offset, strings.Index(sampleBib, "@Article"))
	}

	tests := []struct {
		name  string
		value string
		bare  bool
	}{
		{"Title", "A {GPU} Approach to {BibTeX}", false},
		{"AUTHOR", `Silva, Jo{\~a}o and JCC Souza`, false},
		{"year", "2020", true},
		{"month", "jan", true},
		{"journal", `Journal of "Quoted" Things`, false},
	}
	if len(e.Fields) != len(tests) {
		t.Fatalf("field count: got %d, want %d (%v)", len(e.Fields), len(tests), e.Fields.Names())
	}
	for i, tt := range tests {
		got := e.Fields[i]
		if got.Name != tt.name || got.Value != tt.value || got.Bare != tt.bare {
			t.Errorf("field %d: got %+v, want name=%q value=%q bare=%v", i, got, tt.name, tt.value, tt.bare)
		}
	}

	book := doc.Entries[1]
	if book.Key != "knuth84" || book.Type != "book" {
		t.Errorf("second entry: got @%s{%s}", book.Type, book.Key)
	}
	if v := book.Fields.Value("title"); v != `The {\TeX}book` {
		t.Errorf("book title: got %q", v)
	}
}

func TestParse_MalformedInput(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantOffset int
		wantReason string
	}{
		{
			name:       "unterminated entry",
			input:      "@article{good, title = {ok}}\n@article{bad, title = {Unclosed}\n",
			wantOffset: 29,
			wantReason: "unterminated entry",
		},
		{
			name:       "unterminated braced value",
			input:      "@article{bad, title = {Open {nested} value,\n year = 2020\n",
			wantOffset: 0,
			wantReason: "unterminated entry",
		},
		{
			name:       "missing equals",
			input:      "@article{k, title {x}}",
			wantOffset: 18,
			wantReason: "expected '='",
		},
		{
			name:       "duplicate key",
			input:      "@article{dup, title={A}}\n@book{dup, title={B}}",
			wantOffset: 25,
			wantReason: "duplicate citation key",
		},
		{
			name:       "empty key",
			input:      "@article{ , title={A}}",
			wantOffset: 10,
			wantReason: "missing citation key",
		},
		{
			name:       "brace inside undelimited value",
			input:      "@article{k, note = abc{def}, year = 2020, title = {T}}\n@book{b, title={B}}",
			wantOffset: 22,
			wantReason: "undelimited value",
		},
		{
			name:       "quote inside undelimited value",
			input:      "@article{k, year = 20\"20\"}",
			wantOffset: 21,
			wantReason: "undelimited value",
		},
		{
			name:       "unterminated comment block",
			input:      "@comment{ never closed",
			wantOffset: 0,
			wantReason: "unterminated @comment block",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseString(tt.input, "")
			if err == nil {
				t.Fatalf("expected error, got %d entries", len(doc.Entries))
			}
			if doc != nil {
				t.Errorf("expected no document on error, got %d entries", len(doc.Entries))
			}

			var me *bib.MalformedEntryError
			if !errors.As(err, &me) {
				t.Fatalf("expected *bib.MalformedEntryError, got %T: %v", err, err)
			}
			if me.Offset != tt.wantOffset {
				t.Errorf("Offset: got %d, want %d (%v)", me.Offset, tt.wantOffset, err)
			}
			if !strings.Contains(me.Reason, tt.wantReason) {
				t.Errorf("Reason: got %q, want it to contain %q", me.Reason, tt.wantReason)
			}
		})
	}
}

func TestParse_Tolerances(t *testing.T) {
	input := `@misc{nofields}
@misc{trailing, note = {x},,  }
@misc{repeat, title = {First}, year = 1999, title = {Second}}
`
	doc, err := ParseString(input, "")
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	if got := strings.Join(doc.Keys(), ","); got != "nofields,trailing,repeat" {
		t.Fatalf("keys: got %s", got)
	}

	if n := len(doc.Entries[0].Fields); n != 0 {
		t.Errorf("nofields: got %d fields", n)
	}
	if v := doc.Entries[1].Fields.Value("note"); v != "x" {
		t.Errorf("trailing note: got %q", v)
	}

	repeat := doc.Entries[2]
	if got := strings.Join(repeat.Fields.Names(), ","); got != "title,year" {
		t.Errorf("repeat names: got %s", got)
	}
	if v := repeat.Fields.Value("title"); v != "Second" {
		t.Errorf("repeat title: got %q, want %q", v, "Second")
	}
}

func TestParse_TrimsWhitespace(t *testing.T) {
	doc, err := ParseString("@article{  spaced  ,\n\t title   =   {  Padded Title  }  ,\n}", "")
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	e := doc.Entries[0]
	if e.Key != "spaced" {
		t.Errorf("Key: got %q", e.Key)
	}
	if v := e.Fields.Value("title"); v != "Padded Title" {
		t.Errorf("title: got %q", v)
	}
}

func TestParse_Empty(t *testing.T) {
	doc, err := ParseString("% nothing but a comment\n", "")
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	if len(doc.Entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(doc.Entries))
	}
}

func TestRoundTrip(t *testing.T) {
	first, err := ParseString(sampleBib, "")
	if err != nil {
		t.Fatalf("first parse failed: %v", err)
	}

	var buf bytes.Buffer
	f := &Format{}
	if err := f.Serialize(&buf, first, format.NewSerializeOptions()); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	t.Logf("Serialized BibTeX:\n%s", buf.String())

	second, err := ParseString(buf.String(), "")
	if err != nil {
		t.Fatalf("second parse failed: %v", err)
	}

	if len(second.Entries) != len(first.Entries) {
		t.Fatalf("entry count: got %d, want %d", len(second.Entries), len(first.Entries))
	}
	for i, want := range first.Entries {
		got := second.Entries[i]
		if got.Key != want.Key || got.Type != want.Type {
			t.Errorf("entry %d: got @%s{%s}, want @%s{%s}", i, got.Type, got.Key, want.Type, want.Key)
		}
		if len(got.Fields) != len(want.Fields) {
			t.Errorf("entry %s: field count got %d, want %d", want.Key, len(got.Fields), len(want.Fields))
			continue
		}
		for j := range want.Fields {
			if got.Fields[j] != want.Fields[j] {
				t.Errorf("entry %s field %d: got %+v, want %+v", want.Key, j, got.Fields[j], want.Fields[j])
			}
		}
	}
}

func TestFormatEntry(t *testing.T) {
	entry := &bib.Entry{
		Type: "book",
		Key:  "knuth84",
		Fields: bib.Fields{
			{Name: "title", Value: `The {\TeX}book`},
			{Name: "year", Value: "1984", Bare: true},
		},
	}

	want := "@book{knuth84,\n  title = {The {\\TeX}book},\n  year = 1984,\n}\n"
	if got := FormatEntry(entry, "  "); got != want {
		t.Errorf("FormatEntry:\ngot  %q\nwant %q", got, want)
	}
}

func TestCanParse(t *testing.T) {
	f := &Format{}
	if !f.CanParse([]byte("% header\n@Article{x,\n")) {
		t.Error("CanParse rejected a BibTeX header")
	}
	if f.CanParse([]byte(`{"title": "not bibtex", "contact": "a@b.org"}`)) {
		t.Error("CanParse accepted JSON")
	}
}
