package bibtex

import (
	"bytes"
	"sort"
	"strings"
	"testing"

	nickng "github.com/nickng/bibtex"

	"github.com/lehigh-university-libraries/bibtidy/bib"
	"github.com/lehigh-university-libraries/bibtidy/format"
)

// TestSerialize_ReadableByOtherParsers checks that written files load in
// an independent BibTeX parser with the same keys, types and fields.
func TestSerialize_ReadableByOtherParsers(t *testing.T) {
	doc := &bib.Document{Entries: []*bib.Entry{
		{Type: "article", Key: "silva2020", Fields: bib.Fields{
			{Name: "title", Value: "A {GPU} Approach to Sorting"},
			{Name: "author", Value: "J. C. C. Silva and M. Souza"},
			{Name: "journal", Value: "J. Parallel Comput."},
			{Name: "pages", Value: "10-20"},
			{Name: "doi", Value: "10.1000/gpu"},
		}},
		{Type: "book", Key: "knuth84", Fields: bib.Fields{
			{Name: "title", Value: `The {\TeX}book`},
			{Name: "author", Value: "D. E. Knuth"},
			{Name: "publisher", Value: "Addison-Wesley"},
		}},
	}}

	var buf bytes.Buffer
	if err := (&Format{}).Serialize(&buf, doc, format.NewSerializeOptions()); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	parsed, err := nickng.Parse(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("output rejected by github.com/nickng/bibtex: %v\n%s", err, buf.String())
	}
	if len(parsed.Entries) != len(doc.Entries) {
		t.Fatalf("entry count: got %d, want %d", len(parsed.Entries), len(doc.Entries))
	}

	for i, want := range doc.Entries {
		got := parsed.Entries[i]
		if got.CiteName != want.Key {
			t.Errorf("entry %d key: got %q, want %q", i, got.CiteName, want.Key)
		}
		if !strings.EqualFold(got.Type, want.Type) {
			t.Errorf("entry %s type: got %q, want %q", want.Key, got.Type, want.Type)
		}

		var names []string
		for name := range got.Fields {
			names = append(names, strings.ToLower(name))
		}
		sort.Strings(names)
		wantNames := want.Fields.Names()
		sort.Strings(wantNames)
		if strings.Join(names, ",") != strings.Join(wantNames, ",") {
			t.Errorf("entry %s fields: got %v, want %v", want.Key, names, wantNames)
		}
	}

	if doi := parsed.Entries[0].Fields["doi"]; doi == nil || !strings.Contains(doi.String(), "10.1000/gpu") {
		t.Errorf("doi: got %v", doi)
	}
}
