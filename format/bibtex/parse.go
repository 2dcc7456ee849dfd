package bibtex

import (
	"fmt"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/bibtidy/bib"
	"github.com/lehigh-university-libraries/bibtidy/format"
)

// Parse reads BibTeX text and returns its entries in file order.
// Any structural problem aborts the parse with a *bib.MalformedEntryError
// and no entries are returned.
func (f *Format) Parse(r io.Reader, opts *format.ParseOptions) (*bib.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading bibtex input: %w", err)
	}

	var source string
	if opts != nil {
		source = opts.SourceName
	}
	return ParseString(string(data), source)
}

// ParseString parses BibTeX source text. source names the input in errors.
func ParseString(src, source string) (*bib.Document, error) {
	s := &scanner{src: src, source: source}
	doc := &bib.Document{Source: source}
	seen := make(map[string]int)

	for {
		at := strings.IndexByte(s.src[s.pos:], '@')
		if at < 0 {
			break
		}
		s.pos += at
		start := s.pos
		s.pos++

		entryType := s.identifier()
		s.skipSpace()
		if entryType == "" || !s.peek('{') {
			// Not an entry header: an e-mail address or similar inside comment text.
			continue
		}
		s.pos++

		switch strings.ToLower(entryType) {
		case "comment", "preamble", "string":
			if err := s.skipBlock(start, entryType); err != nil {
				return nil, err
			}
			continue
		}

		entry, err := s.entry(entryType, start)
		if err != nil {
			return nil, err
		}
		if first, dup := seen[entry.Key]; dup {
			return nil, s.errorf(start, "duplicate citation key %q (first defined at offset %d)", entry.Key, first)
		}
		seen[entry.Key] = start
		doc.Entries = append(doc.Entries, entry)
	}

	return doc, nil
}

// scanner walks BibTeX source text byte by byte.
type scanner struct {
	src    string
	pos    int
	source string
}

func (s *scanner) errorf(offset int, format string, args ...any) error {
	return &bib.MalformedEntryError{
		Offset: offset,
		Reason: fmt.Sprintf(format, args...),
		Source: s.source,
	}
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.src)
}

func (s *scanner) peek(c byte) bool {
	return !s.eof() && s.src[s.pos] == c
}

func (s *scanner) skipSpace() {
	for !s.eof() && isSpace(s.src[s.pos]) {
		s.pos++
	}
}

// identifier reads an entry type such as "article".
func (s *scanner) identifier() string {
	start := s.pos
	for !s.eof() && isIdentByte(s.src[s.pos]) {
		s.pos++
	}
	return s.src[start:s.pos]
}

// skipBlock consumes a brace block whose opening brace has been read.
func (s *scanner) skipBlock(start int, entryType string) error {
	depth := 1
	for ; !s.eof(); s.pos++ {
		switch s.src[s.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				s.pos++
				return nil
			}
		}
	}
	return s.errorf(start, "unterminated @%s block", entryType)
}

// entry parses "key, name = value, ... }" after the opening brace.
func (s *scanner) entry(entryType string, start int) (*bib.Entry, error) {
	s.skipSpace()
	keyStart := s.pos
	for !s.eof() && s.src[s.pos] != ',' && s.src[s.pos] != '}' {
		s.pos++
	}
	if s.eof() {
		return nil, s.errorf(start, "unterminated entry: brace depth never returned to zero")
	}

	key := strings.TrimSpace(s.src[keyStart:s.pos])
	if key == "" {
		return nil, s.errorf(keyStart, "missing citation key")
	}
	if strings.ContainsAny(key, " \t\r\n{\"=") {
		return nil, s.errorf(keyStart, "invalid citation key %q", key)
	}

	entry := &bib.Entry{Type: entryType, Key: key, Offset: start}
	if s.src[s.pos] == '}' {
		s.pos++
		return entry, nil
	}
	s.pos++

	for {
		s.skipSpace()
		if s.eof() {
			return nil, s.errorf(start, "unterminated entry: brace depth never returned to zero")
		}

		switch s.src[s.pos] {
		case '}':
			s.pos++
			return entry, nil
		case ',':
			// Trailing or doubled comma.
			s.pos++
			continue
		}

		field, err := s.field(start)
		if err != nil {
			return nil, err
		}
		entry.SetField(field)

		s.skipSpace()
		if s.eof() {
			return nil, s.errorf(start, "unterminated entry: brace depth never returned to zero")
		}
		switch s.src[s.pos] {
		case ',':
			s.pos++
		case '}':
			s.pos++
			return entry, nil
		default:
			return nil, s.errorf(s.pos, "expected ',' or '}' after value of field %q, found %q", field.Name, s.src[s.pos])
		}
	}
}

// field parses "name = value".
func (s *scanner) field(start int) (bib.Field, error) {
	nameStart := s.pos
	for !s.eof() && !isSpace(s.src[s.pos]) && !strings.ContainsRune("=,{}\"", rune(s.src[s.pos])) {
		s.pos++
	}
	name := s.src[nameStart:s.pos]
	if name == "" {
		return bib.Field{}, s.errorf(s.pos, "expected field name, found %q", s.src[s.pos])
	}

	s.skipSpace()
	if s.eof() {
		return bib.Field{}, s.errorf(start, "unterminated entry: brace depth never returned to zero")
	}
	if s.src[s.pos] != '=' {
		return bib.Field{}, s.errorf(s.pos, "expected '=' after field name %q", name)
	}
	s.pos++
	s.skipSpace()
	if s.eof() {
		return bib.Field{}, s.errorf(start, "unterminated entry: brace depth never returned to zero")
	}

	field := bib.Field{Name: name}
	var err error
	switch s.src[s.pos] {
	case '{':
		field.Value, err = s.braced(start)
	case '"':
		field.Value, err = s.quoted(start, name)
	default:
		field.Value, err = s.bare(name)
		field.Bare = true
	}
	if err != nil {
		return bib.Field{}, err
	}
	field.Value = strings.TrimSpace(field.Value)
	return field, nil
}

// braced reads a {...} value, tracking nested braces. The outer braces are
// stripped, inner ones kept.
func (s *scanner) braced(start int) (string, error) {
	s.pos++
	valueStart := s.pos
	depth := 1
	for ; !s.eof(); s.pos++ {
		switch s.src[s.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				value := s.src[valueStart:s.pos]
				s.pos++
				return value, nil
			}
		}
	}
	return "", s.errorf(start, "unterminated entry: brace depth never returned to zero")
}

// quoted reads a "..." value. A quote inside braces does not end the value.
func (s *scanner) quoted(start int, name string) (string, error) {
	s.pos++
	valueStart := s.pos
	depth := 0
	for ; !s.eof(); s.pos++ {
		switch s.src[s.pos] {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return "", s.errorf(s.pos, "unbalanced '}' in quoted value of field %q", name)
			}
			depth--
		case '"':
			if depth == 0 {
				value := s.src[valueStart:s.pos]
				s.pos++
				return value, nil
			}
		}
	}
	return "", s.errorf(start, "unterminated entry: brace depth never returned to zero")
}

// bare reads an undelimited value such as a number or a month macro.
// A brace or quote inside it is a structural error.
func (s *scanner) bare(name string) (string, error) {
	valueStart := s.pos
	for !s.eof() && !isSpace(s.src[s.pos]) && !strings.ContainsRune(",}#", rune(s.src[s.pos])) {
		if c := s.src[s.pos]; c == '{' || c == '"' {
			return "", s.errorf(s.pos, "unexpected %q in undelimited value of field %q", c, name)
		}
		s.pos++
	}
	if s.pos == valueStart {
		return "", s.errorf(s.pos, "missing value for field %q", name)
	}
	return s.src[valueStart:s.pos], nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}
