// Package helpers provides name and text utilities used while cleaning entries.
package helpers

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// AuthorSeparator joins names in author and editor fields.
const AuthorSeparator = " and "

// AuthorName is one author split into given-name tokens and a family name.
type AuthorName struct {
	// Given holds full names or bare initials, in order.
	Given []string
	// Family is never abbreviated.
	Family string
}

// Initials returns each given-name token abbreviated, e.g. "João" -> "J.".
func (n AuthorName) Initials() []string {
	initials := make([]string, 0, len(n.Given))
	for _, g := range n.Given {
		if ini := abbreviate(g); ini != "" {
			initials = append(initials, ini)
		}
	}
	return initials
}

// String renders the name as "I. I. Family".
func (n AuthorName) String() string {
	family := n.Family
	// A multi-word family from "van der Berg, Jan" is braced so that the
	// rendered name parses back to the same family.
	if len(splitTopLevel(family, isSpaceRune)) > 1 {
		family = "{" + family + "}"
	}

	initials := n.Initials()
	if len(initials) == 0 {
		return family
	}
	return strings.Join(initials, " ") + " " + family
}

// ParseAuthor splits a single author into given tokens and family name.
// Handles both "Given Family" and "Family, Given" forms. It returns false
// when the name has no identifiable split (a single token, or more than
// one comma) and should be kept as written.
func ParseAuthor(name string) (AuthorName, bool) {
	name = NormalizeWhitespace(untie(name))
	if name == "" {
		return AuthorName{}, false
	}

	var family string
	var givenBlock []string

	switch topLevelCommas(name) {
	case 0:
		words := splitTopLevel(name, isSpaceRune)
		if len(words) < 2 {
			return AuthorName{}, false
		}
		family = words[len(words)-1]
		givenBlock = words[:len(words)-1]
	case 1:
		before, after := cutTopLevelComma(name)
		family = strings.Join(splitTopLevel(before, isSpaceRune), " ")
		givenBlock = splitTopLevel(after, isSpaceRune)
	default:
		return AuthorName{}, false
	}

	if family == "" {
		return AuthorName{}, false
	}

	return AuthorName{Given: givenTokens(givenBlock), Family: family}, true
}

// FormatAuthor reformats one author, or returns it unchanged when it
// cannot be split.
func FormatAuthor(name string) string {
	parsed, ok := ParseAuthor(name)
	if !ok {
		return NormalizeWhitespace(name)
	}
	return parsed.String()
}

// SplitAuthors splits an author field on the word "and" outside braces.
// "{Barnes and Noble}" stays one author.
func SplitAuthors(value string) []string {
	var authors []string
	var current []string
	for _, word := range splitTopLevel(value, isSpaceRune) {
		if word == "and" {
			if len(current) > 0 {
				authors = append(authors, strings.Join(current, " "))
			}
			current = nil
			continue
		}
		current = append(current, word)
	}
	if len(current) > 0 {
		authors = append(authors, strings.Join(current, " "))
	}
	return authors
}

// FormatAuthors reformats every author of an author or editor field and
// rejoins them with " and ", preserving order.
func FormatAuthors(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}

	authors := SplitAuthors(value)
	for i, a := range authors {
		authors[i] = FormatAuthor(a)
	}
	return strings.Join(authors, AuthorSeparator)
}

// FirstAuthorFamily returns the family name of the first author with
// braces removed, or the whole first author when it cannot be split.
func FirstAuthorFamily(value string) string {
	authors := SplitAuthors(value)
	if len(authors) == 0 {
		return ""
	}
	if parsed, ok := ParseAuthor(authors[0]); ok {
		return StripBraces(parsed.Family)
	}
	return StripBraces(authors[0])
}

// givenTokens breaks the given-name block into tokens. Words are also split
// after periods ("J.C." -> "J", "C"), and a run of capitals such as "JCC"
// becomes one token per letter. In a hyphenated word the hyphen binds the
// tokens on either side: "A.B.-C." -> "A", "B-C".
func givenTokens(words []string) []string {
	var tokens []string
	for _, word := range words {
		segments := splitTopLevel(word, func(r rune) bool { return r == '-' })
		var joined []string
		for i, segment := range segments {
			parts := segmentTokens(segment)
			if len(parts) == 0 {
				continue
			}
			if i > 0 && len(joined) > 0 {
				joined[len(joined)-1] += "-" + parts[0]
				parts = parts[1:]
			}
			joined = append(joined, parts...)
		}
		tokens = append(tokens, joined...)
	}
	return tokens
}

func segmentTokens(segment string) []string {
	var tokens []string
	for _, part := range splitTopLevel(segment, func(r rune) bool { return r == '.' }) {
		if isUpperRun(part) {
			for _, r := range part {
				tokens = append(tokens, string(r))
			}
			continue
		}
		tokens = append(tokens, part)
	}
	return tokens
}

// abbreviate reduces a given-name token to its initial plus a period.
// Hyphenated names keep the hyphen: "Jean-Pierre" -> "J.-P.".
func abbreviate(token string) string {
	token = norm.NFC.String(token)
	if token == "" {
		return ""
	}

	if hyphenated := splitTopLevel(token, func(r rune) bool { return r == '-' }); len(hyphenated) > 1 {
		initials := make([]string, 0, len(hyphenated))
		for _, h := range hyphenated {
			if ini := abbreviate(h); ini != "" {
				initials = append(initials, ini)
			}
		}
		return strings.Join(initials, "-")
	}

	initial := leadingInitial(token)
	if initial == "" {
		return token
	}
	return initial + "."
}

// leadingInitial returns the first character of a token. LaTeX accent
// groups ({\'E}mile, \'Emile) are kept whole so the accent survives.
func leadingInitial(token string) string {
	if token == "" {
		return ""
	}
	switch token[0] {
	case '{':
		end := matchingBrace(token)
		if end < 0 {
			return ""
		}
		group := token[:end+1]
		if strings.HasPrefix(group, `{\`) {
			return group
		}
		return leadingInitial(token[1:end])
	case '\\':
		return latexAccent(token)
	}

	r, _ := utf8.DecodeRuneInString(token)
	if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
		return ""
	}
	return string(unicode.ToUpper(r))
}

// latexAccent returns the accent command and letter at the start of token:
// \'E, \"o or \v{S}.
func latexAccent(token string) string {
	if len(token) < 3 {
		return ""
	}
	i := 1
	if isASCIILetter(token[i]) {
		for i < len(token) && isASCIILetter(token[i]) {
			i++
		}
	} else {
		i++
	}
	if i >= len(token) {
		return ""
	}

	switch {
	case token[i] == '{':
		end := matchingBrace(token[i:])
		if end < 0 {
			return ""
		}
		return token[:i+end+1]
	default:
		r, size := utf8.DecodeRuneInString(token[i:])
		if !unicode.IsLetter(r) {
			return ""
		}
		return token[:i+size]
	}
}

// isUpperRun reports whether s is two or more uppercase letters.
func isUpperRun(s string) bool {
	if utf8.RuneCountInString(s) < 2 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) || !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// splitTopLevel splits s on runes matching sep that are outside braces,
// dropping empty pieces.
func splitTopLevel(s string, sep func(rune) bool) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch {
		case r == '{':
			depth++
		case r == '}':
			if depth > 0 {
				depth--
			}
		case depth == 0 && sep(r):
			if piece := strings.TrimSpace(s[start:i]); piece != "" {
				parts = append(parts, piece)
			}
			start = i + utf8.RuneLen(r)
		}
	}
	if piece := strings.TrimSpace(s[start:]); piece != "" {
		parts = append(parts, piece)
	}
	return parts
}

func topLevelCommas(s string) int {
	n, depth := 0, 0
	for _, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				n++
			}
		}
	}
	return n
}

// cutTopLevelComma splits s around its first comma outside braces.
func cutTopLevelComma(s string) (before, after string) {
	depth := 0
	for i, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				return s[:i], s[i+1:]
			}
		}
	}
	return s, ""
}

// matchingBrace returns the index of the brace closing s[0], or -1.
func matchingBrace(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// untie turns BibTeX's unbreakable space "~" into a plain space. An escaped
// "\~" is a tilde accent and is kept, as is anything inside braces.
func untie(s string) string {
	if !strings.Contains(s, "~") {
		return s
	}
	b := []byte(s)
	depth := 0
	for i, c := range b {
		switch c {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '~':
			if depth == 0 && (i == 0 || b[i-1] != '\\') {
				b[i] = ' '
			}
		}
	}
	return string(b)
}

func isSpaceRune(r rune) bool {
	return unicode.IsSpace(r)
}

func isASCIILetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
