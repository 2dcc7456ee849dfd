package helpers

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// HTML tag patterns
	htmlTagRegex     = regexp.MustCompile(`<[^>]*>`)
	htmlCommentRegex = regexp.MustCompile(`<!--[\s\S]*?-->`)
	multiSpaceRegex  = regexp.MustCompile(`\s+`)

	// LaTeX control sequences: \'  \"  \&  or a named command such as \emph
	latexCommandRegex = regexp.MustCompile(`\\([A-Za-z]+|[^A-Za-z\s])`)

	// Accent on one letter: \'E, \'{E}, \v{S}, \c c
	latexAccentRegex = regexp.MustCompile(`\\([\x27\x60^"~=.]|[uvHckrdb]\b)\s*(?:\{([A-Za-z])\}|([A-Za-z]))`)
)

// latexCombining maps accent commands to Unicode combining marks.
var latexCombining = map[string]rune{
	"'": '\u0301', "`": '\u0300', "^": '\u0302', `"`: '\u0308', "~": '\u0303',
	"=": '\u0304', ".": '\u0307', "u": '\u0306', "v": '\u030C', "H": '\u030B',
	"c": '\u0327', "k": '\u0328', "r": '\u030A', "d": '\u0323', "b": '\u0331',
}

// latexDropped are commands whose name carries no title text.
var latexDropped = map[string]bool{
	"emph": true, "textit": true, "textbf": true, "textsc": true, "textrm": true,
	"textsf": true, "texttt": true, "mathrm": true, "mathit": true, "mathbf": true,
	"mbox": true, "url": true,
	// Accents written with a letter: \v{s}, \c{c}, \H{o} ...
	"v": true, "u": true, "c": true, "H": true, "k": true, "r": true, "d": true, "b": true, "t": true,
}

// StripHTML removes HTML tags from a string and decodes HTML entities.
// Crossref titles carry inline markup such as <i> and <sub>.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}

	s = htmlCommentRegex.ReplaceAllString(s, "")
	s = htmlTagRegex.ReplaceAllString(s, "")
	s = html.UnescapeString(s)

	return NormalizeWhitespace(s)
}

// NormalizeWhitespace normalizes all whitespace to single spaces and trims.
func NormalizeWhitespace(s string) string {
	s = multiSpaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// StripBraces removes BibTeX grouping braces.
func StripBraces(s string) string {
	return strings.NewReplacer("{", "", "}", "").Replace(s)
}

// StripLaTeX removes accent commands, formatting commands and braces,
// keeping the letters they decorate: `Jo{\~a}o` -> "Joao",
// `The {\TeX}book` -> "The TeXbook".
func StripLaTeX(s string) string {
	s = latexCommandRegex.ReplaceAllStringFunc(s, func(cmd string) string {
		name := cmd[1:]
		if len(name) == 1 && !isASCIILetter(name[0]) {
			// \& \% \_ keep the character; \' \" \~ \^ \` \= \. are accents.
			if strings.ContainsAny(name, "&%_$#") {
				return name
			}
			return ""
		}
		if latexDropped[name] {
			return ""
		}
		return name
	})
	s = strings.NewReplacer("{", "", "}", "", "$", "").Replace(s)
	return NormalizeWhitespace(s)
}

// ComposeLaTeX rewrites LaTeX accents as precomposed Unicode and then
// strips the remaining markup: {\'E}mile -> Émile.
func ComposeLaTeX(s string) string {
	s = latexAccentRegex.ReplaceAllStringFunc(s, func(m string) string {
		sub := latexAccentRegex.FindStringSubmatch(m)
		letter := sub[2] + sub[3]
		return letter + string(latexCombining[sub[1]])
	})
	return norm.NFC.String(StripLaTeX(s))
}

// FoldTitle reduces a title to a comparison key: markup and accents
// removed, case folded, punctuation collapsed to single spaces.
func FoldTitle(s string) string {
	s = StripLaTeX(StripHTML(s))

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = cases.Fold().String(folded)

	folded = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)

	return NormalizeWhitespace(folded)
}

// SameTitle reports whether two titles are equal after folding.
func SameTitle(a, b string) bool {
	fa := FoldTitle(a)
	return fa != "" && fa == FoldTitle(b)
}
