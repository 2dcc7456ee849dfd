package normalize

import "regexp"

// dashRunRegex matches "--", "---" and typographic dashes between page numbers.
var dashRunRegex = regexp.MustCompile(`\s*(?:-{2,}|[\x{2013}\x{2014}])\s*`)

// Pages collapses a page range separator to a single hyphen: "100--110" -> "100-110".
func Pages(value string) string {
	return dashRunRegex.ReplaceAllString(value, "-")
}
