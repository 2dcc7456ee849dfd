package helpers

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Year only, possibly braced or with a suffix: 1978, 1978a
	yearRegex = regexp.MustCompile(`^(\d{4})[a-z]?$`)

	// ISO date inside a year or date field: 1978-03 or 1978-03-15
	isoDateRegex = regexp.MustCompile(`^(\d{4})-(\d{2})(?:-(\d{2}))?$`)
)

var monthNames = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// ParseMonth reads a BibTeX month: a macro ("jan"), a name ("March",
// "Sept.") or a number ("3"). It returns 0 when the value is not a month.
func ParseMonth(value string) int {
	value = strings.ToLower(strings.TrimSpace(StripBraces(value)))
	if value == "" {
		return 0
	}
	if n, err := strconv.Atoi(value); err == nil {
		if n >= 1 && n <= 12 {
			return n
		}
		return 0
	}
	if len(value) < 3 {
		return 0
	}
	return monthNames[value[:3]]
}

// DateParts converts BibTeX year and month fields to CSL date parts
// ([year], [year, month] or [year, month, day]). It returns nil when the
// year cannot be read.
func DateParts(year, month string) []int {
	year = strings.TrimSpace(StripBraces(year))

	if m := isoDateRegex.FindStringSubmatch(year); m != nil {
		parts := []int{atoi(m[1]), atoi(m[2])}
		if m[3] != "" {
			parts = append(parts, atoi(m[3]))
		}
		return parts
	}

	m := yearRegex.FindStringSubmatch(year)
	if m == nil {
		return nil
	}
	parts := []int{atoi(m[1])}
	if mo := ParseMonth(month); mo > 0 {
		parts = append(parts, mo)
	}
	return parts
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
