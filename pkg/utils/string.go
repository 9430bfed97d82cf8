package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// EllipsisMarker is appended to text shortened by TruncateRunes.
const EllipsisMarker = "..."

// MultipleSpaces matches any sequence of whitespace (including newlines).
var MultipleSpaces = regexp.MustCompile(`\s+`)

// CompressAllWhitespace replaces all whitespace sequences (including newlines) with a single space.
func CompressAllWhitespace(s string) string {
	return strings.TrimSpace(MultipleSpaces.ReplaceAllString(s, " "))
}

// TruncateRunes shortens s to at most limit characters, appending EllipsisMarker
// when anything was cut. Strings within the limit are returned unchanged.
func TruncateRunes(s string, limit int) string {
	if limit < 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)

	return string(runes[:limit]) + EllipsisMarker
}
