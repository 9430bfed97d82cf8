package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TextNormalizer wraps transform.Transformer to provide convenient string normalization methods.
// This is not safe for concurrent use.
type TextNormalizer struct {
	transformer transform.Transformer
}

// NewTextNormalizer creates a new TextNormalizer instance.
func NewTextNormalizer() *TextNormalizer {
	return &TextNormalizer{
		transformer: transform.Chain(
			norm.NFKD,                          // Decompose with compatibility decomposition
			runes.Remove(runes.In(unicode.Mn)), // Remove non-spacing marks
			runes.Map(unicode.ToLower),         // Convert to lowercase before normalization
			norm.NFKC,                          // Normalize with compatibility composition
		),
	}
}

// Normalize folds diacritics and case and compresses whitespace.
// Falls back to plain lower-casing if the transform fails.
func (n *TextNormalizer) Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = CompressAllWhitespace(s)
	if s == "" {
		return ""
	}

	result, _, err := transform.String(n.transformer, s)
	if err != nil {
		return strings.ToLower(s)
	}

	return result
}

// Contains checks if substr exists within s after normalizing both.
// Empty strings return false.
func (n *TextNormalizer) Contains(s, substr string) bool {
	if s == "" || substr == "" {
		return false
	}

	normalizedSubstr := n.Normalize(substr)
	if normalizedSubstr == "" {
		return false
	}

	return strings.Contains(n.Normalize(s), normalizedSubstr)
}
