// Package lexicon implements the rule-based text scanner used to flag submissions.
package lexicon

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/bytedance/sonic"
)

// ErrLexiconNotFound is returned when no lexicon file exists at the given path.
var ErrLexiconNotFound = errors.New("lexicon file not found")

// Lexicon is the static term list a Scanner matches against.
// Severe must be a subset of Terms.
type Lexicon struct {
	Terms     []string `json:"terms"`
	Severe    []string `json:"severe"`
	Normalize bool     `json:"normalize,omitempty"` // Fold diacritics before matching
}

// defaultTerms is scanned in this order; the order is visible in detected term lists.
var defaultTerms = []string{
	"stupid",
	"idiot",
	"dumb",
	"moron",
	"loser",
	"hate",
	"kill",
	"murder",
	"spam",
	"scam",
	"fraud",
	"shut up",
	"trash",
	"pathetic",
	"worthless",
	"threat",
	"suicide",
	"terrorist",
	"racist",
	"harass",
	"bully",
	"abuse",
}

var defaultSevere = []string{
	"kill",
	"murder",
	"suicide",
	"terrorist",
	"racist",
}

// Default returns a copy of the built-in lexicon.
func Default() *Lexicon {
	return &Lexicon{
		Terms:  slices.Clone(defaultTerms),
		Severe: slices.Clone(defaultSevere),
	}
}

// Load reads a lexicon from a JSON file.
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLexiconNotFound, path)
		}
		return nil, fmt.Errorf("failed to read lexicon file: %w", err)
	}

	var lex Lexicon
	if err := sonic.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon file: %w", err)
	}

	return &lex, nil
}

// LoadOrDefault loads the lexicon at path, or returns the built-in one when path is empty.
func LoadOrDefault(path string) (*Lexicon, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
