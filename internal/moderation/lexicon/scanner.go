package lexicon

import (
	"strings"
	"sync"

	"github.com/alumnet/modguard/internal/moderation/types"
	"github.com/alumnet/modguard/pkg/utils"
)

const (
	// confidencePerTerm is added to the confidence score for every detected term.
	confidencePerTerm = 0.3
	// mediumTermCount is the number of detected terms at which severity becomes medium.
	mediumTermCount = 3
)

// Scanner matches content against a lexicon. Matching is a case-insensitive substring
// test, so a term also matches inside longer words.
// Scanner is safe for concurrent use.
type Scanner struct {
	terms      []string
	matchTerms []string
	severe     map[string]struct{}
	normalize  bool
	normalizer sync.Pool
}

// NewScanner creates a Scanner for the given lexicon.
func NewScanner(lex *Lexicon) *Scanner {
	s := &Scanner{
		terms:      make([]string, 0, len(lex.Terms)),
		matchTerms: make([]string, 0, len(lex.Terms)),
		severe:     make(map[string]struct{}, len(lex.Severe)),
		normalize:  lex.Normalize,
	}
	s.normalizer.New = func() any { return utils.NewTextNormalizer() }

	for _, term := range lex.Terms {
		if term == "" {
			continue
		}
		s.terms = append(s.terms, term)
		s.matchTerms = append(s.matchTerms, s.prepare(term))
	}

	for _, term := range lex.Severe {
		s.severe[strings.ToLower(term)] = struct{}{}
	}

	return s
}

// Scan evaluates content and returns every lexicon term it contains.
func (s *Scanner) Scan(content string) types.ModerationResult {
	detected := make([]string, 0)

	if strings.TrimSpace(content) != "" {
		text := s.prepare(content)
		for i, term := range s.matchTerms {
			if strings.Contains(text, term) {
				detected = append(detected, s.terms[i])
			}
		}
	}

	return types.ModerationResult{
		IsInappropriate: len(detected) > 0,
		DetectedTerms:   detected,
		Severity:        s.severityOf(detected),
		Confidence:      min(confidencePerTerm*float64(len(detected)), 1.0),
	}
}

// IsSevere reports whether term belongs to the severe subset.
func (s *Scanner) IsSevere(term string) bool {
	_, ok := s.severe[strings.ToLower(term)]
	return ok
}

// HasSevere reports whether any of the given terms belongs to the severe subset.
func (s *Scanner) HasSevere(terms []string) bool {
	for _, term := range terms {
		if s.IsSevere(term) {
			return true
		}
	}
	return false
}

// severityOf grades a set of detected terms.
func (s *Scanner) severityOf(detected []string) types.Severity {
	switch {
	case s.HasSevere(detected):
		return types.SeverityHigh
	case len(detected) >= mediumTermCount:
		return types.SeverityMedium
	default:
		return types.SeverityLow
	}
}

// prepare lower-cases text, folding diacritics when the lexicon asks for it.
func (s *Scanner) prepare(text string) string {
	if !s.normalize {
		return strings.ToLower(text)
	}

	n := s.normalizer.Get().(*utils.TextNormalizer)
	defer s.normalizer.Put(n)

	return n.Normalize(text)
}
