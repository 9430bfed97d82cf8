package lexicon

import (
	"fmt"
	"strings"
)

// Issue types reported by Validate.
const (
	IssueEmptyLexicon    = "empty_lexicon"
	IssueEmptyTerm       = "empty_term"
	IssueExactDuplicate  = "exact_duplicate"
	IssueSevereNotListed = "severe_not_listed"
	IssueSubstringMatch  = "substring_overlap"
)

// Issue represents a problem found in a lexicon.
type Issue struct {
	Type        string
	Description string
	Term        string
	Location    int
}

// IsError reports whether the issue makes the lexicon unusable as intended.
// Substring overlaps only inflate match counts and are reported as notices.
func (i Issue) IsError() bool {
	return i.Type != IssueSubstringMatch
}

// Validate performs all consistency checks on the lexicon.
func Validate(lex *Lexicon) []Issue {
	if lex == nil || len(lex.Terms) == 0 {
		return []Issue{{
			Type:        IssueEmptyLexicon,
			Description: "Lexicon is empty or could not be loaded",
			Location:    -1,
		}}
	}

	var issues []Issue

	issues = append(issues, checkTerms(lex)...)
	issues = append(issues, checkSevereSubset(lex)...)
	issues = append(issues, checkSubstringOverlap(lex)...)

	return issues
}

// checkTerms finds blank and duplicated terms.
func checkTerms(lex *Lexicon) []Issue {
	var issues []Issue

	seen := make(map[string]int)

	for i, term := range lex.Terms {
		key := strings.ToLower(strings.TrimSpace(term))
		if key == "" {
			issues = append(issues, Issue{
				Type:        IssueEmptyTerm,
				Description: fmt.Sprintf("Term at position %d is empty", i),
				Location:    i,
			})

			continue
		}

		if prev, exists := seen[key]; exists {
			issues = append(issues, Issue{
				Type:        IssueExactDuplicate,
				Description: fmt.Sprintf("Term '%s' appears multiple times (positions %d and %d)", term, prev, i),
				Term:        term,
				Location:    i,
			})
		} else {
			seen[key] = i
		}
	}

	return issues
}

// checkSevereSubset finds severe terms that the scanner would never detect.
func checkSevereSubset(lex *Lexicon) []Issue {
	var issues []Issue

	listed := make(map[string]struct{}, len(lex.Terms))
	for _, term := range lex.Terms {
		listed[strings.ToLower(term)] = struct{}{}
	}

	for i, term := range lex.Severe {
		if _, ok := listed[strings.ToLower(term)]; !ok {
			issues = append(issues, Issue{
				Type:        IssueSevereNotListed,
				Description: fmt.Sprintf("Severe term '%s' is not in the term list", term),
				Term:        term,
				Location:    i,
			})
		}
	}

	return issues
}

// checkSubstringOverlap finds terms contained in other terms, which makes a single
// word count as several matches.
func checkSubstringOverlap(lex *Lexicon) []Issue {
	var issues []Issue

	for i, outer := range lex.Terms {
		outerKey := strings.ToLower(outer)
		for j, inner := range lex.Terms {
			innerKey := strings.ToLower(inner)
			if i == j || innerKey == "" || innerKey == outerKey {
				continue
			}

			if strings.Contains(outerKey, innerKey) {
				issues = append(issues, Issue{
					Type:        IssueSubstringMatch,
					Description: fmt.Sprintf("Term '%s' also matches inside '%s'", inner, outer),
					Term:        inner,
					Location:    j,
				})
			}
		}
	}

	return issues
}
