package moderation

import (
	"context"
	"fmt"
	"strings"

	"github.com/alumnet/modguard/internal/moderation/types"
	"go.uber.org/zap"
)

// IssueWarning increments the user's warning counter and records an escalating warning
// at the head of the warning list. Callers are expected to pass a flagged result.
func (e *Engine) IssueWarning(ctx context.Context, userID string, result types.ModerationResult) types.UserWarning {
	e.mu.Lock()
	defer e.mu.Unlock()

	warning := e.issueWarningLocked(userID, result)
	e.persistLocked(ctx)

	return warning
}

// ActiveWarnings returns the user's unexpired warnings, most recent first.
func (e *Engine) ActiveWarnings(userID string) []types.UserWarning {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.filterWarningsLocked(userID, false)
}

// UnreadWarnings returns the user's unexpired warnings that have not been read.
func (e *Engine) UnreadWarnings(userID string) []types.UserWarning {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.filterWarningsLocked(userID, true)
}

// WarningCount returns how many warnings the user has ever been issued.
func (e *Engine) WarningCount(userID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.counts[userID]
}

// MarkWarningRead marks a warning as read. It is idempotent and reports whether
// the warning exists.
func (e *Engine) MarkWarningRead(ctx context.Context, id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.warnings {
		if e.warnings[i].ID != id {
			continue
		}

		if !e.warnings[i].IsRead {
			e.warnings[i].IsRead = true
			e.persistLocked(ctx)
		}

		return true
	}

	return false
}

// SweepExpired removes every expired warning and returns how many were removed.
// Warning counters are not affected.
func (e *Engine) SweepExpired(ctx context.Context) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	kept := make([]types.UserWarning, 0, len(e.warnings))
	for _, warning := range e.warnings {
		if !warning.IsExpired(now) {
			kept = append(kept, warning)
		}
	}

	removed := len(e.warnings) - len(kept)
	if removed == 0 {
		return 0
	}

	e.warnings = kept
	e.persistLocked(ctx)

	e.logger.Info("Swept expired warnings", zap.Int("removed", removed))

	return removed
}

func (e *Engine) issueWarningLocked(userID string, result types.ModerationResult) types.UserWarning {
	e.counts[userID]++
	n := e.counts[userID]

	warningType := types.WarningTypeInappropriateContent
	if e.scanner.HasSevere(result.DetectedTerms) {
		warningType = types.WarningTypeHateSpeech
	}

	now := e.now()
	warning := types.UserWarning{
		ID:          newID("warning", now),
		UserID:      userID,
		WarningType: warningType,
		Message:     warningMessage(n, result.DetectedTerms),
		Severity:    warningSeverity(n),
		IsRead:      false,
		CreatedAt:   now,
		ExpiresAt:   now.Add(e.warningTTL),
	}

	e.warnings = append([]types.UserWarning{warning}, e.warnings...)

	return warning
}

func (e *Engine) filterWarningsLocked(userID string, unreadOnly bool) []types.UserWarning {
	now := e.now()
	result := make([]types.UserWarning, 0)
	for _, warning := range e.warnings {
		if warning.UserID != userID || warning.IsExpired(now) {
			continue
		}
		if unreadOnly && warning.IsRead {
			continue
		}
		result = append(result, warning)
	}

	return result
}

// warningMessage returns the text for the n-th warning a user receives.
func warningMessage(n int, terms []string) string {
	switch {
	case n <= 1:
		return fmt.Sprintf("Warning: Your content was flagged for containing inappropriate language (%s). "+
			"Please keep your posts respectful.", strings.Join(terms, ", "))
	case n == 2:
		return "Second warning: Your content again violated our community guidelines. " +
			"Repeated violations may result in restrictions on your account."
	default:
		return fmt.Sprintf("Final warning: You have received %d warnings for inappropriate content. "+
			"Further violations may result in suspension of your account.", n)
	}
}

// warningSeverity escalates with the user's cumulative warning count.
func warningSeverity(n int) types.Severity {
	switch {
	case n <= 1:
		return types.SeverityLow
	case n == 2:
		return types.SeverityMedium
	default:
		return types.SeverityHigh
	}
}
