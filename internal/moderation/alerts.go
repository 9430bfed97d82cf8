package moderation

import (
	"context"
	"slices"
	"time"

	"github.com/alumnet/modguard/internal/moderation/types"
	"github.com/alumnet/modguard/pkg/utils"
	"go.uber.org/zap"
)

// RecordAlert adds a pending alert for flagged content at the head of the alert list.
// Callers are expected to pass a flagged result.
func (e *Engine) RecordAlert(ctx context.Context, sub types.Submission, result types.ModerationResult) types.ModerationAlert {
	e.mu.Lock()
	defer e.mu.Unlock()

	alert := e.recordAlertLocked(sub, result)
	e.persistLocked(ctx)

	return alert
}

// PendingAlerts returns alerts awaiting review, most recent first.
func (e *Engine) PendingAlerts() []types.ModerationAlert {
	e.mu.Lock()
	defer e.mu.Unlock()

	pending := make([]types.ModerationAlert, 0)
	for _, alert := range e.alerts {
		if alert.Status == types.AlertStatusPending {
			pending = append(pending, alert.Clone())
		}
	}

	return pending
}

// AllAlerts returns every alert, most recent first.
func (e *Engine) AllAlerts() []types.ModerationAlert {
	e.mu.Lock()
	defer e.mu.Unlock()

	all := make([]types.ModerationAlert, 0, len(e.alerts))
	for _, alert := range e.alerts {
		all = append(all, alert.Clone())
	}

	return all
}

// Alert returns the alert with the given id.
func (e *Engine) Alert(id string) (types.ModerationAlert, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, alert := range e.alerts {
		if alert.ID == id {
			return alert.Clone(), true
		}
	}

	return types.ModerationAlert{}, false
}

// UpdateAlertStatus sets the review status of an alert. Any resolution status may be set
// from any state. It returns false when the id is unknown or the status is not a
// resolution, leaving the list unchanged.
func (e *Engine) UpdateAlertStatus(ctx context.Context, id string, status types.AlertStatus) bool {
	if !status.IsResolution() {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.alerts {
		alert := &e.alerts[i]
		if alert.ID != id {
			continue
		}

		alert.Status = status
		alert.UpdatedAt = laterOf(e.now(), alert.UpdatedAt)
		e.persistLocked(ctx)

		e.logger.Info("Updated alert status",
			zap.String("alertID", id),
			zap.String("status", string(status)))

		return true
	}

	return false
}

func (e *Engine) recordAlertLocked(sub types.Submission, result types.ModerationResult) types.ModerationAlert {
	now := e.now()

	contentID := sub.ContentID
	if contentID == "" {
		contentID = newID(string(sub.ContentType), now)
	}

	alert := types.ModerationAlert{
		ID:             newID("alert", now),
		UserID:         sub.UserID,
		UserName:       sub.UserName,
		ContentType:    sub.ContentType,
		ContentID:      contentID,
		FlaggedContent: utils.TruncateRunes(sub.Content, e.excerptLength),
		DetectedTerms:  slices.Clone(result.DetectedTerms),
		Severity:       result.Severity,
		Status:         types.AlertStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	e.alerts = append([]types.ModerationAlert{alert}, e.alerts...)

	return alert.Clone()
}

// laterOf returns the later of two instants.
func laterOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return b
	}
	return a
}
