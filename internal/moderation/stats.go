package moderation

import (
	"time"

	"github.com/alumnet/modguard/internal/moderation/types"
)

// Stats computes alert and warning counts over the current state.
// "Today" starts at midnight in the clock's location.
func (e *Engine) Stats() types.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	midnight := startOfDay(now)

	stats := types.Stats{
		TotalAlerts: len(e.alerts),
	}

	// Counters never shrink, so swept warnings still count as issued
	for _, count := range e.counts {
		stats.TotalWarnings += count
	}

	for _, alert := range e.alerts {
		pending := alert.Status == types.AlertStatusPending
		if pending {
			stats.PendingAlerts++
			if alert.Severity == types.SeverityHigh {
				stats.HighSeverityPending++
			}
		}
		if !alert.CreatedAt.Before(midnight) {
			stats.TodayAlerts++
		}
	}

	for _, warning := range e.warnings {
		if !warning.IsExpired(now) {
			stats.ActiveWarnings++
		}
	}

	return stats
}

// DailyActivity returns per-day alert and warning counts for the last days days,
// oldest first and ending with today.
func (e *Engine) DailyActivity(days int) []types.DailyActivity {
	if days <= 0 {
		return []types.DailyActivity{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	today := startOfDay(e.now())
	first := today.AddDate(0, 0, -(days - 1))

	activity := make([]types.DailyActivity, days)
	for i := range activity {
		activity[i].Day = first.AddDate(0, 0, i)
	}

	index := func(t time.Time) int {
		day := startOfDay(t.In(today.Location()))
		if day.Before(first) || day.After(today) {
			return -1
		}
		for i := range activity {
			if activity[i].Day.Equal(day) {
				return i
			}
		}
		return -1
	}

	for _, alert := range e.alerts {
		if i := index(alert.CreatedAt); i >= 0 {
			activity[i].Alerts++
		}
	}

	for _, warning := range e.warnings {
		if i := index(warning.CreatedAt); i >= 0 {
			activity[i].Warnings++
		}
	}

	return activity
}

// startOfDay returns local midnight of t's day.
func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
