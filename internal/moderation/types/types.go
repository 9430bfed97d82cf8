// Package types holds the durable and ephemeral records exchanged by the moderation engine.
// JSON field names match the stored blobs and must not change without a migration.
package types

import (
	"slices"
	"time"
)

// Severity grades how serious a scan result, alert or warning is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// IsValid reports whether s is a known severity.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// ContentType identifies the kind of submission that was flagged.
type ContentType string

const (
	ContentTypePost    ContentType = "post"
	ContentTypeComment ContentType = "comment"
)

// IsValid reports whether c is a known content type.
func (c ContentType) IsValid() bool {
	return c == ContentTypePost || c == ContentTypeComment
}

// AlertStatus is the admin-controlled review state of an alert.
type AlertStatus string

const (
	AlertStatusPending   AlertStatus = "pending"
	AlertStatusReviewed  AlertStatus = "reviewed"
	AlertStatusDismissed AlertStatus = "dismissed"
)

// IsResolution reports whether s is a status an admin may set.
func (s AlertStatus) IsResolution() bool {
	return s == AlertStatusReviewed || s == AlertStatusDismissed
}

// WarningType categorizes an issued warning.
type WarningType string

const (
	WarningTypeInappropriateContent WarningType = "inappropriate_content"
	WarningTypeHateSpeech           WarningType = "hate_speech"
	// WarningTypeSpam is accepted when decoding but never assigned by the engine.
	WarningTypeSpam WarningType = "spam"
)

// ModerationResult is the outcome of scanning one piece of content.
type ModerationResult struct {
	IsInappropriate bool     `json:"isInappropriate"`
	DetectedTerms   []string `json:"detectedTerms"`
	Severity        Severity `json:"severity"`
	Confidence      float64  `json:"confidence"`
}

// ModerationAlert records a flagged submission for admin review.
type ModerationAlert struct {
	ID             string      `json:"id"`
	UserID         string      `json:"userId"`
	UserName       string      `json:"userName"`
	ContentType    ContentType `json:"contentType"`
	ContentID      string      `json:"contentId"`
	FlaggedContent string      `json:"flaggedContent"`
	DetectedTerms  []string    `json:"detectedTerms"`
	Severity       Severity    `json:"severity"`
	Status         AlertStatus `json:"status"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// Clone returns a copy that shares no mutable state with a.
func (a ModerationAlert) Clone() ModerationAlert {
	a.DetectedTerms = slices.Clone(a.DetectedTerms)
	return a
}

// UserWarning is a warning issued to a user after flagged content.
type UserWarning struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	WarningType WarningType `json:"warningType"`
	Message     string      `json:"message"`
	Severity    Severity    `json:"severity"`
	IsRead      bool        `json:"isRead"`
	CreatedAt   time.Time   `json:"createdAt"`
	ExpiresAt   time.Time   `json:"expiresAt"`
}

// IsExpired reports whether the warning has expired at the given instant.
func (w UserWarning) IsExpired(now time.Time) bool {
	return !w.ExpiresAt.After(now)
}

// Submission describes content submitted for moderation.
type Submission struct {
	Content     string      `json:"content"`
	UserID      string      `json:"userId"`
	UserName    string      `json:"userName"`
	ContentType ContentType `json:"contentType"`
	ContentID   string      `json:"contentId,omitempty"`
}

// Decision is what the caller of the moderation facade acts on.
type Decision struct {
	ShouldBlock bool         `json:"shouldBlock"`
	Warning     *UserWarning `json:"warning,omitempty"`
}

// Stats summarizes the alert and warning ledgers at call time.
type Stats struct {
	TotalAlerts         int `json:"totalAlerts"`
	PendingAlerts       int `json:"pendingAlerts"`
	TodayAlerts         int `json:"todayAlerts"`
	HighSeverityPending int `json:"highSeverityPending"`
	TotalWarnings       int `json:"totalWarnings"`
	ActiveWarnings      int `json:"activeWarnings"`
}

// DailyActivity holds per-day alert and warning counts.
type DailyActivity struct {
	Day      time.Time `json:"day"`
	Alerts   int       `json:"alerts"`
	Warnings int       `json:"warnings"`
}
