// Package types holds the request and response bodies of the REST API.
package types

import (
	"github.com/alumnet/modguard/internal/ai/classifier"
	"github.com/alumnet/modguard/internal/moderation/types"
)

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ModerateRequest submits content for moderation.
type ModerateRequest struct {
	Content     string            `json:"content"`
	UserID      string            `json:"userId"`
	UserName    string            `json:"userName"`
	ContentType types.ContentType `json:"contentType"`
	ContentID   string            `json:"contentId,omitempty"`
}

// ClassifyRequest asks for an advisory assessment of one or many contents.
type ClassifyRequest struct {
	Content  string   `json:"content,omitempty"`
	Contents []string `json:"contents,omitempty"`
}

// ClassifyResult pairs an assessment with the prompt to show the author.
type ClassifyResult struct {
	Assessment classifier.Assessment `json:"assessment"`
	Outcome    classifier.Outcome    `json:"outcome"`
}

// ClassifyBatchResponse holds results in request order.
type ClassifyBatchResponse struct {
	Results []ClassifyResult `json:"results"`
}

// AlertsResponse lists alerts, most recent first.
type AlertsResponse struct {
	Alerts []types.ModerationAlert `json:"alerts"`
}

// UpdateAlertRequest sets an alert's review status.
type UpdateAlertRequest struct {
	Status types.AlertStatus `json:"status"`
}

// WarningsResponse lists a user's active warnings, most recent first.
type WarningsResponse struct {
	Warnings     []types.UserWarning `json:"warnings"`
	WarningCount int                 `json:"warningCount"`
}

// SweepResponse reports how many expired warnings were removed.
type SweepResponse struct {
	Removed int `json:"removed"`
}
