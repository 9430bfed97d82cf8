package handler

import (
	"net/http"
	"strconv"

	"github.com/alumnet/modguard/internal/moderation"
	"github.com/alumnet/modguard/internal/report"
	restTypes "github.com/alumnet/modguard/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// maxChartDays bounds the chart range.
const maxChartDays = 90

// AlertHandler handles the admin review endpoints.
type AlertHandler struct {
	engine *moderation.Engine
	logger *zap.Logger
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(engine *moderation.Engine, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{
		engine: engine,
		logger: logger,
	}
}

// ListAlerts returns every alert, most recent first.
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, _ bunrouter.Request) error {
	return writeJSON(w, http.StatusOK, restTypes.AlertsResponse{Alerts: h.engine.AllAlerts()})
}

// ListPendingAlerts returns alerts awaiting review, most recent first.
func (h *AlertHandler) ListPendingAlerts(w http.ResponseWriter, _ bunrouter.Request) error {
	return writeJSON(w, http.StatusOK, restTypes.AlertsResponse{Alerts: h.engine.PendingAlerts()})
}

// UpdateAlert sets the review status of an alert.
func (h *AlertHandler) UpdateAlert(w http.ResponseWriter, req bunrouter.Request) error {
	var body restTypes.UpdateAlertRequest
	if err := decodeBody(req.Request, &body); err != nil {
		return badRequest(w, h.logger, err)
	}

	if !body.Status.IsResolution() {
		return writeError(w, http.StatusBadRequest, "status must be reviewed or dismissed")
	}

	id := req.Param("id")
	if !h.engine.UpdateAlertStatus(req.Context(), id, body.Status) {
		return writeError(w, http.StatusNotFound, "alert not found")
	}

	alert, _ := h.engine.Alert(id)

	return writeJSON(w, http.StatusOK, alert)
}

// GetStats returns the live moderation counts.
func (h *AlertHandler) GetStats(w http.ResponseWriter, _ bunrouter.Request) error {
	return writeJSON(w, http.StatusOK, h.engine.Stats())
}

// GetChart renders daily activity as a PNG. The optional days query parameter
// defaults to two weeks.
func (h *AlertHandler) GetChart(w http.ResponseWriter, req bunrouter.Request) error {
	days := report.DaysToShow
	if raw := req.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxChartDays {
			return writeError(w, http.StatusBadRequest, "days must be between 1 and 90")
		}
		days = parsed
	}

	buf, err := report.NewChartBuilder(h.engine.DailyActivity(days)).Build()
	if err != nil {
		h.logger.Error("Failed to build activity chart", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "Internal server error")
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(buf.Bytes())

	return err
}
