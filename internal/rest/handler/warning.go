package handler

import (
	"net/http"

	"github.com/alumnet/modguard/internal/moderation"
	restTypes "github.com/alumnet/modguard/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// WarningHandler handles the user-facing warning endpoints.
type WarningHandler struct {
	engine *moderation.Engine
	logger *zap.Logger
}

// NewWarningHandler creates a new warning handler.
func NewWarningHandler(engine *moderation.Engine, logger *zap.Logger) *WarningHandler {
	return &WarningHandler{
		engine: engine,
		logger: logger,
	}
}

// ListWarnings returns a user's active warnings; ?unread=true limits them to unread ones.
func (h *WarningHandler) ListWarnings(w http.ResponseWriter, req bunrouter.Request) error {
	userID := req.Param("id")

	warnings := h.engine.ActiveWarnings(userID)
	if req.URL.Query().Get("unread") == "true" {
		warnings = h.engine.UnreadWarnings(userID)
	}

	return writeJSON(w, http.StatusOK, restTypes.WarningsResponse{
		Warnings:     warnings,
		WarningCount: h.engine.WarningCount(userID),
	})
}

// MarkRead marks a warning as read.
func (h *WarningHandler) MarkRead(w http.ResponseWriter, req bunrouter.Request) error {
	if !h.engine.MarkWarningRead(req.Context(), req.Param("id")) {
		return writeError(w, http.StatusNotFound, "warning not found")
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Sweep removes expired warnings.
func (h *WarningHandler) Sweep(w http.ResponseWriter, req bunrouter.Request) error {
	removed := h.engine.SweepExpired(req.Context())
	return writeJSON(w, http.StatusOK, restTypes.SweepResponse{Removed: removed})
}
