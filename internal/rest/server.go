// Package rest serves the moderation engine and classifier over HTTP.
package rest

import (
	"net/http"

	"github.com/alumnet/modguard/internal/ai/classifier"
	"github.com/alumnet/modguard/internal/moderation"
	"github.com/alumnet/modguard/internal/rest/handler"
	"github.com/alumnet/modguard/internal/rest/middleware"
	"github.com/klauspost/compress/gzhttp"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Server implements the REST API service.
type Server struct {
	moderationHandler *handler.ModerationHandler
	alertHandler      *handler.AlertHandler
	warningHandler    *handler.WarningHandler
}

// NewServer creates the REST API handler.
func NewServer(engine *moderation.Engine, cls *classifier.Classifier, logger *zap.Logger) http.Handler {
	logger = logger.Named("rest")

	server := &Server{
		moderationHandler: handler.NewModerationHandler(engine, cls, logger),
		alertHandler:      handler.NewAlertHandler(engine, logger),
		warningHandler:    handler.NewWarningHandler(engine, logger),
	}

	loggingMiddleware := middleware.NewLogging(logger)

	router := bunrouter.New()

	router.Use(loggingMiddleware.AsRESTMiddleware).WithGroup("/v1", func(g *bunrouter.Group) {
		g.POST("/moderate", server.moderationHandler.Moderate)
		g.POST("/classify", server.moderationHandler.Classify)

		g.GET("/alerts", server.alertHandler.ListAlerts)
		g.GET("/alerts/pending", server.alertHandler.ListPendingAlerts)
		g.PATCH("/alerts/:id", server.alertHandler.UpdateAlert)

		g.GET("/stats", server.alertHandler.GetStats)
		g.GET("/stats/chart.png", server.alertHandler.GetChart)

		g.GET("/users/:id/warnings", server.warningHandler.ListWarnings)
		g.POST("/warnings/sweep", server.warningHandler.Sweep)
		g.POST("/warnings/:id/read", server.warningHandler.MarkRead)
	})

	router.GET("/healthz", func(w http.ResponseWriter, _ bunrouter.Request) error {
		w.WriteHeader(http.StatusNoContent)
		return nil
	})

	return gzhttp.GzipHandler(router)
}
