// Package middleware provides bunrouter middlewares for the REST API.
package middleware

import (
	"net/http"
	"time"

	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Logging logs each request and turns handler errors into 500 responses.
type Logging struct {
	logger *zap.Logger
}

// NewLogging creates a new logging middleware.
func NewLogging(logger *zap.Logger) *Logging {
	return &Logging{
		logger: logger,
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler.
func (m *Logging) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		err := next(rec, req)
		if err != nil {
			m.logger.Error("Request failed",
				zap.String("method", req.Method),
				zap.String("route", req.Route()),
				zap.Error(err))

			if !rec.written {
				http.Error(rec, "Internal server error", http.StatusInternalServerError)
			}
		}

		m.logger.Debug("Handled request",
			zap.String("method", req.Method),
			zap.String("route", req.Route()),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))

		return nil
	}
}

// statusRecorder captures the response status.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.written = true
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	r.written = true
	return r.ResponseWriter.Write(p)
}
