// Package handler implements the REST API endpoints.
package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	restTypes "github.com/alumnet/modguard/internal/rest/types"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// maxBodySize bounds request bodies.
const maxBodySize = 1 << 20

// ErrBodyTooLarge is returned when a request body exceeds maxBodySize.
var ErrBodyTooLarge = errors.New("request body too large")

// decodeBody reads and decodes a JSON request body into v.
func decodeBody(req *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(req.Body, maxBodySize+1))
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	if len(data) > maxBodySize {
		return ErrBodyTooLarge
	}

	if err := sonic.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}

	return nil
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(data)

	return err
}

// writeError sends an ErrorResponse.
func writeError(w http.ResponseWriter, status int, message string) error {
	return writeJSON(w, status, restTypes.ErrorResponse{Error: message})
}

// badRequest logs at debug level and sends a 400.
func badRequest(w http.ResponseWriter, logger *zap.Logger, err error) error {
	logger.Debug("Rejected request", zap.Error(err))
	return writeError(w, http.StatusBadRequest, err.Error())
}
