package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/logger"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("httpapi: encode response: %v", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

// writeDomainError maps domain sentinels to status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found_error", "%v", err)
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrScanInProgress):
		httpError(w, http.StatusConflict, "conflict_error", "%v", err)
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrDirectoryUnavailable):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	default:
		logger.Error("httpapi: %v", err)
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

// writeFailure reports a failed forced operation.
func writeFailure(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{
		"success": false,
		"error":   err.Error(),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
