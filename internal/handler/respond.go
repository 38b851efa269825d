package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"landing-v2/internal/middleware"
	"landing-v2/internal/page"
	apperrors "landing-v2/pkg/errors"
	"landing-v2/pkg/logger"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 16 << 10

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, r *http.Request, log *logger.Logger, appErr *apperrors.AppError) {
	entry := log.WithFields(map[string]interface{}{
		"path":       r.URL.Path,
		"request_id": middleware.GetRequestID(r.Context()),
	}).WithError(appErr)
	if appErr.StatusCode >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	respondJSON(w, appErr.StatusCode, apperrors.NewErrorResponse(appErr, middleware.GetRequestID(r.Context())))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) *apperrors.AppError {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apperrors.NewValidationError("Invalid request body", map[string]interface{}{"reason": err.Error()})
	}
	return nil
}

// pageError maps a failed page call to a response
func pageError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, page.ErrClosed):
		return apperrors.NewNotFoundError("Page is no longer loaded, reload to continue")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		appErr := apperrors.NewInternalError("Page did not respond in time", err)
		appErr.StatusCode = http.StatusGatewayTimeout
		return appErr
	default:
		return apperrors.NewInternalError("Page event failed", err)
	}
}
