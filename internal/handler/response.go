package handler

// RESPONSE HELPERS:
// Every JSON endpoint answers through writeJSON / writeError, so the API has
// one error shape:
//   {"error": "validation_error", "field": "fontSize", "message": "fontSize must be a number"}
//
// HTML pages do the same mapping through statusFor, then render a page
// instead of a JSON body.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/business-cards/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // Machine-readable error type (e.g., "not_found")
	Field   string `json:"field,omitempty"` // Offending input, for validation errors
	Message string `json:"message"`         // Human-readable description
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set before the body. Once Encode writes, the
// headers are on the wire and later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// headers are already sent, all we can do is log
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps a domain error to an HTTP status and a machine-readable type.
//
// errors.Is walks the whole chain, so a sentinel wrapped in an AppError
// (which may itself be wrapped with fmt.Errorf) still matches.
//
// Persistence failures are the store's fault, not ours and not the
// client's, hence 502 Bad Gateway.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrPersistenceWrite), errors.Is(err, apperror.ErrPersistenceRead):
		return http.StatusBadGateway, "persistence_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError maps a domain error to a status code and sends it as JSON.
//
// Only the AppError message reaches the client. Driver errors kept in Cause
// can contain SQL or file paths and stay in the logs.
func writeError(w http.ResponseWriter, err error) {
	status, errorType := statusFor(err)

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || status == http.StatusInternalServerError {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Field:   appErr.Field,
		Message: appErr.Message,
	})
}

// fieldOf returns the offending field of a validation error, if any.
func fieldOf(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
