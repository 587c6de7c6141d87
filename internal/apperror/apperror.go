// Package apperror defines the error taxonomy shared by every layer.
//
// The service and repository layers return *AppError values wrapping one of the
// sentinels below. Handlers never inspect messages; they map the sentinel to an
// HTTP status with errors.Is (see handler/response.go).
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation error")
	ErrPersistenceWrite = errors.New("persistence write failed")
	ErrPersistenceRead  = errors.New("persistence read failed")
	ErrExport           = errors.New("export failed")
	ErrUnauthorized     = errors.New("unauthorized")
)

type AppError struct {
	Err     error  // sentinel, one of the Err* values above
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying driver/library error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause so errors.Is/As walk either.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// WriteFailed reports that a create call against the document store failed.
// Nothing is partially committed, so callers never roll back.
func WriteFailed(collection string, cause error) *AppError {
	return &AppError{
		Err:     ErrPersistenceWrite,
		Message: fmt.Sprintf("saving %s document failed", collection),
		Cause:   cause,
	}
}

// ReadFailed reports that a get call failed for reasons other than absence.
func ReadFailed(collection, id string, cause error) *AppError {
	return &AppError{
		Err:     ErrPersistenceRead,
		Message: fmt.Sprintf("loading %s document %s failed", collection, id),
		Cause:   cause,
	}
}

func ExportFailed(cause error) *AppError {
	return &AppError{
		Err:     ErrExport,
		Message: "exporting card image failed",
		Cause:   cause,
	}
}

// Unauthorized is returned when a request lacks a valid draft token.
// HTTP handlers map this to 401 (API) or a redirect to the form (pages).
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// PublicMessage returns the message safe to show to a user: the Message
// without the underlying cause, which may contain driver details.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "An internal error occurred"
}
