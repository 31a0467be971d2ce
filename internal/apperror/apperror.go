// Package apperror defines the error taxonomy shared by every layer of the
// portfolio client.
//
// ERROR CATEGORIES:
//   - Validation errors are caught client-side before any request is issued.
//   - API errors come back from the remote server and are mapped from their
//     HTTP status to one of the sentinels below (FromStatus).
//   - Decode errors cover malformed OAuth tokens and corrupt persisted JSON.
//
// Callers check the category with errors.Is and pull the human-readable
// message out with errors.As (or MessageOr).
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrDecode       = errors.New("decode error")
	ErrUpstream     = errors.New("upstream error")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Status  int    // Optional: HTTP status returned by the remote API
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
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

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission,
// e.g. a non-admin trying to delete a project.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is returned when an action needs a session and none exists.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// DecodeFailed wraps a parse failure (token payload, persisted JSON).
// The cause is kept in the message only; the chain matches ErrDecode.
func DecodeFailed(what string, cause error) *AppError {
	msg := fmt.Sprintf("failed to decode %s", what)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &AppError{
		Err:     ErrDecode,
		Message: msg,
	}
}

// FromStatus translates a remote API status code back into our taxonomy.
//
// This is the mirror image of a server's error writer: the server maps
// ErrNotFound → 404, the client maps 404 → ErrNotFound. The message is the
// one the server sent (may be empty; see MessageOr).
func FromStatus(status int, message string) *AppError {
	var sentinel error
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		sentinel = ErrValidation
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case http.StatusForbidden:
		sentinel = ErrForbidden
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusConflict:
		sentinel = ErrConflict
	default:
		sentinel = ErrUpstream
	}
	return &AppError{
		Err:     sentinel,
		Message: message,
		Status:  status,
	}
}

// MessageOr returns the human-readable message carried by err, or fallback
// when err carries none. Notifications use it so the user sees the server's
// words when there are any and a generic line otherwise.
func MessageOr(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
