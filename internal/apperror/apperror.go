// Package apperror defines the application's error taxonomy.
//
// Every failure the API can report maps to exactly one of the sentinel
// errors below. The service layer returns these (wrapped in *AppError for a
// human-readable message); the HTTP layer translates them to status codes in
// one place (handler.writeError). Clients branch on the machine-readable
// "error" field, never on free text.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrUpstream     = errors.New("upstream unavailable")
	ErrInternal     = errors.New("internal error")
)

// AppError carries a sentinel error plus a human-readable message.
//
// The sentinel (Err) is what code checks with errors.Is; the Message is what
// ends up in the HTTP response body. Field is optional and names the request
// field a validation error refers to.
type AppError struct {
	Err     error  // sentinel from the list above
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unauthorized covers both bad credentials at login and bad/missing tokens on
// protected routes. The message is deliberately vague — "invalid credentials"
// never says whether the email or the password was wrong.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// Upstream indicates the external agent service failed, timed out, or
// returned no usable output. The wrapped cause stays server-side; the
// client only ever sees the generic message.
func Upstream(message string, cause error) *AppError {
	err := ErrUpstream
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrUpstream, cause)
	}
	return &AppError{
		Err:     err,
		Message: message,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:     ErrInternal,
		Message: message,
	}
}
