// Package apperror defines the domain error kinds shared by every layer.
//
// Services and repositories return *AppError values that wrap one of the
// sentinel kinds below. Handlers never inspect messages to decide what to do;
// they ask errors.Is(err, ErrConflict) and friends, then show Message (or
// Fields, for form validation) to the user.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

type AppError struct {
	Err     error             // actual error
	Message string            // Human-readable error message
	Field   string            // Optional: field causing the error
	Fields  map[string]string // Optional: one message per invalid form field
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %v", resource, id),
	}
}

// ValidationFailed reports one invalid input. An empty field means the
// request as a whole was malformed.
func ValidationFailed(field, message string) *AppError {
	e := &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
	if field != "" {
		e.Fields = map[string]string{field: message}
	}
	return e
}

// Invalid bundles several field errors produced by one form submission.
// Message carries a generic summary; Fields is what forms render.
func Invalid(fields map[string]string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: "validation failed",
		Fields:  fields,
	}
}

// Conflict reports a uniqueness violation. The message is shown to the user
// verbatim, so callers pass the exact wording they want displayed.
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized reports failed authentication (bad credentials, missing session).
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// FieldsOf returns the per-field messages carried by err, or nil when err is
// not a validation error.
func FieldsOf(err error) map[string]string {
	var appErr *AppError
	if errors.As(err, &appErr) && errors.Is(appErr, ErrValidation) {
		return appErr.Fields
	}
	return nil
}

// MessageOf returns the user-facing message of an AppError anywhere in err's
// chain, or "" if there is none.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}
