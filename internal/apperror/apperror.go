// Package apperror defines the domain error kinds shared by every layer.
//
// Services and repositories return *AppError values; the HTTP layer maps the
// wrapped sentinel to a status code with errors.Is. The Message is always
// safe to show to a client. Anything sensitive goes in Cause, which is logged
// but never serialised.
package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("Validation Error")
	ErrConflict         = errors.New("conflict")
	ErrAlreadyExists    = errors.New("already exists")
	ErrForbidden        = errors.New("forbidden")
	ErrNoOp             = errors.New("nothing to update")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrStoreUnavailable = errors.New("store unavailable")
)

type AppError struct {
	Err     error  // sentinel kind, matched with errors.Is
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying error, for logs only
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the kind and the cause so errors.Is matches either.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
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

// Conflict reports a uniqueness violation on field, e.g. a username taken by
// another account.
func Conflict(field, value string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("a user with this %s already exists: %s", field, value),
		Field:   field,
	}
}

func AlreadyExists(message string) *AppError {
	return &AppError{
		Err:     ErrAlreadyExists,
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

func NoOp(message string) *AppError {
	return &AppError{
		Err:     ErrNoOp,
		Message: message,
	}
}

// Unauthorized is returned by the authentication strategies. reason is one of
// the auth package's token failure sentinels, or nil.
func Unauthorized(message string, reason error) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
		Cause:   reason,
	}
}

// InvalidCredentials is the single failure the credential strategy exposes,
// whatever the real reason was. It never reveals whether the username exists.
func InvalidCredentials() *AppError {
	return Unauthorized("Wrong username or password.", nil)
}

// StoreUnavailable wraps a storage failure (connection loss, timeout, disk
// error). The client only ever sees the generic message.
func StoreUnavailable(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrStoreUnavailable,
		Message: "The dojo is temporarily unavailable. Try again later.",
		Cause:   fmt.Errorf("%s: %w", op, cause),
	}
}

// Detail is the log form of err. It includes the Cause of an AppError, which
// Error() leaves out.
func Detail(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Cause != nil {
		return appErr.Message + ": " + appErr.Cause.Error()
	}
	return err.Error()
}

// Status maps err to an HTTP status and a machine-readable error type.
//
// errors.Is walks the whole chain, so wrapped errors
// (fmt.Errorf("...: %w", appErr)) still match.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ErrConflict):
		return http.StatusBadRequest, "conflict"
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusBadRequest, "already_exists"
	case errors.Is(err, ErrNoOp):
		return http.StatusBadRequest, "no_change"
	}
	return http.StatusInternalServerError, "internal_error"
}

// BadBody turns a failure to read or decode a request body into a
// validation error on "body" (or on the mistyped field).
func BadBody(err error) *AppError {
	var maxErr *http.MaxBytesError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &maxErr):
		return ValidationFailed("body", fmt.Sprintf("request body must be at most %d bytes", maxErr.Limit))
	case errors.Is(err, io.EOF):
		return ValidationFailed("body", "request body must not be empty")
	case errors.As(err, &typeErr):
		return ValidationFailed(typeErr.Field, fmt.Sprintf("%s has the wrong type", typeErr.Field))
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return ValidationFailed("body", "request body must be valid JSON")
	}
	return ValidationFailed("body", err.Error())
}
