package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError, so all error
// responses share one shape:
//
//	{"error": "not_found", "message": "movie not found with id M9", "field": ""}
//
// The client can always parse the same fields, whatever the status code.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/dojodb/internal/apperror"
)

// maxBodyBytes caps every request body the handlers decode.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"`         // Human-readable description
	Field   string `json:"field,omitempty"` // Input field at fault, when there is one
}

// MessageResponse is the body of operations that only report success.
type MessageResponse struct {
	Message string `json:"message"`
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
			// The headers are already sent, we can only log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code and
// sends it.
//
// Only AppError messages reach the client. Store outages and unknown errors
// get a generic message; their detail, including any Cause, goes to the log.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, kind := apperror.Status(err)

	var appErr *apperror.AppError
	if status >= http.StatusInternalServerError || !errors.As(err, &appErr) {
		logger.Error("request failed",
			slog.Int("status", status),
			slog.String("error", apperror.Detail(err)),
		)
		message := "Something went wrong at the dojo. Try again later."
		if errors.Is(err, apperror.ErrStoreUnavailable) {
			message = "The dojo is temporarily unavailable. Try again later."
		}
		if status < http.StatusInternalServerError {
			status, kind = http.StatusInternalServerError, "internal_error"
		}
		writeJSON(w, status, ErrorResponse{Error: kind, Message: message})
		return
	}

	writeJSON(w, status, ErrorResponse{
		Error:   kind,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

// decodeJSON reads a single JSON object from the body into dst.
// Malformed or oversized bodies become validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.BadBody(err)
	}
	return nil
}
