package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/dojodb/internal/apperror"
	"github.com/sakif/dojodb/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of this type, so no other package can
// read or shadow the authenticated user.
type contextKey string

const userKey contextKey = "user"

// Authenticate is a middleware that runs strategy before the route handler.
//
// On success the resolved user is stored in the request context. On failure
// the handler never runs:
//   - credential or token failures, including a token for a deleted account,
//     get 401 Unauthorized
//   - malformed input to the local strategy gets 422
//   - store outages get 503 with a generic message
//
// Chi applies it like any other middleware:
//
//	r.With(auth.Authenticate(jwtStrategy, logger)).Get("/users/{id}", h.HandleGet)
func Authenticate(strategy Strategy, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := strategy.Authenticate(r)
			if err != nil {
				failure := gateFailure(err)
				if failure.status >= http.StatusInternalServerError {
					logger.Error("authentication failed",
						slog.String("strategy", strategy.Name()),
						slog.String("error", apperror.Detail(err)),
					)
				} else {
					logger.Debug("authentication rejected",
						slog.String("strategy", strategy.Name()),
						slog.String("reason", apperror.Detail(err)),
					)
				}
				writeGateError(w, failure)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext retrieves the authenticated user from the request context.
// Returns (nil, false) on routes that are not behind Authenticate.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// WithUser returns a copy of ctx carrying user. Handler tests use it to skip
// the gate.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// gateError is the body of a rejected request, in the same shape the
// handlers use for errors.
type gateError struct {
	status  int
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// gateFailure decides the response for a failed strategy. An account that no
// longer exists is a credential failure here, not a 404.
func gateFailure(err error) gateError {
	status, kind := apperror.Status(err)
	var appErr *apperror.AppError
	switch {
	case status == http.StatusServiceUnavailable:
		return gateError{status: status, Error: kind, Message: "The dojo is temporarily unavailable. Try again later."}
	case errors.Is(err, apperror.ErrNotFound):
		return gateError{status: http.StatusUnauthorized, Error: "unauthorized", Message: "valid authentication required"}
	case status < http.StatusInternalServerError && errors.As(err, &appErr):
		return gateError{status: status, Error: kind, Message: appErr.Message, Field: appErr.Field}
	}
	return gateError{status: http.StatusInternalServerError, Error: "internal_error", Message: "An internal error occurred"}
}

func writeGateError(w http.ResponseWriter, failure gateError) {
	w.Header().Set("Content-Type", "application/json")
	if failure.status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="dojodb"`)
	}
	w.WriteHeader(failure.status)
	json.NewEncoder(w).Encode(failure)
}
