package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/dojodb/internal/auth"
	"github.com/sakif/dojodb/internal/model"
	"github.com/sakif/dojodb/internal/service"
)

// UserHandler serves the owner-only profile routes under /users/{id}.
type UserHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
}

func NewUserHandler(accounts *service.AccountService, logger *slog.Logger) *UserHandler {
	return &UserHandler{accounts: accounts, logger: logger}
}

// HandleGet returns the caller's profile.
//
// HTTP: GET /users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserFromContext(r.Context())

	user, err := h.accounts.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleUpdate applies a partial profile update.
//
// HTTP: PUT /users/{id}
// REQUEST BODY: any subset of {"username","email","password","birthday"};
// "birthday": "" clears the birthday.
// RESPONSE: 200 {"changed": ["email"], "user": {...}}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserFromContext(r.Context())

	var upd model.ProfileUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, h.logger, err)
		return
	}

	change, err := h.accounts.UpdateProfile(r.Context(), caller, chi.URLParam(r, "id"), upd)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, change)
}

// HandleDelete removes the caller's account.
//
// HTTP: DELETE /users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.accounts.Delete(r.Context(), caller, id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("User with ID: %s successfully removed.", id),
	})
}
