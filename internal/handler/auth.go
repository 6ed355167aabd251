// Package handler contains the HTTP handlers of the DojoDB API.
//
// Handlers only speak HTTP: they decode the request, call one service
// method and encode the result. Authentication has already happened by the
// time a protected handler runs; the resolved user is read back with
// auth.UserFromContext and handed to the service, which does the ownership
// check.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/dojodb/internal/auth"
	"github.com/sakif/dojodb/internal/service"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
}

func NewAuthHandler(accounts *service.AccountService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: logger}
}

// HandleRegister creates an account and returns it with a token.
//
// HTTP: POST /users
// REQUEST BODY: {"username":"alice","password":"secret123","email":"alice@x.com","birthday":"1990-04-12"}
// RESPONSE: 201 {"user": {...}, "token": "<jwt>"}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// HandleLogin issues a token for the user LocalStrategy verified.
//
// HTTP: POST /login
// REQUEST BODY: {"username":"alice","password":"secret123"}
// RESPONSE: 200 {"user": {...}, "token": "<jwt>"}
//
// The credential check itself runs in the auth.Authenticate gate in front of
// this handler; a wrong password never reaches it.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	res, err := h.accounts.Login(r.Context(), user)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("user logged in", slog.String("userID", res.User.ID))
	writeJSON(w, http.StatusOK, res)
}
