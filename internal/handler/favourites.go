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

// FavouritesResponse carries the caller's list after every favourites call.
type FavouritesResponse struct {
	Message    string            `json:"message,omitempty"`
	Favourites []model.Favourite `json:"favourites"`
}

type FavouritesHandler struct {
	favourites *service.FavouritesService
	logger     *slog.Logger
}

func NewFavouritesHandler(favourites *service.FavouritesService, logger *slog.Logger) *FavouritesHandler {
	return &FavouritesHandler{favourites: favourites, logger: logger}
}

// HandleList returns the caller's favourites.
//
// HTTP: GET /users/{id}/favourites
func (h *FavouritesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserFromContext(r.Context())

	list, err := h.favourites.List(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, FavouritesResponse{Favourites: list})
}

// HandleAdd adds a movie to the caller's favourites.
//
// HTTP: POST /users/{id}/favourites/{movieID}
// RESPONSE: 201 {"message": "Seven Samurai added to favourites.", "favourites": [...]}
func (h *FavouritesHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserFromContext(r.Context())

	list, err := h.favourites.Add(r.Context(), caller, chi.URLParam(r, "id"), chi.URLParam(r, "movieID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := FavouritesResponse{Favourites: list}
	// Add appends, so the new entry is last.
	if len(list) > 0 {
		resp.Message = fmt.Sprintf("%s added to favourites.", list[len(list)-1].Title)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleRemove removes a movie from the caller's favourites.
//
// HTTP: DELETE /users/{id}/favourites/{movieID}
func (h *FavouritesHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserFromContext(r.Context())
	removed, list, err := h.favourites.Remove(r.Context(), caller, chi.URLParam(r, "id"), chi.URLParam(r, "movieID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, FavouritesResponse{
		Message:    fmt.Sprintf("%s has been removed from favourites.", removed.Title),
		Favourites: list,
	})
}
