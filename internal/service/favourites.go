package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/dojodb/internal/apperror"
	"github.com/sakif/dojodb/internal/model"
	"github.com/sakif/dojodb/internal/repository"
)

// FavouritesService manages a user's favourite-movie list.
//
// Entries are keyed by movie ID, never by title: two movies may share a
// title and still both be favourites.
type FavouritesService struct {
	users  repository.UserRepository
	movies repository.MovieRepository
	logger *slog.Logger
}

func NewFavouritesService(users repository.UserRepository, movies repository.MovieRepository, logger *slog.Logger) *FavouritesService {
	return &FavouritesService{
		users:  users,
		movies: movies,
		logger: logger,
	}
}

// List returns the caller's favourites in the order they were added.
func (s *FavouritesService) List(ctx context.Context, caller *model.User, userID string) ([]model.Favourite, error) {
	if err := authorize(caller, userID); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Favourites == nil {
		return []model.Favourite{}, nil
	}
	return user.Favourites, nil
}

// Add appends movieID to the caller's favourites and returns the new list.
//
// The checks run in a fixed order:
//  1. ownership, so another user's list fails with Forbidden whether or not
//     the movie exists
//  2. the movie must be in the catalog (NotFound)
//  3. the movie must not already be in the list (AlreadyExists)
func (s *FavouritesService) Add(ctx context.Context, caller *model.User, userID, movieID string) ([]model.Favourite, error) {
	if err := authorize(caller, userID); err != nil {
		return nil, err
	}

	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return nil, apperror.ValidationFailed("movieId", "movie ID is required")
	}

	movie, err := s.movies.GetByID(ctx, movieID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.HasFavourite(movie.ID) {
		return nil, apperror.AlreadyExists(fmt.Sprintf("%s is already in favourites.", movie.Title))
	}

	// A concurrent Add of the same movie loses on the store's primary key
	// and comes back as AlreadyExists too.
	list, err := s.users.AddFavourite(ctx, userID, model.Favourite{MovieID: movie.ID, Title: movie.Title})
	if err != nil {
		if errors.Is(err, apperror.ErrStoreUnavailable) {
			s.logger.Error("failed to add favourite",
				slog.String("userID", userID),
				slog.String("movieID", movie.ID),
				slog.String("error", apperror.Detail(err)),
			)
		}
		return nil, err
	}

	s.logger.Info("favourite added",
		slog.String("userID", userID),
		slog.String("movieID", movie.ID),
	)
	return list, nil
}

// Remove drops movieID from the caller's favourites. It returns the removed
// entry and what is left, possibly an empty list. A movie that is not in the
// list fails with NotFound.
func (s *FavouritesService) Remove(ctx context.Context, caller *model.User, userID, movieID string) (model.Favourite, []model.Favourite, error) {
	if err := authorize(caller, userID); err != nil {
		return model.Favourite{}, nil, err
	}

	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return model.Favourite{}, nil, apperror.ValidationFailed("movieId", "movie ID is required")
	}

	removed, list, err := s.users.RemoveFavourite(ctx, userID, movieID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return model.Favourite{}, nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: "Movie not found in favourites.",
				Field:   "movieId",
			}
		}
		if errors.Is(err, apperror.ErrStoreUnavailable) {
			s.logger.Error("failed to remove favourite",
				slog.String("userID", userID),
				slog.String("movieID", movieID),
				slog.String("error", apperror.Detail(err)),
			)
		}
		return model.Favourite{}, nil, err
	}

	s.logger.Info("favourite removed",
		slog.String("userID", userID),
		slog.String("movieID", movieID),
	)
	return removed, list, nil
}
