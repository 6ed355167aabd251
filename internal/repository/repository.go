// Package repository declares the storage interfaces the services depend on.
//
// Implementations live in sub-packages (see repository/sqlite). Every method
// returns an *apperror.AppError for domain outcomes (ErrNotFound, ErrConflict,
// ErrAlreadyExists) and wraps infrastructure failures as
// apperror.ErrStoreUnavailable.
package repository

import (
	"context"
	"time"

	"github.com/sakif/dojodb/internal/model"
)

// UserFields enumerates the columns UpdateFields may change. Nil pointers are
// left untouched. Birthday is only written when SetBirthday is true, which
// allows clearing it with a nil Birthday.
type UserFields struct {
	Username     *string
	Email        *string
	PasswordHash *string
	SetBirthday  bool
	Birthday     *time.Time
}

// Empty reports whether no column would change.
func (f UserFields) Empty() bool {
	return f.Username == nil && f.Email == nil && f.PasswordHash == nil && !f.SetBirthday
}

// UserRepository is the credential store. Username and email uniqueness is
// enforced by the implementation; a violation returns apperror.ErrConflict.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateFields(ctx context.Context, id string, fields UserFields) (*model.User, error)
	Delete(ctx context.Context, id string) error

	// AddFavourite appends fav to the end of the user's list. A duplicate
	// MovieID returns apperror.ErrAlreadyExists.
	AddFavourite(ctx context.Context, userID string, fav model.Favourite) ([]model.Favourite, error)
	// RemoveFavourite returns the removed entry and what is left, or
	// apperror.ErrNotFound if movieID is not in the list.
	RemoveFavourite(ctx context.Context, userID, movieID string) (model.Favourite, []model.Favourite, error)
}

// MovieRepository is the movie catalog as seen by the favourites flow.
type MovieRepository interface {
	GetByID(ctx context.Context, id string) (*model.Movie, error)
	Create(ctx context.Context, movie *model.Movie) error
}
