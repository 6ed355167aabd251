package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sakif/dojodb/internal/apperror"
	"github.com/sakif/dojodb/internal/auth"
	"github.com/sakif/dojodb/internal/model"
	"github.com/sakif/dojodb/internal/repository"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// In-memory implementations of the repository interfaces. They mirror the
// SQLite store's contract: UNIQUE username/email, ordered favourites keyed
// by movie ID, copies in and out so tests cannot alias stored state.

type fakeUserRepo struct {
	users  map[string]*model.User
	nextID int
	// set to a non-nil error to simulate a store outage on every call
	err error
	// number of UpdateFields calls, to prove NoOp writes nothing
	updates int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func clone(u *model.User) *model.User {
	c := *u
	c.Favourites = append([]model.Favourite{}, u.Favourites...)
	return &c
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.err != nil {
		return f.err
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return apperror.Conflict(model.FieldUsername, user.Username)
		}
		if u.Email == user.Email {
			return apperror.Conflict(model.FieldEmail, user.Email)
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	if user.Favourites == nil {
		user.Favourites = []model.Favourite{}
	}
	f.users[user.ID] = clone(user)
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return clone(u), nil
}

func (f *fakeUserRepo) find(match func(*model.User) bool, key string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, apperror.NotFound("user", key)
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Username == username }, username)
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Email == email }, email)
}

func (f *fakeUserRepo) UpdateFields(_ context.Context, id string, fields repository.UserFields) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updates++
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	if fields.Username != nil {
		u.Username = *fields.Username
	}
	if fields.Email != nil {
		u.Email = *fields.Email
	}
	if fields.PasswordHash != nil {
		u.PasswordHash = *fields.PasswordHash
	}
	if fields.SetBirthday {
		u.Birthday = fields.Birthday
	}
	u.UpdatedAt = time.Now().UTC()
	return clone(u), nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) AddFavourite(_ context.Context, userID string, fav model.Favourite) ([]model.Favourite, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[userID]
	if !ok {
		return nil, apperror.NotFound("user", userID)
	}
	if u.HasFavourite(fav.MovieID) {
		return nil, apperror.AlreadyExists(fav.Title + " is already in favourites.")
	}
	u.Favourites = append(u.Favourites, fav)
	return append([]model.Favourite{}, u.Favourites...), nil
}

func (f *fakeUserRepo) RemoveFavourite(_ context.Context, userID, movieID string) (model.Favourite, []model.Favourite, error) {
	if f.err != nil {
		return model.Favourite{}, nil, f.err
	}
	u, ok := f.users[userID]
	if !ok {
		return model.Favourite{}, nil, apperror.NotFound("user", userID)
	}
	for i, fav := range u.Favourites {
		if fav.MovieID == movieID {
			u.Favourites = append(u.Favourites[:i:i], u.Favourites[i+1:]...)
			return fav, append([]model.Favourite{}, u.Favourites...), nil
		}
	}
	return model.Favourite{}, nil, apperror.NotFound("favourite", movieID)
}

type fakeMovieRepo struct {
	movies map[string]*model.Movie
}

func newFakeMovieRepo(movies ...model.Movie) *fakeMovieRepo {
	f := &fakeMovieRepo{movies: make(map[string]*model.Movie)}
	for i := range movies {
		f.movies[movies[i].ID] = &movies[i]
	}
	return f
}

func (f *fakeMovieRepo) GetByID(_ context.Context, id string) (*model.Movie, error) {
	m, ok := f.movies[id]
	if !ok {
		return nil, apperror.NotFound("movie", id)
	}
	c := *m
	return &c, nil
}

func (f *fakeMovieRepo) Create(_ context.Context, movie *model.Movie) error {
	if _, ok := f.movies[movie.ID]; ok {
		return apperror.Conflict("id", movie.ID)
	}
	c := *movie
	f.movies[movie.ID] = &c
	return nil
}

// =========================================================================
// TEST HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("service-test-secret-0123456789", 0)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

type testEnv struct {
	users     *fakeUserRepo
	movies    *fakeMovieRepo
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	accounts  *AccountService
	favs      *FavouritesService
}

// newTestEnv wires both services over shared fakes. The catalog holds M1
// and M2, and two movies that share a title.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		users: newFakeUserRepo(),
		movies: newFakeMovieRepo(
			model.Movie{ID: "M1", Title: "Seven Samurai"},
			model.Movie{ID: "M2", Title: "Rashomon"},
			model.Movie{ID: "H1", Title: "Hamlet"},
			model.Movie{ID: "H2", Title: "Hamlet"},
		),
		tokens:    newTestTokens(t),
		passwords: auth.NewPasswordServiceWithCost(4),
	}
	env.accounts = NewAccountService(env.users, env.tokens, env.passwords, testLogger())
	env.favs = NewFavouritesService(env.users, env.movies, testLogger())
	return env
}

// register creates a user and returns the stored record.
func (e *testEnv) register(t *testing.T, username, email string) *model.User {
	t.Helper()
	res, err := e.accounts.Register(context.Background(), RegisterRequest{
		Username: username,
		Password: "secret123",
		Email:    email,
	})
	if err != nil {
		t.Fatalf("Register(%s) error = %v", username, err)
	}
	return res.User
}

func ptr[T any](v T) *T { return &v }
