package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/dojodb/internal/apperror"
	"github.com/sakif/dojodb/internal/model"
)

func TestMovieCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	movies := db.Movies()
	ctx := context.Background()

	death := 1998
	movie := &model.Movie{
		Title:       "Seven Samurai",
		Description: "A village hires seven ronin.",
		Genre:       model.Genre{Name: "Action", Description: "Swords."},
		Director:    model.Director{Name: "Akira Kurosawa", Bio: "Director.", BirthYear: 1910, DeathYear: &death},
		Image:       model.Image{URL: "https://example.com/7s.jpg", Attribution: "Toho"},
		Featured:    true,
		ReleaseYear: 1954,
		Actors: []model.Actor{
			{Name: "Toshiro Mifune", Role: "Kikuchiyo"},
			{Name: "Takashi Shimura", Role: "Kambei"},
		},
	}

	require.NoError(t, movies.Create(ctx, movie))
	require.NotEmpty(t, movie.ID, "Create() should generate an ID")

	found, err := movies.GetByID(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, movie, found)
}

func TestMovieCreate_KeepsPresetID(t *testing.T) {
	db := newTestDB(t)
	movie := createTestMovie(t, db, "64b7f0c2a1", "Rashomon")

	assert.Equal(t, "64b7f0c2a1", movie.ID)

	found, err := db.Movies().GetByID(context.Background(), "64b7f0c2a1")
	require.NoError(t, err)
	assert.Nil(t, found.Director.DeathYear)
	assert.Empty(t, found.Actors)
}

func TestMovieCreate_DuplicateID(t *testing.T) {
	db := newTestDB(t)
	createTestMovie(t, db, "m1", "Ran")

	err := db.Movies().Create(context.Background(), &model.Movie{ID: "m1", Title: "Ran again"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestMovieGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Movies().GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
