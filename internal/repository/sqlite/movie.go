package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/dojodb/internal/apperror"
	"github.com/sakif/dojodb/internal/model"
	"github.com/sakif/dojodb/internal/repository"
)

var _ repository.MovieRepository = (*MovieDB)(nil)

// MovieDB is the movie catalog. Actors are stored as a JSON array in a TEXT
// column; the catalog is read-mostly and never queried by actor.
type MovieDB struct {
	conn *sql.DB
}

// Create inserts movie. An empty ID is filled with a new xid; a preset ID
// (e.g. from a seed file) is kept as is. A duplicate ID returns
// apperror.ErrConflict.
func (m *MovieDB) Create(ctx context.Context, movie *model.Movie) error {
	if movie.ID == "" {
		movie.ID = xid.New().String()
	}
	if movie.Actors == nil {
		movie.Actors = []model.Actor{}
	}

	actors, err := json.Marshal(movie.Actors)
	if err != nil {
		return fmt.Errorf("sqlite: encoding actors for movie %s: %w", movie.ID, err)
	}

	_, err = m.conn.ExecContext(ctx,
		`INSERT INTO movies (
			id, title, description, genre_name, genre_description,
			director_name, director_bio, director_birth_year, director_death_year,
			image_url, image_attribution, featured, release_year, actors
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		movie.ID,
		movie.Title,
		movie.Description,
		movie.Genre.Name,
		movie.Genre.Description,
		movie.Director.Name,
		movie.Director.Bio,
		movie.Director.BirthYear,
		movie.Director.DeathYear,
		movie.Image.URL,
		movie.Image.Attribution,
		movie.Featured,
		movie.ReleaseYear,
		string(actors),
	)
	if err != nil {
		if constraintCode(err) != 0 {
			return &apperror.AppError{
				Err:     apperror.ErrConflict,
				Message: fmt.Sprintf("movie conflict with id %s", movie.ID),
				Field:   "id",
			}
		}
		return apperror.StoreUnavailable("sqlite: inserting movie "+movie.ID, err)
	}
	return nil
}

// GetByID retrieves a movie by ID.
// Returns apperror.ErrNotFound if the catalog has no such movie.
func (m *MovieDB) GetByID(ctx context.Context, id string) (*model.Movie, error) {
	var (
		movie     model.Movie
		deathYear sql.NullInt64
		actors    string
	)

	err := m.conn.QueryRowContext(ctx,
		`SELECT id, title, description, genre_name, genre_description,
		        director_name, director_bio, director_birth_year, director_death_year,
		        image_url, image_attribution, featured, release_year, actors
		 FROM movies WHERE id = ?`,
		id,
	).Scan(
		&movie.ID,
		&movie.Title,
		&movie.Description,
		&movie.Genre.Name,
		&movie.Genre.Description,
		&movie.Director.Name,
		&movie.Director.Bio,
		&movie.Director.BirthYear,
		&deathYear,
		&movie.Image.URL,
		&movie.Image.Attribution,
		&movie.Featured,
		&movie.ReleaseYear,
		&actors,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("movie", id)
		}
		return nil, apperror.StoreUnavailable("sqlite: getting movie "+id, err)
	}

	if deathYear.Valid {
		y := int(deathYear.Int64)
		movie.Director.DeathYear = &y
	}
	if err := json.Unmarshal([]byte(actors), &movie.Actors); err != nil {
		return nil, fmt.Errorf("sqlite: decoding actors for movie %s: %w", id, err)
	}

	return &movie, nil
}
