// Package seed fills an empty movie catalog from a JSON file so a fresh
// deployment has something to favourite.
//
// The file is a JSON array of movies in the catalog's document shape:
//
//	[
//	  {
//	    "_id": {"$oid": "65f1c0..."},
//	    "title": "Seven Samurai",
//	    "description": "...",
//	    "genre": {"name": "Action", "description": "..."},
//	    "director": {"name": "Akira Kurosawa", "bio": "...", "birthYear": 1910, "deathYear": 1998},
//	    "image": {"imageUrl": "...", "imageAttribution": "..."},
//	    "featured": true,
//	    "releaseYear": 1954,
//	    "actors": [{"name": "Toshiro Mifune", "role": "Kikuchiyo"}]
//	  }
//	]
//
// "_id" may be a plain string, a {"$oid": ...} object as written by
// mongoexport, or absent; "id" is accepted too.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sakif/dojodb/internal/apperror"
	"github.com/sakif/dojodb/internal/model"
	"github.com/sakif/dojodb/internal/repository"
)

// Result counts what LoadMovies did.
type Result struct {
	Inserted int
	Skipped  int
}

type document struct {
	MongoID json.RawMessage `json:"_id"`
	model.Movie
}

type objectID struct {
	OID string `json:"$oid"`
}

// id resolves the movie ID from "_id" or "id".
func (d document) id() (string, error) {
	raw := bytes.TrimSpace(d.MongoID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return d.Movie.ID, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var oid objectID
	if err := json.Unmarshal(raw, &oid); err == nil && oid.OID != "" {
		return oid.OID, nil
	}
	return "", fmt.Errorf("unsupported _id %s", raw)
}

// LoadMovies reads the movies in path and inserts them into repo.
// Movies whose ID already exists are skipped, so running it at every
// startup is safe.
func LoadMovies(ctx context.Context, path string, repo repository.MovieRepository, logger *slog.Logger) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("seed: reading %s: %w", path, err)
	}

	var docs []document
	if err := json.Unmarshal(data, &docs); err != nil {
		return Result{}, fmt.Errorf("seed: parsing %s: %w", path, err)
	}

	var res Result
	for i, doc := range docs {
		id, err := doc.id()
		if err != nil {
			return res, fmt.Errorf("seed: movie #%d: %w", i, err)
		}
		movie := doc.Movie
		movie.ID = strings.TrimSpace(id)
		if strings.TrimSpace(movie.Title) == "" {
			return res, fmt.Errorf("seed: movie #%d has no title", i)
		}

		if err := repo.Create(ctx, &movie); err != nil {
			if errors.Is(err, apperror.ErrConflict) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("seed: inserting %q: %w", movie.Title, err)
		}
		res.Inserted++
	}

	logger.Info("movie catalog seeded",
		slog.String("file", path),
		slog.Int("inserted", res.Inserted),
		slog.Int("skipped", res.Skipped),
	)
	return res, nil
}
