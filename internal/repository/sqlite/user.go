package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/dojodb/internal/apperror"
	"github.com/sakif/dojodb/internal/model"
	"github.com/sakif/dojodb/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB is the credential store: users plus their favourites lists.
type UserDB struct {
	conn *sql.DB
}

const userColumns = `id, username, email, password_hash, birthday, created_at, updated_at`

// Create inserts a new user. The ID and timestamps are generated here and
// written back into user.
//
// Uniqueness of username and email is left to the UNIQUE indexes: checking
// first and inserting second would race under concurrent registrations.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Favourites = []model.Favourite{}

	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Birthday,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if conflict := userConflict(err, user.Username, user.Email); conflict != nil {
			return conflict
		}
		return apperror.StoreUnavailable("sqlite: inserting user "+user.Username, err)
	}

	return nil
}

// GetByID retrieves a user and their favourites by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return u.getBy(ctx, "id", id)
}

// GetByUsername is the lookup used by the credential strategy.
func (u *UserDB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return u.getBy(ctx, "username", username)
}

func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return u.getBy(ctx, "email", email)
}

// getBy loads one user by a unique column. column is always a constant from
// this file, never user input.
func (u *UserDB) getBy(ctx context.Context, column, value string) (*model.User, error) {
	var (
		user     model.User
		birthday sql.NullTime
	)

	err := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`,
		value,
	).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&birthday,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", value)
		}
		return nil, apperror.StoreUnavailable(fmt.Sprintf("sqlite: getting user by %s", column), err)
	}
	if birthday.Valid {
		b := birthday.Time
		user.Birthday = &b
	}

	user.Favourites, err = listFavourites(ctx, u.conn, user.ID)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// UpdateFields writes only the columns set in fields and returns the stored
// record afterwards.
func (u *UserDB) UpdateFields(ctx context.Context, id string, fields repository.UserFields) (*model.User, error) {
	if fields.Empty() {
		return u.GetByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	if fields.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *fields.Username)
	}
	if fields.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *fields.Email)
	}
	if fields.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *fields.PasswordHash)
	}
	if fields.SetBirthday {
		sets = append(sets, "birthday = ?")
		args = append(args, fields.Birthday)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	result, err := u.conn.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		if conflict := userConflict(err, deref(fields.Username), deref(fields.Email)); conflict != nil {
			return nil, conflict
		}
		return nil, apperror.StoreUnavailable("sqlite: updating user "+id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, apperror.StoreUnavailable("sqlite: checking rows affected", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("user", id)
	}

	return u.GetByID(ctx, id)
}

// Delete removes a user. Their favourites go with them (ON DELETE CASCADE).
func (u *UserDB) Delete(ctx context.Context, id string) error {
	result, err := u.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return apperror.StoreUnavailable("sqlite: deleting user "+id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperror.StoreUnavailable("sqlite: checking rows affected", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}

// AddFavourite appends fav at the end of the user's list inside a transaction
// and returns the resulting list.
func (u *UserDB) AddFavourite(ctx context.Context, userID string, fav model.Favourite) ([]model.Favourite, error) {
	tx, err := u.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperror.StoreUnavailable("sqlite: beginning transaction", err)
	}
	defer tx.Rollback() // no-op after Commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO favourites (user_id, movie_id, title, position)
		 VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM favourites WHERE user_id = ?))`,
		userID, fav.MovieID, fav.Title, userID,
	)
	if err != nil {
		switch constraintCode(err) {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return nil, apperror.AlreadyExists(fmt.Sprintf("%s is already in favourites.", fav.Title))
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return nil, apperror.NotFound("user or movie", userID+"/"+fav.MovieID)
		}
		return nil, apperror.StoreUnavailable("sqlite: adding favourite", err)
	}

	favs, err := listFavourites(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, apperror.StoreUnavailable("sqlite: committing favourite", err)
	}
	return favs, nil
}

// RemoveFavourite deletes the entry for movieID and returns it along with
// what is left.
func (u *UserDB) RemoveFavourite(ctx context.Context, userID, movieID string) (model.Favourite, []model.Favourite, error) {
	removed := model.Favourite{MovieID: movieID}

	tx, err := u.conn.BeginTx(ctx, nil)
	if err != nil {
		return removed, nil, apperror.StoreUnavailable("sqlite: beginning transaction", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`DELETE FROM favourites WHERE user_id = ? AND movie_id = ? RETURNING title`,
		userID, movieID,
	).Scan(&removed.Title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return removed, nil, apperror.NotFound("favourite", movieID)
		}
		return removed, nil, apperror.StoreUnavailable("sqlite: removing favourite", err)
	}

	favs, err := listFavourites(ctx, tx, userID)
	if err != nil {
		return removed, nil, err
	}
	if err := tx.Commit(); err != nil {
		return removed, nil, apperror.StoreUnavailable("sqlite: committing favourite removal", err)
	}
	return removed, favs, nil
}

// listFavourites returns the user's list in insertion order. It never
// returns nil, so an empty list encodes as [] rather than null.
func listFavourites(ctx context.Context, q querier, userID string) ([]model.Favourite, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT movie_id, title FROM favourites WHERE user_id = ? ORDER BY position`,
		userID,
	)
	if err != nil {
		return nil, apperror.StoreUnavailable("sqlite: listing favourites", err)
	}
	defer rows.Close()

	favs := []model.Favourite{}
	for rows.Next() {
		var f model.Favourite
		if err := rows.Scan(&f.MovieID, &f.Title); err != nil {
			return nil, apperror.StoreUnavailable("sqlite: scanning favourite row", err)
		}
		favs = append(favs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.StoreUnavailable("sqlite: iterating favourites", err)
	}
	return favs, nil
}

// userConflict translates a UNIQUE violation on users into apperror.Conflict.
func userConflict(err error, username, email string) error {
	switch {
	case uniqueViolationOn(err, "users.username"):
		return apperror.Conflict(model.FieldUsername, username)
	case uniqueViolationOn(err, "users.email"):
		return apperror.Conflict(model.FieldEmail, email)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
