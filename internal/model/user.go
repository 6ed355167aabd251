// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered DojoDB account.
//
// PasswordHash carries a `json:"-"` tag so a user can be written straight
// into a response without ever leaking the bcrypt hash.
type User struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Birthday     *time.Time  `json:"birthday"`
	Favourites   []Favourite `json:"favourites"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Favourite is one entry of a user's favourites list. Entries are identified
// by MovieID; Title is kept only for display.
type Favourite struct {
	MovieID string `json:"movieId"`
	Title   string `json:"title"`
}

// HasFavourite reports whether movieID is already in the list.
func (u *User) HasFavourite(movieID string) bool {
	for _, f := range u.Favourites {
		if f.MovieID == movieID {
			return true
		}
	}
	return false
}

// ProfileUpdate is a partial update of the mutable profile fields.
// A nil pointer means "not provided". For Birthday an empty string clears it.
type ProfileUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Birthday *string `json:"birthday,omitempty"`
}

// Profile field names, as reported in ProfileChange.Changed.
const (
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldBirthday = "birthday"
)

// ProfileChange is the result of a successful profile update.
type ProfileChange struct {
	Changed []string `json:"changed"`
	User    *User    `json:"user"`
}
