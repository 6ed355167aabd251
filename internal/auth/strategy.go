package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/dojodb/internal/apperror"
	"github.com/sakif/dojodb/internal/model"
)

// UserLookup is the slice of the credential store the strategies need.
// repository.UserRepository satisfies it.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// Strategy resolves the caller of a request to a user, or fails.
// The router runs a Strategy in front of a route with Authenticate.
type Strategy interface {
	Name() string
	Authenticate(r *http.Request) (*model.User, error)
}

// =========================================================================
// LOCAL (username + password)
// =========================================================================

// LocalStrategy authenticates with a username and password.
type LocalStrategy struct {
	users     UserLookup
	passwords *PasswordService
	logger    *slog.Logger
}

func NewLocalStrategy(users UserLookup, passwords *PasswordService, logger *slog.Logger) *LocalStrategy {
	return &LocalStrategy{users: users, passwords: passwords, logger: logger}
}

func (s *LocalStrategy) Name() string { return "local" }

// credentials is the login body. Form fields with the same names work too.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// maxCredentialBytes caps the login body, like every other body the API reads.
const maxCredentialBytes = 1 << 20

// Authenticate reads the username and password from the request body.
// Bodies over maxCredentialBytes are rejected without being read to the end.
func (s *LocalStrategy) Authenticate(r *http.Request) (*model.User, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxCredentialBytes)

	var c credentials
	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			return nil, apperror.BadBody(err)
		}
	case strings.HasPrefix(contentType, "multipart/form-data"):
		if err := r.ParseMultipartForm(maxCredentialBytes); err != nil {
			return nil, apperror.BadBody(err)
		}
		c.Username = r.PostFormValue("username")
		c.Password = r.PostFormValue("password")
	default:
		if err := r.ParseForm(); err != nil {
			return nil, apperror.BadBody(err)
		}
		c.Username = r.PostFormValue("username")
		c.Password = r.PostFormValue("password")
	}
	return s.Verify(r.Context(), c.Username, c.Password)
}

// Verify checks a username/password pair.
//
// Every failure the client can trigger returns the same
// apperror.InvalidCredentials, so the response never reveals whether the
// username exists. The real reason is logged.
func (s *LocalStrategy) Verify(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		s.logger.Warn("login rejected: missing username or password")
		return nil, apperror.InvalidCredentials()
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("login rejected: unknown username", slog.String("username", username))
			return nil, apperror.InvalidCredentials()
		}
		return nil, err
	}

	if !s.passwords.Verify(user.PasswordHash, password) {
		s.logger.Warn("login rejected: wrong password", slog.String("username", username))
		return nil, apperror.InvalidCredentials()
	}

	return user, nil
}

// =========================================================================
// JWT (bearer token)
// =========================================================================

// JWTStrategy authenticates with "Authorization: Bearer <token>".
type JWTStrategy struct {
	tokens *TokenService
	users  UserLookup
	logger *slog.Logger
}

func NewJWTStrategy(tokens *TokenService, users UserLookup, logger *slog.Logger) *JWTStrategy {
	return &JWTStrategy{tokens: tokens, users: users, logger: logger}
}

func (s *JWTStrategy) Name() string { return "jwt" }

func (s *JWTStrategy) Authenticate(r *http.Request) (*model.User, error) {
	token, err := BearerToken(r)
	if err != nil {
		return nil, err
	}
	return s.Verify(r.Context(), token)
}

// Verify checks the token and loads the account it names. A token for an
// account that has since been deleted fails with apperror.ErrNotFound.
func (s *JWTStrategy) Verify(ctx context.Context, token string) (*model.User, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("token names a user that no longer exists",
				slog.String("userID", id.UserID),
				slog.String("username", id.Username),
			)
		}
		return nil, err
	}

	return user, nil
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", apperror.Unauthorized("missing authorization header", ErrMalformed)
	}

	scheme, token, found := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", apperror.Unauthorized("invalid authorization format", ErrMalformed)
	}
	return token, nil
}
