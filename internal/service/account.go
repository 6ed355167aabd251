// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces ownership, orchestrates
//	Repository (Data layer)  → reads/writes the SQLite store
//
// The services take repository interfaces, never *sqlite.DB, so tests run
// against in-memory fakes (see fakes_test.go).
//
// OWNERSHIP:
// Every operation on /users/{id} receives the caller resolved by the auth
// gate. A caller may only read or change their own account; anything else
// fails with apperror.ErrForbidden before any other check runs.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/dojodb/internal/apperror"
	"github.com/sakif/dojodb/internal/auth"
	"github.com/sakif/dojodb/internal/model"
	"github.com/sakif/dojodb/internal/repository"
)

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=5,max=50"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Birthday string `json:"birthday,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// AuthResult bundles the user record and the issued JWT so the handler can
// respond in one step.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// AccountService handles registration, login token issuance and the
// owner-only profile operations.
type AccountService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAccountService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Register validates req, creates the account and logs it straight in.
//
// A username or email that is already taken fails with apperror.ErrConflict.
// The store's UNIQUE indexes catch the same collision if two registrations
// race past the pre-check.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Birthday = strings.TrimSpace(req.Birthday)

	if err := checkStruct(req); err != nil {
		return nil, err
	}

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
	}
	if req.Birthday != "" {
		bday, err := parseBirthday(req.Birthday)
		if err != nil {
			return nil, err
		}
		user.Birthday = &bday
	}

	if err := s.ensureAvailable(ctx, "", user.Username, user.Email); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("service/account: hashing password: %w", err)
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		s.logFailure("failed to create user", err, slog.String("username", user.Username))
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return s.Login(ctx, user)
}

// Login issues a token for a user LocalStrategy has already verified.
func (s *AccountService) Login(_ context.Context, user *model.User) (*AuthResult, error) {
	if user == nil {
		return nil, apperror.InvalidCredentials()
	}

	token, err := s.tokens.Issue(auth.Identity{UserID: user.ID, Username: user.Username})
	if err != nil {
		return nil, fmt.Errorf("service/account: issuing token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Get returns the caller's own profile.
func (s *AccountService) Get(ctx context.Context, caller *model.User, userID string) (*model.User, error) {
	if err := authorize(caller, userID); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile applies the provided fields that differ from the stored
// values.
//
// New values are validated with the same rules as registration. A username
// or email owned by another user fails with apperror.ErrConflict. A password
// that already matches the stored hash counts as unchanged. If nothing ends
// up different the call fails with apperror.ErrNoOp and nothing is written.
func (s *AccountService) UpdateProfile(ctx context.Context, caller *model.User, userID string, upd model.ProfileUpdate) (*model.ProfileChange, error) {
	if err := authorize(caller, userID); err != nil {
		return nil, err
	}

	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		fields  repository.UserFields
		changed []string
	)

	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if username != current.Username {
			if err := checkVar(model.FieldUsername, username, ruleUsername); err != nil {
				return nil, err
			}
			if err := s.ensureAvailable(ctx, current.ID, username, ""); err != nil {
				return nil, err
			}
			fields.Username = &username
			changed = append(changed, model.FieldUsername)
		}
	}

	if upd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*upd.Email))
		if email != current.Email {
			if err := checkVar(model.FieldEmail, email, ruleEmail); err != nil {
				return nil, err
			}
			if err := s.ensureAvailable(ctx, current.ID, "", email); err != nil {
				return nil, err
			}
			fields.Email = &email
			changed = append(changed, model.FieldEmail)
		}
	}

	if upd.Password != nil {
		password := *upd.Password
		if err := checkVar(model.FieldPassword, password, rulePassword); err != nil {
			return nil, err
		}
		if !s.passwords.Verify(current.PasswordHash, password) {
			hash, err := s.passwords.Hash(password)
			if err != nil {
				return nil, fmt.Errorf("service/account: hashing password: %w", err)
			}
			fields.PasswordHash = &hash
			changed = append(changed, model.FieldPassword)
		}
	}

	if upd.Birthday != nil {
		raw := strings.TrimSpace(*upd.Birthday)
		switch {
		case raw == "":
			if current.Birthday != nil {
				fields.SetBirthday = true
				changed = append(changed, model.FieldBirthday)
			}
		default:
			bday, err := parseBirthday(raw)
			if err != nil {
				return nil, err
			}
			if current.Birthday == nil || !current.Birthday.Equal(bday) {
				fields.SetBirthday = true
				fields.Birthday = &bday
				changed = append(changed, model.FieldBirthday)
			}
		}
	}

	if fields.Empty() {
		return nil, apperror.NoOp("No changes were made.")
	}

	updated, err := s.users.UpdateFields(ctx, userID, fields)
	if err != nil {
		s.logFailure("failed to update user", err, slog.String("userID", userID))
		return nil, err
	}

	s.logger.Info("user updated",
		slog.String("userID", userID),
		slog.Any("changed", changed),
	)

	return &model.ProfileChange{Changed: changed, User: updated}, nil
}

// Delete removes the caller's account and, with it, their favourites.
// Tokens already issued stay valid until they expire, but JWTStrategy
// rejects them once the account is gone.
func (s *AccountService) Delete(ctx context.Context, caller *model.User, userID string) error {
	if err := authorize(caller, userID); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		s.logFailure("failed to delete user", err, slog.String("userID", userID))
		return err
	}

	s.logger.Info("user deleted", slog.String("userID", userID))
	return nil
}

// ensureAvailable fails with Conflict if username or email (either may be
// empty to skip it) belongs to an account other than selfID.
func (s *AccountService) ensureAvailable(ctx context.Context, selfID, username, email string) error {
	if username != "" {
		existing, err := s.users.GetByUsername(ctx, username)
		switch {
		case err == nil && existing.ID != selfID:
			return apperror.Conflict(model.FieldUsername, username)
		case err != nil && !errors.Is(err, apperror.ErrNotFound):
			return err
		}
	}

	if email != "" {
		existing, err := s.users.GetByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != selfID:
			return apperror.Conflict(model.FieldEmail, email)
		case err != nil && !errors.Is(err, apperror.ErrNotFound):
			return err
		}
	}

	return nil
}

// logFailure logs store outages at Error. Domain outcomes like NotFound or
// Conflict are normal responses and are not logged here.
func (s *AccountService) logFailure(msg string, err error, attrs ...any) {
	if errors.Is(err, apperror.ErrStoreUnavailable) {
		s.logger.Error(msg, append(attrs, slog.String("error", apperror.Detail(err)))...)
	}
}

func parseBirthday(raw string) (time.Time, error) {
	if err := checkVar(model.FieldBirthday, raw, ruleBirthday); err != nil {
		return time.Time{}, err
	}
	bday, err := time.Parse(birthdayLayout, raw)
	if err != nil {
		return time.Time{}, apperror.ValidationFailed(model.FieldBirthday, "birthday must be a date in YYYY-MM-DD format")
	}
	return bday, nil
}

// authorize is the ownership check shared by every /users/{id} operation.
func authorize(caller *model.User, userID string) error {
	if caller == nil {
		return apperror.Unauthorized("valid authentication required", nil)
	}
	if caller.ID != userID {
		return apperror.Forbidden("Permission denied. You can only manage your own account.")
	}
	return nil
}
