// Package auth provides password hashing, JWT issuance and verification, and
// the two authentication strategies (credentials and bearer token) that gate
// the DojoDB API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. Client POSTs username+password to /login
//  2. LocalStrategy looks the user up and checks the bcrypt hash
//  3. Server issues a signed JWT valid for 7 days
//  4. Client sends "Authorization: Bearer <jwt>" on every protected call
//  5. JWTStrategy verifies the token, loads the user, and puts it in the
//     request context
//
// JWT STRUCTURE (three base64url parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"alice","uid":"cv37rs3pp9olc6atsptg","exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// Tokens are never stored server-side. A token stays valid until it expires,
// even if the account it names is deleted; JWTStrategy catches that case with
// a NotFound on lookup.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	"github.com/sakif/dojodb/internal/apperror"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

const issuer = "dojodb"

// Token failure reasons. They are wrapped inside an apperror.ErrUnauthorized
// so callers can tell them apart with errors.Is.
var (
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrExpired          = errors.New("token has expired")
	ErrMalformed        = errors.New("token is malformed")
)

// Identity is what a token proves: which account, under which username.
type Identity struct {
	UserID   string
	Username string
}

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens. The key is
// loaded once at startup and never rotated while the process runs.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces time.Now, for tests that need to step past expiry.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService creates a TokenService with the given secret and validity
// window. A non-positive ttl means DefaultTokenTTL.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	s := &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the validity window of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// claims is the JWT payload. The username goes in "sub" and the internal
// user ID in a private "uid" claim; verification trusts only uid for lookup.
type claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Issue creates and signs a token for id.
//
// Signing algorithm: HS256 (HMAC-SHA256). Symmetric, so the same secret both
// signs and verifies; fine for a single service.
func (s *TokenService) Issue(id Identity) (string, error) {
	if id.UserID == "" {
		return "", errors.New("auth: cannot issue a token without a user ID")
	}

	now := s.now()
	c := claims{
		UserID: id.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   id.Username,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and checks a token and returns the identity it encodes.
//
// Failures are *apperror.AppError values wrapping apperror.ErrUnauthorized
// and exactly one of ErrInvalidSignature, ErrExpired or ErrMalformed.
//
// jwt.WithValidMethods pins HS256, so a token claiming "none" or an
// asymmetric algorithm is rejected before the key is ever used.
func (s *TokenService) Verify(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Identity{}, tokenFailure(err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.UserID == "" {
		return Identity{}, apperror.Unauthorized("invalid token", ErrMalformed)
	}

	return Identity{UserID: c.UserID, Username: c.Subject}, nil
}

// tokenFailure maps jwt library errors onto the three failure reasons.
func tokenFailure(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperror.Unauthorized("token has expired", ErrExpired)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return apperror.Unauthorized("invalid token", ErrInvalidSignature)
	default:
		return apperror.Unauthorized("invalid token", fmt.Errorf("%w: %v", ErrMalformed, err))
	}
}
