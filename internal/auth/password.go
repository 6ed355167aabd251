// Package auth handles password hashing, tokens and request authentication.
//
// WHY BCRYPT?
// bcrypt is deliberately slow and salts every hash, so two users with the
// same password get different hashes and brute force is expensive.
//
// Hash format (the full output of bcrypt.GenerateFromPassword):
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (12 rounds → 2^12 = 4096 iterations)
//	 version
package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor used in production.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so that the cost can be injected
// in tests: using a lower cost (e.g. 4) makes tests run much faster
// without compromising the logic being tested.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceWithCost creates a PasswordService with a custom cost.
// Values outside bcrypt's accepted range fall back to the default.
// Tests in other packages pass bcrypt.MinCost (4).
func NewPasswordServiceWithCost(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = defaultCost
	}
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// Passwords of any length are accepted. bcrypt ignores everything after the
// 72nd byte, so every input is first condensed with SHA-256; two long
// passwords that share a 72-byte prefix still hash differently.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(prepare(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify reports whether plaintext matches a stored bcrypt hash.
//
// bcrypt.CompareHashAndPassword compares in constant time. A malformed hash
// is simply a mismatch.
//
// Usage:
//
//	if !ps.Verify(user.PasswordHash, inputPassword) {
//	    // wrong password
//	}
func (p *PasswordService) Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), prepare(plaintext)) == nil
}

// prepare returns the bytes actually fed to bcrypt. Inputs of every length
// take the same path, so no plaintext can stand in for another one's digest.
func prepare(plaintext string) []byte {
	sum := sha256.Sum256([]byte(plaintext))
	// base64 keeps the digest free of NUL bytes, which bcrypt treats as a terminator.
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
