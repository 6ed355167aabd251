package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"
)

// =========================================================================
// HELPER
// =========================================================================

// newTestPasswordService returns a PasswordService with bcrypt cost 4.
// Cost 4 is the minimum allowed by the bcrypt library. This makes tests
// run in milliseconds instead of ~250ms each.
func newTestPasswordService() *PasswordService {
	return NewPasswordServiceWithCost(4)
}

// =========================================================================
// Hash TESTS
// =========================================================================

func TestHash_OutputLooksBcrypt(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	// bcrypt hashes always start with $2a$ or $2b$
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() does not look like a bcrypt hash: %q", hash)
	}
	if strings.Contains(hash, "password123") {
		t.Errorf("Hash() output contains the plaintext")
	}
}

func TestHash_SamePasswordProducesDifferentHashes(t *testing.T) {
	ps := newTestPasswordService()

	hash1, _ := ps.Hash("same-password")
	hash2, _ := ps.Hash("same-password")

	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for the same password (salt must be random)")
	}
}

func TestHash_AcceptsLongPasswords(t *testing.T) {
	ps := newTestPasswordService()

	long := strings.Repeat("a", 500)
	hash, err := ps.Hash(long)
	if err != nil {
		t.Fatalf("Hash() should accept a 500-byte password, got error: %v", err)
	}
	if !ps.Verify(hash, long) {
		t.Error("Verify() failed for a long password")
	}
}

func TestHash_LongPasswordsDifferAfterByte72(t *testing.T) {
	ps := newTestPasswordService()

	prefix := strings.Repeat("x", 72)
	hash, err := ps.Hash(prefix + "-first")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	// Plain bcrypt would accept this, since it only reads 72 bytes.
	if ps.Verify(hash, prefix+"-second") {
		t.Error("Verify() matched a different password sharing the first 72 bytes")
	}
}

func TestVerify_DigestOfLongPasswordIsNotAPassword(t *testing.T) {
	ps := newTestPasswordService()

	long := strings.Repeat("correct horse battery staple ", 4)
	hash, err := ps.Hash(long)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	sum := sha256.Sum256([]byte(long))
	digest := base64.StdEncoding.EncodeToString(sum[:])
	if ps.Verify(hash, digest) {
		t.Errorf("Verify() accepted the encoded digest %q in place of the long password", digest)
	}
}

// =========================================================================
// Verify TESTS
// =========================================================================

func TestVerify_WrongPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, _ := ps.Hash("the-real-password")

	if ps.Verify(hash, "the-wrong-password") {
		t.Fatal("Verify() should return false for a wrong password")
	}
}

func TestVerify_EmptyPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, _ := ps.Hash("some-password")

	if ps.Verify(hash, "") {
		t.Fatal("Verify() should return false when password is empty")
	}
}

func TestVerify_GarbageHash(t *testing.T) {
	ps := newTestPasswordService()

	if ps.Verify("not-a-valid-bcrypt-hash", "password") {
		t.Fatal("Verify() should return false for a garbage hash")
	}
	if ps.Verify("", "") {
		t.Fatal("Verify() should return false for an empty hash")
	}
}

func TestNewPasswordServiceWithCost_OutOfRange(t *testing.T) {
	if got := NewPasswordServiceWithCost(1).cost; got != defaultCost {
		t.Errorf("cost = %d, want default %d", got, defaultCost)
	}
	if got := NewPasswordServiceWithCost(99).cost; got != defaultCost {
		t.Errorf("cost = %d, want default %d", got, defaultCost)
	}
}

// =========================================================================
// ROUND-TRIP TEST
// =========================================================================

func TestHashVerify_RoundTrip(t *testing.T) {
	ps := newTestPasswordService()

	cases := []struct {
		name     string
		password string
	}{
		{"simple alphanumeric", "secret123"},
		{"special characters", "p@$$w0rd!#%"},
		{"unicode", "пароль-密码"},
		{"whitespace", "  leading and trailing  "},
		{"exactly 72 bytes", strings.Repeat("b", 72)},
		{"73 bytes", strings.Repeat("c", 73)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hash, err := ps.Hash(tc.password)
			if err != nil {
				t.Fatalf("Hash(%q) error = %v", tc.password, err)
			}

			if !ps.Verify(hash, tc.password) {
				t.Errorf("Verify() failed for %q", tc.password)
			}
			if ps.Verify(hash, tc.password+"!") {
				t.Errorf("Verify() matched a different password for %q", tc.password)
			}
		})
	}
}
