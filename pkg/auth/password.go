package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// passwordAlgorithm tags stored credentials so the scheme can evolve.
	passwordAlgorithm = "pbkdf2_sha256"
	// DefaultHashIterations is the PBKDF2 iteration count for new credentials.
	DefaultHashIterations = 100_000
	// passwordSaltLength is the random salt size in bytes for new credentials.
	passwordSaltLength = 16
	// passwordKeyLength is the derived key size in bytes (SHA-256 width).
	passwordKeyLength = 32
)

// PasswordHasher derives and verifies salted password credentials. The zero
// iteration count falls back to DefaultHashIterations.
type PasswordHasher struct {
	iterations int
}

// NewPasswordHasher creates a hasher with the given PBKDF2 iteration count.
func NewPasswordHasher(iterations int) *PasswordHasher {
	if iterations <= 0 {
		iterations = DefaultHashIterations
	}
	return &PasswordHasher{iterations: iterations}
}

// Hash derives a credential string for the plaintext using a fresh random
// salt. Format: "pbkdf2_sha256$<salt>$<hex hash>".
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	saltBytes := make([]byte, passwordSaltLength)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	salt := hex.EncodeToString(saltBytes)

	derived := pbkdf2.Key([]byte(plaintext), []byte(salt), h.iterations, passwordKeyLength, sha256.New)
	return passwordAlgorithm + "$" + salt + "$" + hex.EncodeToString(derived), nil
}

// Verify recomputes the hash with the stored salt and compares it in constant
// time. Any credential string it cannot parse (wrong algorithm tag, wrong
// field count, non-hex hash) verifies false rather than erroring.
func (h *PasswordHasher) Verify(plaintext, credential string) bool {
	parts := strings.Split(credential, "$")
	if len(parts) != 3 || parts[0] != passwordAlgorithm {
		return false
	}
	salt, storedHex := parts[1], parts[2]

	stored, err := hex.DecodeString(storedHex)
	if err != nil || len(stored) == 0 {
		return false
	}

	derived := pbkdf2.Key([]byte(plaintext), []byte(salt), h.iterations, len(stored), sha256.New)
	return subtle.ConstantTimeCompare(derived, stored) == 1
}
