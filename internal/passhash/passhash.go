// Package passhash implements the password hashing schemes used by the
// credential store: PBKDF2-SHA256 with a per-user random salt, plus the
// legacy unsalted single-round SHA-256 that is kept only so old records can
// be migrated at their first successful login.
package passhash

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/dmitrijs2005/eldermate/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is the PBKDF2 iteration count.
	Iterations = 100_000

	saltBytes = 16
	keyBytes  = 32
)

// Scheme tags which hashing scheme a stored record uses, so the migration
// path dispatches on an explicit variant instead of an ad hoc nil check.
type Scheme int

const (
	// SchemeSalted is the current PBKDF2-SHA256 scheme.
	SchemeSalted Scheme = iota

	// SchemeLegacy is the unsalted single-round SHA-256 digest that predates
	// the salted scheme.
	SchemeLegacy
)

// Classify returns the scheme of a stored record. A missing salt marks the
// legacy digest.
func Classify(salt *string) Scheme {
	if salt == nil {
		return SchemeLegacy
	}
	return SchemeSalted
}

// NewSalt generates a fresh random salt: 16 bytes, hex-encoded to 32
// characters.
func NewSalt() (string, error) {
	return common.MakeRandHexString(saltBytes)
}

// Hash derives the hex digest of password under the salted scheme. The salt
// participates as its UTF-8 bytes, matching the stored hex string verbatim.
func Hash(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), Iterations, keyBytes, sha256.New)
	return hex.EncodeToString(key)
}

// Verify reports whether password matches digest under the salted scheme,
// using a constant-time comparison.
func Verify(password, digest, salt string) bool {
	candidate := Hash(password, salt)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(digest)) == 1
}

// LegacyHash computes the unsalted single-round digest of password.
func LegacyHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyLegacy reports whether password matches a legacy digest.
func VerifyLegacy(password, digest string) bool {
	candidate := LegacyHash(password)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(digest)) == 1
}
