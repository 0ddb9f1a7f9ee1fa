// Package password implements the salted SHA-256 scheme used to store account passwords.
//
// A stored password has the form "salt:hash", where salt is 16 random bytes
// hex-encoded and hash is the hex SHA-256 digest of salt concatenated with the
// plain password.
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

// SaltSize is the number of random bytes in a salt before hex encoding.
const SaltSize = 16

// GenerateSalt returns SaltSize random bytes from crypto/rand, hex-encoded.
func GenerateSalt() (string, error) {
	buf := make([]byte, SaltSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Hash returns the hex SHA-256 digest of salt followed by password.
func Hash(password, salt string) string {
	sum := sha256.Sum256([]byte(salt + password))
	return hex.EncodeToString(sum[:])
}

// StoreFormat joins salt and hash into the persisted "salt:hash" form.
func StoreFormat(salt, hash string) string {
	return salt + ":" + hash
}

// New salts and hashes password, returning the value to persist.
func New(password string) (string, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return "", err
	}
	return StoreFormat(salt, Hash(password, salt)), nil
}

// Verify reports whether candidate matches the stored "salt:hash" value.
// An empty value or one without a separator never matches.
func Verify(stored, candidate string) bool {
	salt, hash, ok := strings.Cut(stored, ":")
	if stored == "" || !ok {
		return false
	}
	computed := Hash(candidate, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
