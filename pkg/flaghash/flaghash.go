// Package flaghash provides the one-way comparison of submitted flags
// against stored digests. Hashing is deliberately slow and salted, so
// stored digests resist offline brute force.
package flaghash

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashingError is returned, when computing a digest failed. This is a
// configuration problem of the admin operation setting the flag, never a
// per-submission error.
var HashingError = errors.New("flag hashing failed")

// Hash computes the salted digest of the given plaintext flag.
func Hash(flag string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(flag), bcrypt.DefaultCost)
	if err != nil {
		return "", HashingError
	}
	return string(digest), nil
}

// Verify compares the given plaintext flag against the stored digest.
// A malformed digest never raises; it simply doesn't match.
func Verify(flag, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(flag)) == nil
}
