// Package auth implements the legacy API's MD5 password scheme: the
// configured password is stored pre-hashed, and every request's pw query
// parameter is compared against that hash's hex string directly (the
// legacy clients hash client-side before sending).
package auth

import (
	"crypto/md5"
	"encoding/hex"
)

// HashPassword returns the lowercase hex MD5 digest of plaintext, the
// same transform legacy UIs apply before sending a request.
func HashPassword(plaintext string) string {
	sum := md5.Sum([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Check reports whether the supplied wire password (already MD5-hashed by
// the caller, or plaintext -- both forms are accepted for compatibility)
// matches the configured hash.
func Check(configuredHash, supplied string) bool {
	if configuredHash == "" {
		return true // ignore_password path; caller decides whether to call Check at all
	}
	if supplied == configuredHash {
		return true
	}
	return HashPassword(supplied) == configuredHash
}
