package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// FingerprintPrefix marks a token fingerprint.
const FingerprintPrefix = "sha256:"

const fingerprintLength = 12

// Hash computes the hex-encoded SHA-256 hash of a token.
func Hash(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// Fingerprint returns a short display form of the token hash, or "" for
// an empty token.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	return FingerprintPrefix + Hash(token)[:fingerprintLength]
}

// Verify reports whether token hashes to expectedHash, in constant time.
func Verify(token, expectedHash string) bool {
	actualHash := Hash(token)
	return subtle.ConstantTimeCompare([]byte(actualHash), []byte(expectedHash)) == 1
}
