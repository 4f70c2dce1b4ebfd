package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashSecret returns the SHA-256 hex digest stored in place of refresh
// tokens and reset codes.
func HashSecret(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// MatchesHash compares value against a stored digest in constant time.
func MatchesHash(value string, hash *string) bool {
	if hash == nil || *hash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashSecret(value)), []byte(*hash)) == 1
}
