package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

const saltLength = 16

// HashPassword hashes password with a freshly generated random salt and
// returns the stored form "<hexHash>:<hexSalt>".
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("error generating salt: %v", err)
	}

	digest := sha256.Sum256(append([]byte(password), salt...))
	return hex.EncodeToString(digest[:]) + ":" + hex.EncodeToString(salt), nil
}

// VerifyPassword recomputes the digest over password and the stored salt and
// compares it against the stored hash in constant time.
func VerifyPassword(password, stored string) bool {
	parts := strings.SplitN(stored, ":", 2)
	if len(parts) != 2 {
		return false
	}

	salt, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}

	digest := sha256.Sum256(append([]byte(password), salt...))
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(digest[:])), []byte(parts[0])) == 1
}
