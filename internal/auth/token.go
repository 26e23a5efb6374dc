// ABOUTME: Session token generation for posd
// ABOUTME: Opaque hex tokens from crypto/rand, stored server-side as the source of truth

package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// tokenBytes is the entropy of a session token. 32 bytes gives a 64-char
// hex string, far beyond guessability for a bearer credential.
const tokenBytes = 32

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
