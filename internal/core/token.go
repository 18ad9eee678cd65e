package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenBytes is the entropy of a verification token (hex-encoded on the wire)
const tokenBytes = 32

// NewVerificationToken returns a fresh cryptographically random single-use
// opt-in token
func NewVerificationToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate verification token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
