package channel

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// secretTokenBytes is the raw entropy of a generated secret token (256 bits).
const secretTokenBytes = 32

// NewSecretToken generates a URL-safe secret token with secretTokenBytes of
// cryptographic randomness.
func NewSecretToken() (string, error) {
	buf := make([]byte, secretTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
