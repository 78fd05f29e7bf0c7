package appointments

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const tokenBytes = 32

// NewManagementToken returns a 256-bit random capability token, base64url
// encoded without padding.
func NewManagementToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("appointments: generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
