// Package token generates the opaque identifiers handed to clients.
package token

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

const resetTokenSize = 32

// NewSessionID returns a random (version 4) UUID string.
func NewSessionID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ValidSessionID reports whether s has the shape produced by NewSessionID.
func ValidSessionID(s string) bool {
	id, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return id.Version() == 4 && len(s) == 36
}

// NewResetToken returns 32 random bytes, base64url encoded without padding.
func NewResetToken() (string, error) {
	var raw [resetTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}
