package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Principal is the resolved identity behind an authenticated request.
type Principal struct {
	ID           string
	Email        string
	PasswordHash string
	// SessionID is the single active session held by the service facade, empty when none.
	SessionID string
	// ResetToken is the live password reset token, empty when none.
	ResetToken string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewPrincipal creates a Principal with a fresh ULID.
func NewPrincipal(email, passwordHash string) (*Principal, error) {
	if strings.TrimSpace(email) == "" {
		return nil, errors.New("email cannot be empty")
	}
	if passwordHash == "" {
		return nil, errors.New("password hash cannot be empty")
	}

	now := time.Now().UTC()
	return &Principal{
		ID:           ulid.Make().String(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Clone returns a copy that callers may mutate freely.
func (p *Principal) Clone() *Principal {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// SessionRecord maps a session id to the principal that owns it.
type SessionRecord struct {
	SessionID string
	UserID    string
	CreatedAt time.Time
}
