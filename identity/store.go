package identity

import (
	"context"
	"time"
)

// Criteria selects a principal. Exactly the non-empty attributes are matched; at least one
// must be set.
type Criteria struct {
	ID         string
	Email      string
	SessionID  string
	ResetToken string
}

// IsZero reports whether no attribute is set.
func (c Criteria) IsZero() bool {
	return c.ID == "" && c.Email == "" && c.SessionID == "" && c.ResetToken == ""
}

func (c Criteria) matches(p *Principal) bool {
	if c.ID != "" && p.ID != c.ID {
		return false
	}
	if c.Email != "" && p.Email != c.Email {
		return false
	}
	if c.SessionID != "" && p.SessionID != c.SessionID {
		return false
	}
	if c.ResetToken != "" && p.ResetToken != c.ResetToken {
		return false
	}
	return true
}

// Field names a mutable principal attribute.
type Field string

const (
	FieldEmail        Field = "email"
	FieldPasswordHash Field = "hashed_password"
	FieldSessionID    Field = "session_id"
	FieldResetToken   Field = "reset_token"
)

// Valid reports whether f is a recognised principal attribute.
func (f Field) Valid() bool {
	switch f {
	case FieldEmail, FieldPasswordHash, FieldSessionID, FieldResetToken:
		return true
	}
	return false
}

// Fields is a set of attribute updates. An empty value clears the attribute.
type Fields map[Field]string

// Validate returns ErrUnknownField if any key is not a principal attribute.
func (f Fields) Validate() error {
	for name := range f {
		if !name.Valid() {
			return ErrUnknownField
		}
	}
	return nil
}

func (f Fields) matches(p *Principal) bool {
	for name, want := range f {
		var got string
		switch name {
		case FieldEmail:
			got = p.Email
		case FieldPasswordHash:
			got = p.PasswordHash
		case FieldSessionID:
			got = p.SessionID
		case FieldResetToken:
			got = p.ResetToken
		}
		if got != want {
			return false
		}
	}
	return true
}

// PrincipalFinder is the read-only part of [Store] that strategies need.
type PrincipalFinder interface {
	FindPrincipal(ctx context.Context, criteria Criteria) (*Principal, error)
}

// Store persists principals and durable sessions.
//
// Lookups return ErrNotFound on a miss. Any other error is an infrastructure failure and
// must not be treated as a miss.
type Store interface {
	PrincipalFinder

	FindSession(ctx context.Context, sessionID string) (*SessionRecord, error)
	SavePrincipal(ctx context.Context, p *Principal) error
	SaveSession(ctx context.Context, rec *SessionRecord) error
	RemoveSession(ctx context.Context, sessionID string) error

	// UpdateFields applies all updates to the principal atomically, or none of them.
	UpdateFields(ctx context.Context, id string, fields Fields) error
	// UpdateFieldsWhere is UpdateFields applied only while every attribute in where still
	// holds the given value (empty meaning unset). A mismatch is ErrNotFound.
	UpdateFieldsWhere(ctx context.Context, id string, where, fields Fields) error
}

// SessionPruner is implemented by stores that can bulk-remove durable sessions.
type SessionPruner interface {
	RemoveSessionsCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
