package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by a Store when no record exists for the id.
	ErrNotFound = errors.New("session not found")
	// ErrExpired is returned by Expiring when a record exists but is past its lifetime.
	ErrExpired = errors.New("session expired")
	// ErrUnavailable wraps backend connectivity failures.
	ErrUnavailable = errors.New("session backend unavailable")
	// ErrInvalidUserID is returned when a session is requested for an empty user id.
	ErrInvalidUserID = errors.New("invalid user id")
)

// Record is one session id to user id mapping.
type Record struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}

// Store persists session records.
//
// Load returns ErrNotFound on a miss. Delete reports whether a record was removed.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Load(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Sweeper is implemented by stores that can evict records older than maxAge.
type Sweeper interface {
	Sweep(ctx context.Context, maxAge time.Duration) (int, error)
}
