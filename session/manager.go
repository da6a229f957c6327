package session

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authlayer/internal/token"
	"github.com/MrEthical07/authlayer/metrics"
)

// Manager issues, resolves and destroys sessions.
//
// UserID returns "" with a nil error for an unknown, malformed or expired id. A non-nil
// error always means the backend failed.
type Manager interface {
	Create(ctx context.Context, userID string) (string, error)
	UserID(ctx context.Context, sessionID string) (string, error)
	Destroy(ctx context.Context, sessionID string) (bool, error)
}

// StoreManager implements Manager over any Store.
type StoreManager struct {
	store    Store
	now      func() time.Time
	recorder metrics.Recorder
	backend  string
}

// NewManager returns a StoreManager over store.
func NewManager(store Store, opts ...Option) *StoreManager {
	o := applyOptions(opts)
	return &StoreManager{
		store:    store,
		now:      o.now,
		recorder: o.recorder,
		backend:  o.backend,
	}
}

// Store returns the backing store.
func (m *StoreManager) Store() Store {
	return m.store
}

// Create stores a new record for userID and returns its fresh id.
func (m *StoreManager) Create(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrInvalidUserID
	}

	id, err := token.NewSessionID()
	if err != nil {
		return "", err
	}

	rec := &Record{ID: id, UserID: userID, CreatedAt: m.now().UTC()}
	if err := m.store.Save(ctx, rec); err != nil {
		return "", err
	}

	m.recorder.SessionCreated(m.backend)
	return id, nil
}

// UserID resolves sessionID to its user id.
func (m *StoreManager) UserID(ctx context.Context, sessionID string) (string, error) {
	if !token.ValidSessionID(sessionID) {
		return "", nil
	}

	rec, err := m.store.Load(ctx, sessionID)
	switch {
	case errors.Is(err, ErrNotFound):
		return "", nil
	case errors.Is(err, ErrExpired):
		m.recorder.SessionExpired(m.backend)
		return "", nil
	case err != nil:
		return "", err
	}
	return rec.UserID, nil
}

// Destroy removes sessionID and reports whether it existed.
func (m *StoreManager) Destroy(ctx context.Context, sessionID string) (bool, error) {
	if !token.ValidSessionID(sessionID) {
		return false, nil
	}

	removed, err := m.store.Delete(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if removed {
		m.recorder.SessionDestroyed(m.backend)
	}
	return removed, nil
}

var _ Manager = (*StoreManager)(nil)
