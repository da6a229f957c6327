package session

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authlayer/identity"
)

// IdentityStore persists session records through an identity.Store, so every instance
// sharing that store sees the same sessions.
type IdentityStore struct {
	store identity.Store
	now   func() time.Time
}

// NewIdentityStore adapts store.
func NewIdentityStore(store identity.Store, opts ...Option) *IdentityStore {
	o := applyOptions(opts)
	return &IdentityStore{store: store, now: o.now}
}

func (s *IdentityStore) Save(ctx context.Context, rec *Record) error {
	return s.store.SaveSession(ctx, &identity.SessionRecord{
		SessionID: rec.ID,
		UserID:    rec.UserID,
		CreatedAt: rec.CreatedAt,
	})
}

func (s *IdentityStore) Load(ctx context.Context, id string) (*Record, error) {
	rec, err := s.store.FindSession(ctx, id)
	if errors.Is(err, identity.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Record{ID: rec.SessionID, UserID: rec.UserID, CreatedAt: rec.CreatedAt}, nil
}

func (s *IdentityStore) Delete(ctx context.Context, id string) (bool, error) {
	err := s.store.RemoveSession(ctx, id)
	if errors.Is(err, identity.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Sweep removes durable records older than maxAge when the identity store supports it.
func (s *IdentityStore) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	pruner, ok := s.store.(identity.SessionPruner)
	if !ok || maxAge <= 0 {
		return 0, nil
	}
	n, err := pruner.RemoveSessionsCreatedBefore(ctx, s.now().Add(-maxAge))
	return int(n), err
}

var (
	_ Store   = (*IdentityStore)(nil)
	_ Sweeper = (*IdentityStore)(nil)
)
