package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/authlayer/identity"
)

func TestIdentityStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	backing := identity.NewMemoryStore()
	store := NewIdentityStore(backing)
	created := time.Now().UTC()

	if err := store.Save(ctx, &Record{ID: "sid-1", UserID: "u-1", CreatedAt: created}); err != nil {
		t.Fatalf("save: %v", err)
	}

	persisted, err := backing.FindSession(ctx, "sid-1")
	if err != nil || persisted.UserID != "u-1" {
		t.Fatalf("expected persisted session record, got %+v err=%v", persisted, err)
	}

	rec, err := store.Load(ctx, "sid-1")
	if err != nil || rec.UserID != "u-1" || !rec.CreatedAt.Equal(created) {
		t.Fatalf("load: %+v err=%v", rec, err)
	}

	removed, err := store.Delete(ctx, "sid-1")
	if err != nil || !removed {
		t.Fatalf("delete: removed=%v err=%v", removed, err)
	}
	removed, err = store.Delete(ctx, "sid-1")
	if err != nil || removed {
		t.Fatalf("second delete: removed=%v err=%v", removed, err)
	}
	if _, err := store.Load(ctx, "sid-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIdentityStoreSweep(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	backing := identity.NewMemoryStore()
	store := NewIdentityStore(backing, WithClock(clock.Now))

	_ = store.Save(ctx, &Record{ID: "old", UserID: "u-1", CreatedAt: clock.Now().Add(-time.Hour)})
	_ = store.Save(ctx, &Record{ID: "new", UserID: "u-1", CreatedAt: clock.Now()})

	n, err := store.Sweep(ctx, 30*time.Minute)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 removal, got %d err=%v", n, err)
	}
}

func TestIdentityStoreBackedManagerWithExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	m := NewManager(
		NewExpiring(NewIdentityStore(identity.NewMemoryStore()), time.Minute, WithClock(clock.Now)),
		WithClock(clock.Now),
		WithBackend("db"),
	)

	sid, err := m.Create(ctx, "u-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user, _ := m.UserID(ctx, sid); user != "u-1" {
		t.Fatalf("expected u-1, got %q", user)
	}

	clock.Advance(2 * time.Minute)
	if user, _ := m.UserID(ctx, sid); user != "" {
		t.Fatalf("expected expired session, got %q", user)
	}
}
