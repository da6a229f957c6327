package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordedEvents struct {
	mu        sync.Mutex
	created   int
	destroyed int
	expired   int
}

func (r *recordedEvents) AuthAttempt(string, string) {}
func (r *recordedEvents) SessionCreated(string)      { r.mu.Lock(); r.created++; r.mu.Unlock() }
func (r *recordedEvents) SessionDestroyed(string)    { r.mu.Lock(); r.destroyed++; r.mu.Unlock() }
func (r *recordedEvents) SessionExpired(string)      { r.mu.Lock(); r.expired++; r.mu.Unlock() }
func (r *recordedEvents) AuditDropped(string)        {}

type failingStore struct{ err error }

func (f failingStore) Save(context.Context, *Record) error           { return f.err }
func (f failingStore) Load(context.Context, string) (*Record, error) { return nil, f.err }
func (f failingStore) Delete(context.Context, string) (bool, error)  { return false, f.err }

func TestManagerRoundTrip(t *testing.T) {
	ctx := context.Background()
	events := &recordedEvents{}
	m := NewManager(NewMemoryStore(), WithMetrics(events))

	sid, err := m.Create(ctx, "u-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sid == "" {
		t.Fatal("expected a session id")
	}

	user, err := m.UserID(ctx, sid)
	if err != nil || user != "u-1" {
		t.Fatalf("expected u-1, got %q err=%v", user, err)
	}

	other, _ := m.Create(ctx, "u-1")
	if other == sid {
		t.Fatal("each login must produce a new session id")
	}

	removed, err := m.Destroy(ctx, sid)
	if err != nil || !removed {
		t.Fatalf("destroy: removed=%v err=%v", removed, err)
	}
	if user, _ := m.UserID(ctx, sid); user != "" {
		t.Fatalf("destroyed session resolved to %q", user)
	}
	removed, _ = m.Destroy(ctx, sid)
	if removed {
		t.Fatal("second destroy must report false")
	}

	if events.created != 2 || events.destroyed != 1 {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestManagerCreateRequiresUserID(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store)

	if _, err := m.Create(context.Background(), ""); !errors.Is(err, ErrInvalidUserID) {
		t.Fatalf("expected ErrInvalidUserID, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatal("rejected create must not store anything")
	}
}

func TestManagerIgnoresMalformedIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Save(ctx, &Record{ID: "not-a-uuid", UserID: "u-1"})
	m := NewManager(store)

	for _, sid := range []string{"", "not-a-uuid"} {
		user, err := m.UserID(ctx, sid)
		if err != nil || user != "" {
			t.Fatalf("%q: expected no user, got %q err=%v", sid, user, err)
		}
		removed, err := m.Destroy(ctx, sid)
		if err != nil || removed {
			t.Fatalf("%q: expected no removal, got %v err=%v", sid, removed, err)
		}
	}
}

func TestManagerExpiredIsAbsent(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	events := &recordedEvents{}
	m := NewManager(
		NewExpiring(NewMemoryStore(), 30*time.Second, WithClock(clock.Now)),
		WithClock(clock.Now),
		WithMetrics(events),
	)

	sid, err := m.Create(ctx, "u-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clock.Advance(29 * time.Second)
	if user, _ := m.UserID(ctx, sid); user != "u-1" {
		t.Fatalf("expected live session, got %q", user)
	}

	clock.Advance(2 * time.Second)
	user, err := m.UserID(ctx, sid)
	if err != nil || user != "" {
		t.Fatalf("expected expired session to be absent, got %q err=%v", user, err)
	}
	if events.expired != 1 {
		t.Fatalf("expected one expiry event, got %d", events.expired)
	}
}

func TestManagerPropagatesBackendErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	m := NewManager(failingStore{err: boom})

	if _, err := m.Create(ctx, "u-1"); !errors.Is(err, boom) {
		t.Fatalf("create: expected backend error, got %v", err)
	}
	if _, err := m.UserID(ctx, "5f1e0b4c-52a4-4e0c-9a4e-0d5c1c1a1d2e"); !errors.Is(err, boom) {
		t.Fatalf("user id: expected backend error, got %v", err)
	}
	if _, err := m.Destroy(ctx, "5f1e0b4c-52a4-4e0c-9a4e-0d5c1c1a1d2e"); !errors.Is(err, boom) {
		t.Fatalf("destroy: expected backend error, got %v", err)
	}
}
