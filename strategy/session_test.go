package strategy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrEthical07/authlayer/identity"
	"github.com/MrEthical07/authlayer/session"
)

func requestWithCookie(name, value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	if value != "" {
		r.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	return r
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := identity.NewMemoryStore()
	alice := seedUser(t, store, newTestHasher(t), "alice@x.io", "pw1")
	s := NewSession(session.NewManager(session.NewMemoryStore()), store, "")

	if sid, err := s.CreateSession(ctx, ""); sid != "" || err != nil {
		t.Fatalf("empty user id must create nothing, got (%q, %v)", sid, err)
	}

	sid, err := s.CreateSession(ctx, alice.ID)
	if err != nil || sid == "" {
		t.Fatalf("create: (%q, %v)", sid, err)
	}

	if user, _ := s.UserIDForSession(ctx, sid); user != alice.ID {
		t.Fatalf("expected %s, got %q", alice.ID, user)
	}
	if user, _ := s.UserIDForSession(ctx, ""); user != "" {
		t.Fatalf("empty session id resolved to %q", user)
	}

	p, err := s.CurrentPrincipal(requestWithCookie(DefaultCookieName, sid))
	if err != nil || p == nil || p.ID != alice.ID {
		t.Fatalf("expected alice, got (%v, %v)", p, err)
	}

	if p, _ := s.CurrentPrincipal(requestWithCookie("other_cookie", sid)); p != nil {
		t.Fatal("a differently named cookie must not authenticate")
	}

	if ok, _ := s.DestroySession(requestWithCookie(DefaultCookieName, "")); ok {
		t.Fatal("destroy without cookie must report false")
	}
	if ok, err := s.DestroySession(requestWithCookie(DefaultCookieName, sid)); !ok || err != nil {
		t.Fatalf("destroy: (%v, %v)", ok, err)
	}
	if ok, _ := s.DestroySession(requestWithCookie(DefaultCookieName, sid)); ok {
		t.Fatal("second destroy must report false")
	}
	if p, _ := s.CurrentPrincipal(requestWithCookie(DefaultCookieName, sid)); p != nil {
		t.Fatal("destroyed session must not authenticate")
	}
}

func TestSessionCustomCookieName(t *testing.T) {
	store := identity.NewMemoryStore()
	alice := seedUser(t, store, newTestHasher(t), "alice@x.io", "pw1")
	s := NewSession(session.NewManager(session.NewMemoryStore()), store, "sid")

	id, _ := s.CreateSession(context.Background(), alice.ID)
	if tok, ok := s.AuthToken(requestWithCookie("sid", id)); !ok || tok != id {
		t.Fatalf("expected cookie token, got %q %v", tok, ok)
	}
	if p, _ := s.CurrentPrincipal(requestWithCookie("sid", id)); p == nil {
		t.Fatal("expected principal via custom cookie")
	}
}

func TestSessionExpiringVariant(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := identity.NewMemoryStore()
	alice := seedUser(t, store, newTestHasher(t), "alice@x.io", "pw1")
	manager := session.NewManager(
		session.NewExpiring(session.NewMemoryStore(), 60*time.Second, session.WithClock(clock)),
		session.WithClock(clock),
	)
	s := NewSession(manager, store, "")

	sid, err := s.CreateSession(ctx, alice.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	now = now.Add(59 * time.Second)
	if user, _ := s.UserIDForSession(ctx, sid); user != alice.ID {
		t.Fatalf("expected live session at D-1s, got %q", user)
	}

	now = now.Add(2 * time.Second)
	if user, _ := s.UserIDForSession(ctx, sid); user != "" {
		t.Fatalf("expected expired session at D+1s, got %q", user)
	}
	if p, err := s.CurrentPrincipal(requestWithCookie(DefaultCookieName, sid)); p != nil || err != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", p, err)
	}
}

func TestSessionStoreBackedVariant(t *testing.T) {
	ctx := context.Background()
	store := identity.NewMemoryStore()
	alice := seedUser(t, store, newTestHasher(t), "alice@x.io", "pw1")

	// Two strategies over the same identity store share sessions.
	first := NewSession(session.NewManager(session.NewIdentityStore(store)), store, "")
	second := NewSession(session.NewManager(session.NewIdentityStore(store)), store, "")

	sid, err := first.CreateSession(ctx, alice.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p, _ := second.CurrentPrincipal(requestWithCookie(DefaultCookieName, sid)); p == nil || p.ID != alice.ID {
		t.Fatal("expected session created on one instance to resolve on another")
	}
	if ok, _ := second.DestroySession(requestWithCookie(DefaultCookieName, sid)); !ok {
		t.Fatal("expected destroy through the shared store")
	}
	if _, err := store.FindSession(ctx, sid); !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("expected durable record to be removed, got %v", err)
	}
}

func TestSessionOrphanedUserIsAbsent(t *testing.T) {
	ctx := context.Background()
	s := NewSession(session.NewManager(session.NewMemoryStore()), identity.NewMemoryStore(), "")

	sid, err := s.CreateSession(ctx, "ghost")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p, err := s.CurrentPrincipal(requestWithCookie(DefaultCookieName, sid)); p != nil || err != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", p, err)
	}
}
