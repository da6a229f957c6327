package strategy

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrEthical07/authlayer/identity"
	"github.com/MrEthical07/authlayer/jwt"
)

func TestBearerCurrentPrincipal(t *testing.T) {
	store := identity.NewMemoryStore()
	alice := seedUser(t, store, newTestHasher(t), "alice@x.io", "pw1")

	tokens, err := jwt.NewManager(jwt.Config{
		TTL:           time.Minute,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
	})
	if err != nil {
		t.Fatalf("jwt manager: %v", err)
	}
	valid, err := tokens.Issue(alice.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	ghost, _ := tokens.Issue("ghost")

	b := NewBearer(tokens, store)

	cases := []struct {
		name   string
		header string
		want   bool
	}{
		{"valid", "Bearer " + valid, true},
		{"unknown subject", "Bearer " + ghost, false},
		{"garbage", "Bearer not.a.token", false},
		{"empty token", "Bearer ", false},
		{"basic scheme", "Basic " + valid, false},
		{"no header", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			p, err := b.CurrentPrincipal(r)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.want != (p != nil) {
				t.Fatalf("expected principal=%v, got %v", tc.want, p)
			}
		})
	}
}
