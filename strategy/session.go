package strategy

import (
	"context"
	"errors"
	"net/http"

	"github.com/MrEthical07/authlayer/identity"
	"github.com/MrEthical07/authlayer/session"
)

// Session authenticates an opaque session id carried in a cookie.
//
// The expiring and store-backed behaviours come from the session.Manager it is given.
type Session struct {
	Null
	sessions   session.Manager
	principals identity.PrincipalFinder
}

// NewSession returns a Session strategy reading cookieName (DefaultCookieName when empty).
func NewSession(sessions session.Manager, principals identity.PrincipalFinder, cookieName string) *Session {
	return &Session{
		Null:       *NewNull(cookieName),
		sessions:   sessions,
		principals: principals,
	}
}

func (s *Session) AuthToken(r *http.Request) (string, bool) {
	return SessionCookie(r, s.CookieName)
}

// CreateSession starts a session for userID. An empty userID yields "" and stores nothing.
func (s *Session) CreateSession(ctx context.Context, userID string) (string, error) {
	id, err := s.sessions.Create(ctx, userID)
	if errors.Is(err, session.ErrInvalidUserID) {
		return "", nil
	}
	return id, err
}

// UserIDForSession returns the user behind sessionID, or "" when the session is not live.
func (s *Session) UserIDForSession(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", nil
	}
	return s.sessions.UserID(ctx, sessionID)
}

func (s *Session) CurrentPrincipal(r *http.Request) (*identity.Principal, error) {
	sid, ok := SessionCookie(r, s.CookieName)
	if !ok {
		return nil, nil
	}
	userID, err := s.UserIDForSession(r.Context(), sid)
	if err != nil || userID == "" {
		return nil, err
	}

	p, err := s.principals.FindPrincipal(r.Context(), identity.Criteria{ID: userID})
	if errors.Is(err, identity.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DestroySession ends the session named by r's cookie. It reports false without changing
// anything when the cookie is absent or names no live record.
func (s *Session) DestroySession(r *http.Request) (bool, error) {
	sid, ok := SessionCookie(r, s.CookieName)
	if !ok {
		return false, nil
	}
	return s.sessions.Destroy(r.Context(), sid)
}

var _ Strategy = (*Session)(nil)
