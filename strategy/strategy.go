package strategy

import (
	"net/http"
	"strings"

	"github.com/MrEthical07/authlayer/identity"
)

// DefaultCookieName is the session cookie read when none is configured.
const DefaultCookieName = "_my_session_id"

// Strategy is the capability set shared by every authentication variant.
type Strategy interface {
	// RequireAuth reports whether path is subject to authentication.
	RequireAuth(path string, excluded []string) bool
	// AuthToken returns the raw artifact the strategy would authenticate, if present.
	AuthToken(r *http.Request) (string, bool)
	// CurrentPrincipal resolves r to a principal, or nil when it cannot.
	CurrentPrincipal(r *http.Request) (*identity.Principal, error)
}

// RequireAuth reports whether path needs authentication given the excluded list.
//
// Paths and plain entries compare with a trailing slash added when missing, so
// "/api/v1/status" matches "/api/v1/status/". An entry ending in "*" excludes every path
// starting with the text before the "*". An empty path or an empty list requires
// authentication.
func RequireAuth(path string, excluded []string) bool {
	if path == "" || len(excluded) == 0 {
		return true
	}
	path = withTrailingSlash(path)

	for _, entry := range excluded {
		if entry == "" {
			continue
		}
		if prefix, ok := strings.CutSuffix(entry, "*"); ok {
			if strings.HasPrefix(path, prefix) {
				return false
			}
			continue
		}
		if withTrailingSlash(entry) == path {
			return false
		}
	}
	return true
}

func withTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}

// Null applies path exemption and never resolves a principal.
//
// Its AuthToken reports whichever artifact a request carries, an Authorization header or
// the session cookie, so a guard can still tell "no credentials" from "credentials that
// resolve to nobody".
type Null struct {
	CookieName string
}

// NewNull returns a Null strategy. An empty cookieName selects DefaultCookieName.
func NewNull(cookieName string) *Null {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Null{CookieName: cookieName}
}

func (n *Null) RequireAuth(path string, excluded []string) bool {
	return RequireAuth(path, excluded)
}

func (n *Null) AuthToken(r *http.Request) (string, bool) {
	if v, ok := AuthorizationHeader(r); ok {
		return v, true
	}
	return SessionCookie(r, n.CookieName)
}

func (n *Null) CurrentPrincipal(*http.Request) (*identity.Principal, error) {
	return nil, nil
}

// AuthorizationHeader returns the raw Authorization header when present and non-empty.
func AuthorizationHeader(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	v := r.Header.Get("Authorization")
	return v, v != ""
}

// SessionCookie returns the value of the named cookie when present and non-empty.
func SessionCookie(r *http.Request, name string) (string, bool) {
	if r == nil || name == "" {
		return "", false
	}
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

var _ Strategy = (*Null)(nil)
