package strategy

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/MrEthical07/authlayer/identity"
)

const basicPrefix = "Basic "

// Verifier checks a password against a stored hash.
type Verifier interface {
	Verify(password, encodedHash string) bool
}

// Basic authenticates "Authorization: Basic <base64(email:password)>".
type Basic struct {
	Null
	principals identity.PrincipalFinder
	hasher     Verifier
}

// NewBasic returns a Basic strategy.
func NewBasic(principals identity.PrincipalFinder, hasher Verifier) *Basic {
	return &Basic{principals: principals, hasher: hasher}
}

func (b *Basic) AuthToken(r *http.Request) (string, bool) {
	return AuthorizationHeader(r)
}

func (b *Basic) CurrentPrincipal(r *http.Request) (*identity.Principal, error) {
	header, ok := AuthorizationHeader(r)
	if !ok {
		return nil, nil
	}
	encoded, ok := ExtractBase64(header)
	if !ok {
		return nil, nil
	}
	decoded, ok := DecodeBase64(encoded)
	if !ok {
		return nil, nil
	}
	email, password, ok := UserCredentials(decoded)
	if !ok {
		return nil, nil
	}
	return b.PrincipalFromCredentials(r.Context(), email, password)
}

// ExtractBase64 returns what follows the literal "Basic " prefix, or "" when the prefix
// is missing.
func ExtractBase64(header string) (string, bool) {
	encoded, ok := strings.CutPrefix(header, basicPrefix)
	if !ok {
		return "", false
	}
	return encoded, true
}

// DecodeBase64 decodes standard base64 and requires the result to be valid UTF-8.
func DecodeBase64(encoded string) (string, bool) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}

// UserCredentials splits decoded on its first ':'. The password may itself contain ':'.
// Without a ':' both parts are empty.
func UserCredentials(decoded string) (email, password string, ok bool) {
	email, password, ok = strings.Cut(decoded, ":")
	if !ok {
		return "", "", false
	}
	return email, password, true
}

// PrincipalFromCredentials looks email up and verifies password. An unknown email and a
// wrong password both yield (nil, nil).
func (b *Basic) PrincipalFromCredentials(ctx context.Context, email, password string) (*identity.Principal, error) {
	if email == "" {
		return nil, nil
	}

	p, err := b.principals.FindPrincipal(ctx, identity.Criteria{Email: email})
	if errors.Is(err, identity.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !b.hasher.Verify(password, p.PasswordHash) {
		return nil, nil
	}
	return p, nil
}

var _ Strategy = (*Basic)(nil)
