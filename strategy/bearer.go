package strategy

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/authlayer/identity"
	"github.com/MrEthical07/authlayer/jwt"
)

const bearerPrefix = "Bearer "

// TokenParser verifies a bearer token.
type TokenParser interface {
	Parse(token string) (*jwt.Claims, error)
}

// Bearer authenticates "Authorization: Bearer <token>".
type Bearer struct {
	Null
	tokens     TokenParser
	principals identity.PrincipalFinder
}

// NewBearer returns a Bearer strategy.
func NewBearer(tokens TokenParser, principals identity.PrincipalFinder) *Bearer {
	return &Bearer{tokens: tokens, principals: principals}
}

func (b *Bearer) AuthToken(r *http.Request) (string, bool) {
	return AuthorizationHeader(r)
}

func (b *Bearer) CurrentPrincipal(r *http.Request) (*identity.Principal, error) {
	header, ok := AuthorizationHeader(r)
	if !ok {
		return nil, nil
	}
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || token == "" {
		return nil, nil
	}

	claims, err := b.tokens.Parse(token)
	if err != nil {
		return nil, nil
	}

	p, err := b.principals.FindPrincipal(r.Context(), identity.Criteria{ID: claims.Subject})
	if errors.Is(err, identity.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

var _ Strategy = (*Bearer)(nil)
