package server

import (
	"context"
	"fmt"
	"strings"

	"admissions/internal/access"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// Identity is the signed-in operator as read from a verified access token.
type Identity struct {
	UserID      string
	Email       string
	Groups      []string
	Permissions access.Set
	Token       string
}

// TokenVerifier checks an access token and returns who it belongs to.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

// JWKSVerifier validates tokens against the identity provider's published keys.
type JWKSVerifier struct {
	cache   *jwk.Cache
	jwksURL string
}

func NewJWKSVerifier(cache *jwk.Cache, jwksURL string) *JWKSVerifier {
	return &JWKSVerifier{cache: cache, jwksURL: jwksURL}
}

func (v *JWKSVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	set, err := v.cache.Lookup(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("fetch JWKS: %w", err)
	}

	token, err := jwt.Parse([]byte(rawToken), jwt.WithKeySet(set), jwt.WithValidate(true))
	if err != nil {
		return nil, fmt.Errorf("parse JWT: %w", err)
	}

	return identityFromToken(token, rawToken)
}

func identityFromToken(token jwt.Token, rawToken string) (*Identity, error) {
	userID, ok := token.Subject()
	if !ok || userID == "" {
		return nil, fmt.Errorf("no user id in JWT subject claim")
	}

	id := &Identity{UserID: userID, Token: rawToken}

	// email, groups and permissions are optional
	_ = token.Get("email", &id.Email)

	id.Groups = stringClaim(token, "cognito:groups")
	permissions := stringClaim(token, "permissions")

	id.Permissions = access.NewSet(id.Groups, permissions)
	return id, nil
}

// stringClaim reads a claim holding a list of strings or a single string.
func stringClaim(token jwt.Token, name string) []string {
	var raw any
	if err := token.Get(name, &raw); err != nil {
		return nil
	}

	switch v := raw.(type) {
	case string:
		return strings.Fields(v)
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
