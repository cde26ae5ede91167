package oidc

import (
	"context"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claims are the identity claims the studio cares about. The studio is
// single-operator: authorization is a match on the subject or email,
// not a role system.
type Claims struct {
	Sub   string
	Email string
	Name  string
	Iss   string
	Aud   string
}

// Verifier verifies bearer tokens issued by the configured identity
// provider.
type Verifier struct {
	jwksManager *JWKSManager
	jwksURL     string
	issuer      string
	audience    string
}

// NewVerifier creates a verifier for a single issuer and audience.
func NewVerifier(jwksManager *JWKSManager, jwksURL, issuer, audience string) *Verifier {
	return &Verifier{
		jwksManager: jwksManager,
		jwksURL:     jwksURL,
		issuer:      issuer,
		audience:    audience,
	}
}

// Verify checks a token's signature against the cached JWKS and
// validates the issuer and audience. Expiry is validated by jwt.Parse.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	keys, err := v.jwksManager.GetJWKS(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	token, err := jwt.Parse([]byte(tokenString), jwt.WithKeySet(keys), jwt.WithValidate(true))
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify token: %w", err)
	}

	if token.Issuer() != v.issuer {
		return nil, fmt.Errorf("token issuer mismatch: expected %s, got %s", v.issuer, token.Issuer())
	}

	claims := &Claims{
		Sub: token.Subject(),
		Iss: token.Issuer(),
	}

	if aud := token.Audience(); len(aud) > 0 {
		claims.Aud = aud[0]
	}
	if v.audience != "" {
		matched := false
		for _, aud := range token.Audience() {
			if aud == v.audience {
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("token audience mismatch: expected %s", v.audience)
		}
	}

	if email, ok := token.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			claims.Email = emailStr
		}
	}
	if name, ok := token.Get("name"); ok {
		if nameStr, ok := name.(string); ok {
			claims.Name = nameStr
		}
	}

	return claims, nil
}
