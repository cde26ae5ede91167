package oidc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// JWKSManager fetches and caches the issuer's signing keys. jwk.Cache
// handles refresh scheduling; registration happens lazily on first use so
// the manager can be built before configuration is validated.
type JWKSManager struct {
	cache *jwk.Cache

	mu         sync.Mutex
	registered map[string]bool
}

// NewJWKSManager creates a JWKS manager backed by an auto-refreshing cache.
func NewJWKSManager() *JWKSManager {
	return &JWKSManager{
		cache:      jwk.NewCache(context.Background()),
		registered: make(map[string]bool),
	}
}

// GetJWKS returns the key set for jwksURL, fetching it on first use and
// serving cached keys afterwards.
func (m *JWKSManager) GetJWKS(ctx context.Context, jwksURL string) (jwk.Set, error) {
	m.mu.Lock()
	if !m.registered[jwksURL] {
		if err := m.cache.Register(jwksURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
			m.mu.Unlock()
			return nil, fmt.Errorf("failed to register JWKS URL: %w", err)
		}
		m.registered[jwksURL] = true
	}
	m.mu.Unlock()

	keys, err := m.cache.Get(ctx, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	return keys, nil
}
