// Package jwkscache keeps a relying service's copy of an issuer's JWKS
// warm. A Cache stores JWK entries by kid with a TTL; a Client resolves
// kids for token verification, fetching from the issuer's JWKS endpoint on
// miss; a Refresher re-fetches in the background so key rotations are
// picked up before the first verification fails.
package jwkscache

import (
	"context"
	"sync"
	"time"

	"github.com/wardenhq/warden/pkg/jwtx"
)

// DefaultTTL is how long a fetched key stays usable before it must be
// re-fetched.
const DefaultTTL = 10 * time.Minute

// Cache maps kid to a published JWK with a TTL. An entry past its expiry is
// logically absent whether or not it has been physically purged. The two
// implementations (in-process map, Redis) must behave identically at this
// interface; the choice is a deployment decision.
type Cache interface {
	// TryGet returns the cached JWK for kid, or ok=false if missing or
	// expired. Expired entries are evicted, never returned stale.
	TryGet(ctx context.Context, kid string) (jwtx.JWK, bool, error)

	// Set inserts or overwrites the entry, computing expiry = now + ttl.
	// Last write wins per kid.
	Set(ctx context.Context, kid string, jwk jwtx.JWK, ttl time.Duration) error

	// Remove evicts an entry explicitly, e.g. on detected compromise.
	Remove(ctx context.Context, kid string) error
}

type memoryEntry struct {
	jwk       jwtx.JWK
	expiresAt time.Time
}

// Memory is an in-process Cache for single-instance deployments. Safe for
// concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// TryGet implements Cache. Expired entries are purged on the way out.
func (m *Memory) TryGet(_ context.Context, kid string) (jwtx.JWK, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[kid]
	m.mu.RUnlock()
	if !ok {
		return jwtx.JWK{}, false, nil
	}
	if m.now().After(entry.expiresAt) {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// refreshed the entry.
		if cur, ok := m.entries[kid]; ok && m.now().After(cur.expiresAt) {
			delete(m.entries, kid)
		}
		m.mu.Unlock()
		return jwtx.JWK{}, false, nil
	}
	return entry.jwk, true, nil
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, kid string, jwk jwtx.JWK, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m.mu.Lock()
	m.entries[kid] = memoryEntry{jwk: jwk, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Remove implements Cache.
func (m *Memory) Remove(_ context.Context, kid string) error {
	m.mu.Lock()
	delete(m.entries, kid)
	m.mu.Unlock()
	return nil
}

// Len reports the number of entries including any not yet purged.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// SetClock overrides the time source. Tests only.
func (m *Memory) SetClock(now func() time.Time) { m.now = now }
