package blacklist

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store. Expired entries are dropped lazily at
// lookup time; Sweep does a batch cleanup for jtis that are revoked and
// never looked up again.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]time.Time // jti -> expiry
	now     func() time.Time
}

// NewMemory returns an empty in-process blacklist.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Blacklist implements Store. Re-blacklisting keeps the later expiry.
func (m *Memory) Blacklist(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	expiry := m.now().Add(ttl)

	m.mu.Lock()
	if cur, ok := m.entries[jti]; !ok || expiry.After(cur) {
		m.entries[jti] = expiry
	}
	m.mu.Unlock()
	return nil
}

// IsBlacklisted implements Store with lazy eviction.
func (m *Memory) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.RLock()
	expiry, ok := m.entries[jti]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if m.now().After(expiry) {
		m.mu.Lock()
		if cur, ok := m.entries[jti]; ok && m.now().After(cur) {
			delete(m.entries, jti)
		}
		m.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Sweep removes every expired entry and reports how many were dropped.
func (m *Memory) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	dropped := 0
	for jti, expiry := range m.entries {
		if now.After(expiry) {
			delete(m.entries, jti)
			dropped++
		}
	}
	return dropped
}

// Len reports the number of entries including any not yet swept.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// SetClock overrides the time source. Tests only.
func (m *Memory) SetClock(now func() time.Time) { m.now = now }
