// Package client holds the auth-service clients a relying service needs
// for token validation: the session gate lookup with a short-lived cache.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	// DefaultGateCacheTTL bounds how stale a session-active answer may
	// be. Kept short so logouts propagate quickly.
	DefaultGateCacheTTL = 30 * time.Second

	defaultRequestTimeout = 10 * time.Second
)

// SessionGateClient answers jwtx.SessionGate queries against the auth
// service's GET /v1/sessions/{id} endpoint, caching answers briefly to
// keep a hot endpoint from hammering the auth service.
type SessionGateClient struct {
	BaseURL    string
	HTTPClient *http.Client
	CacheTTL   time.Duration

	mu    sync.RWMutex
	cache map[string]gateEntry

	now func() time.Time
}

type gateEntry struct {
	active  bool
	expires time.Time
}

type sessionGateResponse struct {
	Active bool `json:"active"`
}

func NewSessionGateClient(baseURL string) *SessionGateClient {
	return &SessionGateClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: defaultRequestTimeout},
		CacheTTL:   DefaultGateCacheTTL,
		cache:      make(map[string]gateEntry),
		now:        time.Now,
	}
}

// IsSessionActive implements jwtx.SessionGate. An unknown session reads
// as inactive; a transport failure is an error, never a pass.
func (c *SessionGateClient) IsSessionActive(ctx context.Context, sid string) (bool, error) {
	if active, ok := c.cached(sid); ok {
		return active, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/sessions/"+sid, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("session gate request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body sessionGateResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return false, fmt.Errorf("session gate decode: %w", err)
		}
		c.store(sid, body.Active)
		return body.Active, nil
	case http.StatusNotFound:
		c.store(sid, false)
		return false, nil
	default:
		return false, fmt.Errorf("session gate: unexpected status %d", resp.StatusCode)
	}
}

func (c *SessionGateClient) cached(sid string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[sid]
	if !ok || c.now().After(entry.expires) {
		return false, false
	}
	return entry.active, true
}

func (c *SessionGateClient) store(sid string, active bool) {
	ttl := c.CacheTTL
	if ttl <= 0 {
		ttl = DefaultGateCacheTTL
	}
	c.mu.Lock()
	c.cache[sid] = gateEntry{active: active, expires: c.now().Add(ttl)}
	c.mu.Unlock()
}
