package jwkscache

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wardenhq/warden/pkg/jwtx"
)

const (
	// DefaultFetchTimeout bounds one JWKS HTTP round trip. A hung issuer
	// must not hang every request waiting on a key.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultMinRefreshInterval throttles miss-triggered fetches so a
	// flood of tokens with an unknown kid cannot hammer the issuer.
	DefaultMinRefreshInterval = 5 * time.Minute
)

// ErrFetch wraps all JWKS endpoint failures: network errors, non-200
// responses, malformed documents, empty key lists.
var ErrFetch = errors.New("jwkscache: jwks fetch failed")

// ClientConfig configures a Client. Zero values get the package defaults.
type ClientConfig struct {
	// URL of the issuer's JWKS endpoint.
	URL string

	// Cache holds fetched keys. Required.
	Cache Cache

	// TTL applied to each cached key.
	TTL time.Duration

	// MinRefreshInterval throttles the fetch-on-miss path. The background
	// Refresher is exempt.
	MinRefreshInterval time.Duration

	// HTTPClient may be overridden for tests. Defaults to a client with
	// DefaultFetchTimeout.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client resolves kids to verification keys for a relying service. It
// checks the cache first, then fetches the issuer's JWKS on miss.
// Concurrent misses for the same key set trigger exactly one fetch
// (singleflight); everyone else waits on the in-flight call and re-reads
// the cache. Implements jwtx.KeyResolver.
type Client struct {
	url    string
	cache  Cache
	ttl    time.Duration
	minGap time.Duration
	http   *http.Client
	log    *slog.Logger
	now    func() time.Time

	group singleflight.Group

	mu          sync.Mutex
	lastAttempt time.Time

	fetches atomic.Int64
}

// NewClient builds a Client from config.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("jwkscache: URL is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("jwkscache: Cache is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MinRefreshInterval <= 0 {
		cfg.MinRefreshInterval = DefaultMinRefreshInterval
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultFetchTimeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		url:    cfg.URL,
		cache:  cfg.Cache,
		ttl:    cfg.TTL,
		minGap: cfg.MinRefreshInterval,
		http:   cfg.HTTPClient,
		log:    cfg.Logger,
		now:    time.Now,
	}, nil
}

// ResolveKey implements jwtx.KeyResolver: cache hit, else one throttled
// fetch, else unknown kid.
func (c *Client) ResolveKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	jwk, ok, err := c.cache.TryGet(ctx, kid)
	if err != nil {
		return nil, err
	}
	if ok {
		return jwk.PublicKey()
	}

	if !c.shouldRefresh() {
		// Throttled: refuse to hammer the issuer, report the key as
		// unknown and let the background refresher catch up.
		return nil, jwtx.ErrUnknownKID
	}

	// Serialize concurrent misses into a single fetch. The shared key ""
	// is deliberate: one JWKS document covers every kid.
	_, err, _ = c.group.Do("jwks", func() (any, error) {
		return nil, c.refresh(ctx)
	})
	if err != nil {
		c.log.Warn("jwks refresh on miss failed", "kid", kid, "err", err)
		return nil, jwtx.ErrUnknownKID
	}

	jwk, ok, err = c.cache.TryGet(ctx, kid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, jwtx.ErrUnknownKID
	}
	return jwk.PublicKey()
}

// Refresh unconditionally re-fetches and re-caches the issuer's JWKS.
// Used by the background Refresher; not subject to the miss throttle.
func (c *Client) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("jwks", func() (any, error) {
		return nil, c.refresh(ctx)
	})
	return err
}

// FetchCount reports how many JWKS HTTP fetches have completed (successful
// or not). Instrumentation for tests and metrics.
func (c *Client) FetchCount() int64 {
	return c.fetches.Load()
}

// shouldRefresh records a fetch attempt if enough time has passed since the
// last one. Attempts count whether or not they succeed, so repeated misses
// against a down issuer stay bounded.
func (c *Client) shouldRefresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if now.Sub(c.lastAttempt) < c.minGap {
		return false
	}
	c.lastAttempt = now
	return true
}

// refresh performs one fetch-parse-cache cycle. On any failure the cache is
// left untouched: stale-but-valid keys beat no keys.
func (c *Client) refresh(ctx context.Context) error {
	c.fetches.Add(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetch, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrFetch, resp.StatusCode)
	}

	var doc jwtx.JWKS
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("%w: decode: %w", ErrFetch, err)
	}
	if len(doc.Keys) == 0 {
		return fmt.Errorf("%w: empty key list", ErrFetch)
	}

	for _, jwk := range doc.Keys {
		if _, err := jwk.PublicKey(); err != nil {
			c.log.Warn("skipping unparseable jwk", "kid", jwk.Kid, "err", err)
			continue
		}
		if err := c.cache.Set(ctx, jwk.Kid, jwk, c.ttl); err != nil {
			return err
		}
	}

	c.log.Debug("jwks refreshed", "url", c.url, "keys", len(doc.Keys))
	return nil
}

// SetClock overrides the time source used by the miss throttle. Tests only.
func (c *Client) SetClock(now func() time.Time) { c.now = now }
