package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wardenhq/warden/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig describes a token bucket: Requests per Window, with up
// to Burst tokens available at once.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// Per-route profiles. Strict guards credential endpoints, Moderate covers
// authenticated mutations, Lenient covers authenticated reads, and Public
// covers unauthenticated discovery endpoints such as the JWKS document.
var (
	StrictLimit   = RateLimitConfig{Requests: 5, Window: time.Minute, Burst: 5}
	ModerateLimit = RateLimitConfig{Requests: 20, Window: time.Minute, Burst: 20}
	LenientLimit  = RateLimitConfig{Requests: 100, Window: time.Minute, Burst: 100}
	PublicLimit   = RateLimitConfig{Requests: 1000, Window: time.Minute, Burst: 1000}
)

// KeyExtractor derives the bucket key for a request. An empty key means
// the request cannot be attributed to a caller and passes unlimited.
type KeyExtractor func(*http.Request) string

// ClientIP resolves the originating client address, preferring proxy
// headers over the socket peer.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// maxPeekBytes bounds how much of a request body the JSON field
// extractor will buffer while looking for its key.
const maxPeekBytes = 1 << 20

// jsonFieldKey reads one string field out of a JSON request body and puts
// the consumed bytes back so the handler can still decode the body.
func jsonFieldKey(field string) KeyExtractor {
	return func(r *http.Request) string {
		if r.Body == nil {
			return ""
		}
		peeked, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
		if err != nil {
			return ""
		}
		r.Body = replayBody{io.MultiReader(bytes.NewReader(peeked), r.Body), r.Body}

		var body map[string]json.RawMessage
		if json.Unmarshal(peeked, &body) != nil {
			return ""
		}
		var val string
		if json.Unmarshal(body[field], &val) != nil {
			return ""
		}
		return val
	}
}

type replayBody struct {
	io.Reader
	io.Closer
}

// Idle buckets are dropped so ephemeral keys cannot grow the pool
// without bound.
const (
	bucketIdleTTL    = 10 * time.Minute
	bucketSweepEvery = 5 * time.Minute
)

// bucketPool lazily creates one limiter per key.
type bucketPool struct {
	mu        sync.Mutex
	rate      rate.Limit
	burst     int
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newBucketPool(cfg RateLimitConfig) *bucketPool {
	return &bucketPool{
		rate:      rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		burst:     cfg.Burst,
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

func (p *bucketPool) get(key string) *rate.Limiter {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	b, ok := p.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(p.rate, p.burst)}
		p.buckets[key] = b
	}
	b.lastSeen = now

	if now.Sub(p.lastSweep) >= bucketSweepEvery {
		p.lastSweep = now
		for k, old := range p.buckets {
			if now.Sub(old.lastSeen) > bucketIdleTTL {
				delete(p.buckets, k)
			}
		}
	}
	return b.lim
}

// RateLimitMiddleware enforces cfg per key produced by extract. Rejected
// requests get a 429 with Retry-After set to the next token's ETA.
func RateLimitMiddleware(cfg RateLimitConfig, extract KeyExtractor) Middleware {
	pool := newBucketPool(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := extract(r)
			if key == "" {
				log.Warn("rate limit key empty, not limiting", "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			lim := pool.get(key)
			if lim.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			res := lim.Reserve()
			wait := res.Delay()
			res.Cancel()
			retryAfter := max(1, int(wait.Seconds()))

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
			w.Header().Set("X-RateLimit-Window", cfg.Window.String())

			log.Warn("rate limit exceeded",
				"key", key,
				"path", r.URL.Path,
				"retry_after", retryAfter,
			)
			ErrRateLimited.WriteError(w)
		})
	}
}

// RateLimitByIP buckets requests by originating client address.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, ClientIP)
}

// RateLimitByUser buckets by authenticated subject and address, falling
// back to address alone when authentication has not run yet.
func RateLimitByUser(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, func(r *http.Request) string {
		if sub, ok := UserIDFromContext(r.Context()); ok && sub != "" {
			return sub + "@" + ClientIP(r)
		}
		return ClientIP(r)
	})
}

// RateLimitByIPAndJSONField buckets by client address plus a string field
// from the JSON request body, so login attempts are throttled per
// username as well as per address.
func RateLimitByIPAndJSONField(cfg RateLimitConfig, field string) Middleware {
	extract := jsonFieldKey(field)
	return RateLimitMiddleware(cfg, func(r *http.Request) string {
		if v := extract(r); v != "" {
			return ClientIP(r) + ":" + v
		}
		return ClientIP(r)
	})
}
