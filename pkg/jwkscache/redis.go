package jwkscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wardenhq/warden/pkg/jwtx"
)

// redisKeyPrefix namespaces cache entries so the same Redis instance can
// also carry the blacklist.
const redisKeyPrefix = "jwks:"

// Redis is a Cache backed by a shared Redis instance, for deployments where
// several replicas of a relying service should share one fetched key set.
// TTL semantics ride on Redis key expiry, so they match Memory exactly.
type Redis struct {
	client redis.Cmdable
}

// NewRedis wraps an existing go-redis client. The caller owns the client's
// lifecycle.
func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client}
}

// TryGet implements Cache. A Redis error is a real error, not a miss:
// callers must not confuse "cache unreachable" with "key unknown".
func (r *Redis) TryGet(ctx context.Context, kid string) (jwtx.JWK, bool, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+kid).Result()
	if errors.Is(err, redis.Nil) {
		return jwtx.JWK{}, false, nil
	}
	if err != nil {
		return jwtx.JWK{}, false, fmt.Errorf("jwkscache: redis get: %w", err)
	}
	var jwk jwtx.JWK
	if err := json.Unmarshal([]byte(raw), &jwk); err != nil {
		return jwtx.JWK{}, false, fmt.Errorf("jwkscache: decode cached jwk: %w", err)
	}
	return jwk, true, nil
}

// Set implements Cache using Redis native key expiry.
func (r *Redis) Set(ctx context.Context, kid string, jwk jwtx.JWK, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	raw, err := json.Marshal(jwk)
	if err != nil {
		return fmt.Errorf("jwkscache: encode jwk: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+kid, raw, ttl).Err(); err != nil {
		return fmt.Errorf("jwkscache: redis set: %w", err)
	}
	return nil
}

// Remove implements Cache.
func (r *Redis) Remove(ctx context.Context, kid string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+kid).Err(); err != nil {
		return fmt.Errorf("jwkscache: redis del: %w", err)
	}
	return nil
}
