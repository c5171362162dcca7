package blacklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "blacklist:"

// Redis is a Store shared across service replicas. Entry expiry rides on
// Redis key TTLs, so eviction is handled by the server and lookups stay
// O(1).
type Redis struct {
	client redis.Cmdable
}

// NewRedis wraps an existing go-redis client. The caller owns the client's
// lifecycle.
func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client}
}

// Blacklist implements Store. The expiry only ever moves later: if the jti
// is already present with a longer TTL we keep it.
func (r *Redis) Blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	key := redisKeyPrefix + jti

	cur, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if cur >= ttl {
		return nil
	}
	if err := r.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// IsBlacklisted implements Store.
func (r *Redis) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, redisKeyPrefix+jti).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return n > 0, nil
}
