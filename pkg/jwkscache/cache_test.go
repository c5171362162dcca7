package jwkscache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/pkg/jwtx"
)

func TestMemoryTTLExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := NewMemory()

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.SetClock(func() time.Time { return clock })

	require.NoError(t, cache.Set(ctx, "kid-1", jwtx.JWK{Kid: "kid-1"}, time.Minute))

	_, ok, err := cache.TryGet(ctx, "kid-1")
	require.NoError(t, err)
	require.True(t, ok)

	clock = clock.Add(2 * time.Minute)

	_, ok, err = cache.TryGet(ctx, "kid-1")
	require.NoError(t, err)
	require.False(t, ok, "expired entry must be logically absent")
	require.Equal(t, 0, cache.Len(), "TryGet purges the expired entry")
}

func TestMemoryLastWriteWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := NewMemory()

	require.NoError(t, cache.Set(ctx, "kid-1", jwtx.JWK{Kid: "kid-1", Alg: "RS256"}, time.Minute))
	require.NoError(t, cache.Set(ctx, "kid-1", jwtx.JWK{Kid: "kid-1", Alg: "RS512"}, time.Minute))

	jwk, ok, err := cache.TryGet(ctx, "kid-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "RS512", jwk.Alg)
	require.Equal(t, 1, cache.Len())
}

func TestMemoryRemove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := NewMemory()

	require.NoError(t, cache.Set(ctx, "kid-1", jwtx.JWK{Kid: "kid-1"}, time.Minute))
	require.NoError(t, cache.Remove(ctx, "kid-1"))

	_, ok, err := cache.TryGet(ctx, "kid-1")
	require.NoError(t, err)
	require.False(t, ok)

	// Removing an absent entry is a no-op.
	require.NoError(t, cache.Remove(ctx, "kid-1"))
}
