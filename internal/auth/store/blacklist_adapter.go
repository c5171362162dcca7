package store

import (
	"context"
	"fmt"
	"time"

	"github.com/wardenhq/warden/pkg/blacklist"
)

// BlacklistAdapter exposes the database blacklist repo through the
// pkg/blacklist.Store interface so services and the validation chain
// can stay backend-agnostic.
type BlacklistAdapter struct {
	store Store
}

func NewBlacklistAdapter(store Store) *BlacklistAdapter {
	return &BlacklistAdapter{store: store}
}

// Blacklist records the jti for ttl from now. Re-blacklisting only ever
// extends the expiry.
func (a *BlacklistAdapter) Blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = blacklist.DefaultTTL
	}
	if err := a.store.Blacklist().Blacklist(ctx, jti, time.Now().UTC().Add(ttl)); err != nil {
		return fmt.Errorf("%w: %v", blacklist.ErrUnavailable, err)
	}
	return nil
}

// IsBlacklisted reports whether the jti is currently revoked. Storage
// failures surface as errors; they never read as "not revoked".
func (a *BlacklistAdapter) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	revoked, err := a.store.Blacklist().IsBlacklisted(ctx, jti)
	if err != nil {
		return false, fmt.Errorf("%w: %v", blacklist.ErrUnavailable, err)
	}
	return revoked, nil
}
