// Package blacklist records revoked token ids (jti) until the moment the
// token would have expired on its own. Every validation consults it; an
// entry past its own expiry is logically absent whether or not it has been
// physically purged yet.
package blacklist

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is the fallback lifetime for a revocation when the caller
// cannot compute the token's remaining validity.
const DefaultTTL = 24 * time.Hour

// ErrUnavailable reports that the backing store could not be reached. It is
// always surfaced to the caller: treating an unreachable blacklist as "not
// revoked" would silently disable revocation.
var ErrUnavailable = errors.New("blacklist: store unavailable")

// Store is the revocation store contract. Implementations must keep TTL
// semantics identical whether backed by process memory, Redis, or a remote
// service.
type Store interface {
	// Blacklist records jti as revoked until now+ttl. Idempotent:
	// re-blacklisting extends the expiry if the new one is later, so the
	// entry always outlives the token's remaining validity.
	Blacklist(ctx context.Context, jti string, ttl time.Duration) error

	// IsBlacklisted reports whether jti is currently revoked. Expired
	// entries count as absent. Errors are loud, never a silent false.
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}
