package jwtx

import (
	"context"
	"fmt"
)

// RevocationChecker answers whether a token id has been revoked. An error
// means the backing store could not be reached; the validator fails the
// request rather than treating "unknown" as "not revoked".
type RevocationChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// SessionGate answers whether the session a token is bound to is still
// active. It must read fresh (or near-fresh) state: a just-logged-out
// session is expected to close the gate promptly.
type SessionGate interface {
	IsSessionActive(ctx context.Context, sid string) (bool, error)
}

// Validator is the full request-time token check: signature and registered
// claims via the Verifier, then revocation, then session liveness. Each
// dependency is a narrow interface so the pieces can be swapped (in-memory,
// Redis, remote HTTP) without touching this code.
type Validator struct {
	Verifier    *Verifier
	Revocations RevocationChecker // optional; nil skips the blacklist check
	Sessions    SessionGate       // optional; nil skips session gating
}

// Validate runs the complete check chain and returns the claims principal.
// Failures come back as one of the jwtx sentinel errors (possibly wrapped),
// never a generic "invalid token".
func (v *Validator) Validate(ctx context.Context, tokenStr string) (*Claims, error) {
	claims, err := v.Verifier.Verify(ctx, tokenStr)
	if err != nil {
		return nil, err
	}

	if v.Revocations != nil && claims.ID != "" {
		revoked, err := v.Revocations.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			// An unreachable blacklist must fail the request loudly.
			// Returning "not revoked" here would defeat revocation.
			return nil, fmt.Errorf("jwtx: blacklist check: %w", err)
		}
		if revoked {
			return nil, ErrRevoked
		}
	}

	if v.Sessions != nil && claims.SID != "" {
		active, err := v.Sessions.IsSessionActive(ctx, claims.SID)
		if err != nil {
			return nil, fmt.Errorf("jwtx: session check: %w", err)
		}
		if !active {
			return nil, ErrSessionInactive
		}
	}

	return claims, nil
}
