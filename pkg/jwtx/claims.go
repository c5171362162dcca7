package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultAccessTokenTTL is the default lifetime for access tokens.
const DefaultAccessTokenTTL = 1 * time.Hour

// Authentication method reference values carried in the "amr" claim.
//
//	"pwd": password-based authentication
//	"otp": one-time password (TOTP)
//	"mfa": multi-factor auth was completed
const (
	AMRPassword = "pwd"
	AMROTP      = "otp"
	AMRMFA      = "mfa"
)

// Claims are the access-token claims shared between the issuing service and
// every relying service. Changes must stay additive to preserve
// compatibility with tokens already in flight.
type Claims struct {
	jwt.RegisteredClaims

	// SID links the token to exactly one login session.
	SID string `json:"sid,omitempty"`

	// TID is the tenant the token was issued under. Carried opaquely;
	// relying services decide what to do with it.
	TID string `json:"tid,omitempty"`

	// Name is the display name for the user.
	Name string `json:"name,omitempty"`

	// Roles held by the user at issuance time.
	Roles []string `json:"roles,omitempty"`

	// Permissions granted at issuance time, e.g. "orders:read".
	Permissions []string `json:"permissions,omitempty"`

	// AMR records how the user authenticated.
	AMR []string `json:"amr,omitempty"`
}

// AccessClaimsParams collects the identity inputs for a new access token.
// Slices are copied on build so callers keep ownership of theirs.
type AccessClaimsParams struct {
	Subject     string
	SessionID   string
	TenantID    string
	Name        string
	Roles       []string
	Permissions []string
	AMR         []string
}

// NewAccessClaims builds minimally-correct claims with a fresh jti.
// TTL must be positive; the signer enforces this before signing.
func NewAccessClaims(p AccessClaimsParams, ttl time.Duration, issuer string, audience []string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.Subject,
			Audience:  jwt.ClaimStrings(slices.Clone(audience)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		SID:         p.SessionID,
		TID:         p.TenantID,
		Name:        p.Name,
		Roles:       slices.Clone(p.Roles),
		Permissions: slices.Clone(p.Permissions),
		AMR:         slices.Clone(p.AMR),
	}
}

// NewJTI returns a fresh unique identifier for the "jti" claim. Revocation
// keys off this value, so it must never repeat.
func NewJTI() string {
	return uuid.NewString()
}

// ValidateIssuer checks the issuer matches the expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// HasRole reports whether the claims carry the given role.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// HasPermission reports whether the claims carry the given permission.
func (c *Claims) HasPermission(perm string) bool {
	return slices.Contains(c.Permissions, perm)
}
