package jwtx

import (
	"context"
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// KeyResolver resolves a kid from a token header to RSA verification key
// material. The in-memory KeySet satisfies it for the issuing service;
// relying services plug in a JWKS cache that fetches on miss, which is why
// resolution takes a context.
type KeyResolver interface {
	ResolveKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// Verifier checks a token's signature and registered claims. It does not
// know about revocation or sessions; Validator layers those on top.
type Verifier struct {
	Keys     KeyResolver
	Issuer   string        // expected iss; empty means "don't care"
	Audience []string      // expected aud values; empty means "don't care"
	Leeway   time.Duration // clock-skew tolerance for exp/nbf
}

// NewVerifier creates a Verifier with the given key source and expectations.
func NewVerifier(keys KeyResolver, issuer string, audience []string) *Verifier {
	return &Verifier{Keys: keys, Issuer: issuer, Audience: audience}
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *Verifier) Verify(ctx context.Context, tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{AlgorithmRS256}),
		jwt.WithLeeway(v.Leeway),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrMissingKID
		}
		pub, err := v.Keys.ResolveKey(ctx, kid)
		if err != nil {
			return nil, err
		}
		return pub, nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}

	// The parser already checked exp/nbf with leeway; these give us the
	// distinguishable issuer/audience errors the parser doesn't.
	if err := claims.ValidateIssuer(v.Issuer); err != nil {
		return nil, err
	}
	if err := claims.ValidateAudience(v.Audience); err != nil {
		return nil, err
	}

	return claims, nil
}

// mapParseError collapses golang-jwt's error soup into our taxonomy.
// Resolver errors (unknown kid, fetch failures) pass through unchanged so
// callers can distinguish them from signature problems.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, ErrUnknownKID),
		errors.Is(err, ErrMissingKID):
		return err
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		// Keyfunc failed for a reason other than our sentinels, e.g. a
		// JWKS fetch error. Keep the cause attached.
		return err
	default:
		return err
	}
}
