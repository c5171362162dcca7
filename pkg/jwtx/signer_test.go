package jwtx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wardenhq/warden/pkg/cryptox"
)

func newTestSigner(t *testing.T, kid string) *Signer {
	t.Helper()

	pemKey, err := cryptox.GenerateRSAKey(2048)
	require.NoError(t, err)

	signer, err := NewSigner(kid, pemKey)
	require.NoError(t, err)
	return signer
}

func TestSignerRoundTrip(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t, "test-key-1")

	keys := NewKeySet()
	require.NoError(t, keys.AddSigner(signer))

	verifier := NewVerifier(keys, "issuer-a", []string{"aud-a"})

	token, claims, err := signer.SignAccess(AccessClaimsParams{
		Subject:     "user-1",
		SessionID:   "sess-1",
		Name:        "Alice Example",
		Roles:       []string{"admin"},
		Permissions: []string{"orders:read"},
		AMR:         []string{AMRPassword},
	}, time.Hour, "issuer-a", []string{"aud-a"}, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, claims.ID)

	got, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "sess-1", got.SID)
	require.Equal(t, []string{"admin"}, got.Roles)
	require.Equal(t, []string{"orders:read"}, got.Permissions)
	require.Equal(t, claims.ID, got.ID)
}

func TestSignerRejectsNonPositiveTTL(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t, "ttl-key")

	_, _, err := signer.SignAccess(AccessClaimsParams{Subject: "u"}, 0, "iss", nil, time.Now())
	require.ErrorIs(t, err, ErrInvalidExpiry)

	_, _, err = signer.SignAccess(AccessClaimsParams{Subject: "u"}, -time.Minute, "iss", nil, time.Now())
	require.ErrorIs(t, err, ErrInvalidExpiry)
}

func TestNewSignerRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := NewSigner("bad", []byte("not a pem block"))
	require.Error(t, err)
}

func TestNewJTIUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for range 100 {
		jti := NewJTI()
		_, dup := seen[jti]
		require.False(t, dup, "jti repeated: %s", jti)
		seen[jti] = struct{}{}
	}
}
