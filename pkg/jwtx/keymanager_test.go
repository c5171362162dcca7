package jwtx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wardenhq/warden/pkg/cryptox"
)

func TestEphemeralKeyManager(t *testing.T) {
	t.Parallel()

	km, err := NewEphemeralKeyManager(KeyManagerOptions{Issuer: "iss"})
	require.NoError(t, err)
	require.True(t, km.IsReady())
	require.NotNil(t, km.ActiveSigner())
	require.Len(t, km.KeySet.PublicJWKS().Keys, 1)
}

func TestKeyManagerRequiresIssuer(t *testing.T) {
	t.Parallel()

	_, err := NewEphemeralKeyManager(KeyManagerOptions{})
	require.Error(t, err)
}

func TestRotationKeepsOldTokensVerifiable(t *testing.T) {
	t.Parallel()

	km, err := NewEphemeralKeyManager(KeyManagerOptions{Issuer: "iss"})
	require.NoError(t, err)

	oldSigner := km.ActiveSigner()
	oldToken, _, err := oldSigner.SignAccess(AccessClaimsParams{Subject: "u"}, time.Hour, "iss", nil, time.Now())
	require.NoError(t, err)

	newSigner, err := km.Rotate(0)
	require.NoError(t, err)
	require.NotEqual(t, oldSigner.KID(), newSigner.KID())
	require.Equal(t, newSigner.KID(), km.ActiveSigner().KID(), "newest key signs")

	// Both keys are published during the overlap window.
	require.Len(t, km.KeySet.PublicJWKS().Keys, 2)

	// A token signed before rotation still verifies.
	_, err = km.Verifier.Verify(context.Background(), oldToken)
	require.NoError(t, err)

	// And so does one signed after.
	newToken, _, err := km.ActiveSigner().SignAccess(AccessClaimsParams{Subject: "u"}, time.Hour, "iss", nil, time.Now())
	require.NoError(t, err)
	_, err = km.Verifier.Verify(context.Background(), newToken)
	require.NoError(t, err)
}

func TestRetireRefusesLastKey(t *testing.T) {
	t.Parallel()

	km, err := NewEphemeralKeyManager(KeyManagerOptions{Issuer: "iss"})
	require.NoError(t, err)

	err = km.RetireKID(km.ActiveSigner().KID())
	require.Error(t, err, "retiring the only signer would leave nothing to sign with")

	_, err = km.Rotate(0)
	require.NoError(t, err)

	oldKid := km.Signers()[0].KID()
	require.NoError(t, km.RetireKID(oldKid))
	require.Len(t, km.Signers(), 1)
}

func TestDeriveKIDDeterministic(t *testing.T) {
	t.Parallel()

	pemKey, err := cryptox.GenerateRSAKey(2048)
	require.NoError(t, err)

	kid1, err := deriveKID(pemKey)
	require.NoError(t, err)
	kid2, err := deriveKID(pemKey)
	require.NoError(t, err)
	require.Equal(t, kid1, kid2, "kid must be derived from key material")

	otherPEM, err := cryptox.GenerateRSAKey(2048)
	require.NoError(t, err)
	otherKid, err := deriveKID(otherPEM)
	require.NoError(t, err)
	require.NotEqual(t, kid1, otherKid)
}
