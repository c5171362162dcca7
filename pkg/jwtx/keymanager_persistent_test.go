package jwtx

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memKeyStore struct {
	mu   sync.Mutex
	keys []SigningKeyRecord
}

func (m *memKeyStore) ListAllSigningKeys(context.Context) ([]SigningKeyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SigningKeyRecord(nil), m.keys...), nil
}

func (m *memKeyStore) ListActiveSigningKeys(context.Context) ([]SigningKeyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var out []SigningKeyRecord
	for _, k := range m.keys {
		if k.RetiredAt == nil && now.Before(k.ExpiresAt) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *memKeyStore) CreateSigningKey(_ context.Context, key SigningKeyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return nil
}

func TestPersistentKeyManagerSurvivesRestart(t *testing.T) {
	store := &memKeyStore{}
	ctx := context.Background()

	opts := PersistentKeyManagerOptions{Store: store, Issuer: "iss"}

	km1, err := NewPersistentKeyManager(ctx, opts)
	require.NoError(t, err)
	require.True(t, km1.IsReady())
	require.Len(t, store.keys, 1, "first boot generates and persists a key")

	token, _, err := km1.ActiveSigner().SignAccess(AccessClaimsParams{Subject: "u"}, time.Hour, "iss", nil, time.Now())
	require.NoError(t, err)

	// A second manager over the same store stands in for a restart.
	km2, err := NewPersistentKeyManager(ctx, opts)
	require.NoError(t, err)
	require.Len(t, store.keys, 1, "restart must reuse the stored key, not mint another")
	require.Equal(t, km1.ActiveSigner().KID(), km2.ActiveSigner().KID())

	// Tokens issued before the restart still verify.
	_, err = km2.Verifier.Verify(ctx, token)
	require.NoError(t, err)
}

func TestPersistentRotationAddsKey(t *testing.T) {
	store := &memKeyStore{}
	ctx := context.Background()

	opts := PersistentKeyManagerOptions{Store: store, Issuer: "iss"}

	km, err := NewPersistentKeyManager(ctx, opts)
	require.NoError(t, err)
	oldKid := km.ActiveSigner().KID()

	oldToken, _, err := km.ActiveSigner().SignAccess(AccessClaimsParams{Subject: "u"}, time.Hour, "iss", nil, time.Now())
	require.NoError(t, err)

	newSigner, err := km.RotatePersistent(ctx, opts)
	require.NoError(t, err)
	require.NotEqual(t, oldKid, newSigner.KID())
	require.Len(t, store.keys, 2)
	require.Equal(t, newSigner.KID(), km.ActiveSigner().KID())

	_, err = km.Verifier.Verify(ctx, oldToken)
	require.NoError(t, err, "pre-rotation token verifies through the overlap")
}
