package jwtx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wardenhq/warden/pkg/cryptox"
)

// SigningKeyRecord is a signing key as stored at rest. Private key material
// is encrypted before it ever reaches the store.
type SigningKeyRecord struct {
	ID                  string
	Kid                 string
	Algorithm           string
	PrivateKeyEncrypted []byte
	CreatedAt           time.Time
	RetiredAt           *time.Time
	ExpiresAt           time.Time
}

// KeyStore is the minimal persistence interface for signing keys. Declared
// here rather than in the store package so jwtx stays free of a dependency
// on the database layer.
type KeyStore interface {
	// ListAllSigningKeys returns every key, retired included, so tokens
	// signed before a rotation keep verifying through the grace period.
	ListAllSigningKeys(ctx context.Context) ([]SigningKeyRecord, error)

	// ListActiveSigningKeys returns only keys eligible for signing.
	ListActiveSigningKeys(ctx context.Context) ([]SigningKeyRecord, error)

	// CreateSigningKey stores a new key with encrypted private material.
	CreateSigningKey(ctx context.Context, key SigningKeyRecord) error
}

// PersistentKeyManagerOptions configures a KeyManager whose keys survive
// restarts.
type PersistentKeyManagerOptions struct {
	Store    KeyStore
	Issuer   string
	Audience []string

	// RSABits for newly generated keys. Defaults to 2048.
	RSABits int

	// GracePeriod is how long retired keys remain verifiable.
	// Defaults to 30 days.
	GracePeriod time.Duration
}

// NewPersistentKeyManager loads signing keys from the store, generating and
// persisting a new one if none are active. Because kids are derived from
// key material, a reloaded key keeps signing tokens that verify against the
// JWKS relying services already cached.
func NewPersistentKeyManager(ctx context.Context, opts PersistentKeyManagerOptions) (*KeyManager, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("jwtx: Store is required for persistent key manager")
	}
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: Issuer is required")
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = 30 * 24 * time.Hour
	}

	km := &KeyManager{KeySet: NewKeySet()}
	km.Verifier = NewVerifier(km.KeySet, opts.Issuer, opts.Audience)

	// All keys, retired included, go into the KeySet for verification.
	allKeys, err := opts.Store.ListAllSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("jwtx: load signing keys: %w", err)
	}
	for _, rec := range allKeys {
		signer, err := signerFromRecord(rec)
		if err != nil {
			return nil, err
		}
		if err := km.KeySet.AddSigner(signer); err != nil {
			return nil, fmt.Errorf("jwtx: add key %s to keyset: %w", rec.Kid, err)
		}
	}

	// Only active keys may sign.
	activeKeys, err := opts.Store.ListActiveSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("jwtx: load active signing keys: %w", err)
	}
	for _, rec := range activeKeys {
		signer, err := signerFromRecord(rec)
		if err != nil {
			return nil, err
		}
		km.signers = append(km.signers, signer)
	}

	if len(km.signers) == 0 {
		if _, err := km.generateAndStore(ctx, opts); err != nil {
			return nil, err
		}
	}

	return km, nil
}

// generateAndStore mints a new key pair, encrypts the private PEM, persists
// the record, and registers the signer.
func (km *KeyManager) generateAndStore(ctx context.Context, opts PersistentKeyManagerOptions) (*Signer, error) {
	bits := opts.RSABits
	if bits == 0 {
		bits = MinRSABits
	}
	pemBytes, err := cryptox.GenerateRSAKey(bits)
	if err != nil {
		return nil, fmt.Errorf("jwtx: generate RSA key: %w", err)
	}
	kid, err := deriveKID(pemBytes)
	if err != nil {
		return nil, err
	}
	signer, err := NewSigner(kid, pemBytes)
	if err != nil {
		return nil, err
	}

	encrypted, err := cryptox.EncryptPrivateKey(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("jwtx: encrypt new key: %w", err)
	}

	now := time.Now().UTC()
	rec := SigningKeyRecord{
		ID:                  uuid.NewString(),
		Kid:                 kid,
		Algorithm:           AlgorithmRS256,
		PrivateKeyEncrypted: encrypted,
		CreatedAt:           now,
		ExpiresAt:           now.Add(opts.GracePeriod),
	}
	if err := opts.Store.CreateSigningKey(ctx, rec); err != nil {
		return nil, fmt.Errorf("jwtx: store new key: %w", err)
	}

	if err := km.AddSigner(signer); err != nil {
		return nil, err
	}
	return signer, nil
}

// RotatePersistent generates a new persisted key and makes it the active
// signer. The previous keys keep verifying until their grace period lapses.
func (km *KeyManager) RotatePersistent(ctx context.Context, opts PersistentKeyManagerOptions) (*Signer, error) {
	return km.generateAndStore(ctx, opts)
}

func signerFromRecord(rec SigningKeyRecord) (*Signer, error) {
	if rec.Algorithm != AlgorithmRS256 {
		return nil, fmt.Errorf("jwtx: stored key %s has unsupported algorithm %q", rec.Kid, rec.Algorithm)
	}
	pemBytes, err := cryptox.DecryptPrivateKey(rec.PrivateKeyEncrypted)
	if err != nil {
		return nil, fmt.Errorf("jwtx: decrypt key %s: %w", rec.Kid, err)
	}
	return NewSigner(rec.Kid, pemBytes)
}
