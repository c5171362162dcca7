package jwtx

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/wardenhq/warden/pkg/cryptox"
)

// KeyManager owns the issuing service's signing keys. It keeps the active
// signers (newest signs, older ones remain published for rotation overlap)
// and the KeySet that backs the JWKS endpoint.
type KeyManager struct {
	KeySet   *KeySet
	Verifier *Verifier

	mu      sync.RWMutex
	signers []*Signer // ordered oldest first; last is the active signer
}

// KeyManagerOptions configures key generation at startup.
type KeyManagerOptions struct {
	// Issuer is the iss claim stamped into and validated on tokens.
	Issuer string

	// Audience values validated on inbound tokens. Empty disables the check.
	Audience []string

	// RSABits is the modulus size for generated keys. Defaults to 2048,
	// which is also the minimum.
	RSABits int
}

// NewEphemeralKeyManager generates a fresh RSA key pair in memory. Keys are
// never persisted, so every token becomes unverifiable when the process
// restarts and the kid changes. Use NewPersistentKeyManager to avoid the
// mass invalidation on deploys.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: Issuer is required")
	}

	km := &KeyManager{KeySet: NewKeySet()}
	km.Verifier = NewVerifier(km.KeySet, opts.Issuer, opts.Audience)

	signer, err := generateSigner(opts.RSABits)
	if err != nil {
		return nil, err
	}
	if err := km.AddSigner(signer); err != nil {
		return nil, err
	}
	return km, nil
}

// ActiveSigner returns the signer used for new tokens: always the newest
// key. Older keys stay in the KeySet so tokens signed before a rotation
// still verify.
func (km *KeyManager) ActiveSigner() *Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()
	if len(km.signers) == 0 {
		return nil
	}
	return km.signers[len(km.signers)-1]
}

// AddSigner registers a signer for publication and makes it the active one.
func (km *KeyManager) AddSigner(s *Signer) error {
	if s == nil {
		return fmt.Errorf("jwtx: nil signer")
	}
	km.mu.Lock()
	defer km.mu.Unlock()
	if err := km.KeySet.AddSigner(s); err != nil {
		return err
	}
	km.signers = append(km.signers, s)
	return nil
}

// Rotate generates a new key pair and makes it the active signer. The old
// keys remain published for verification overlap; housekeeping drops them
// once their grace period passes.
func (km *KeyManager) Rotate(rsaBits int) (*Signer, error) {
	signer, err := generateSigner(rsaBits)
	if err != nil {
		return nil, err
	}
	if err := km.AddSigner(signer); err != nil {
		return nil, err
	}
	return signer, nil
}

// RetireKID stops publishing a key. Tokens signed with it become
// unverifiable, so only call this for compromised or long-expired keys.
func (km *KeyManager) RetireKID(kid string) error {
	km.mu.Lock()
	defer km.mu.Unlock()
	if len(km.signers) <= 1 {
		return fmt.Errorf("jwtx: cannot retire the last signing key")
	}
	found := false
	kept := km.signers[:0]
	for _, s := range km.signers {
		if s.KID() == kid {
			found = true
			continue
		}
		kept = append(kept, s)
	}
	if !found {
		return fmt.Errorf("jwtx: signer with kid %q not found", kid)
	}
	km.signers = kept
	km.KeySet.Remove(kid)
	return nil
}

// Signers returns a snapshot of the active signing keys, oldest first.
func (km *KeyManager) Signers() []*Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()
	out := make([]*Signer, len(km.signers))
	copy(out, km.signers)
	return out
}

// IsReady reports whether the manager has at least one usable key.
func (km *KeyManager) IsReady() bool {
	return km.KeySet.IsReady()
}

func generateSigner(rsaBits int) (*Signer, error) {
	if rsaBits == 0 {
		rsaBits = MinRSABits
	}
	pemBytes, err := cryptox.GenerateRSAKey(rsaBits)
	if err != nil {
		return nil, fmt.Errorf("jwtx: generate RSA key: %w", err)
	}
	kid, err := deriveKID(pemBytes)
	if err != nil {
		return nil, err
	}
	return NewSigner(kid, pemBytes)
}

// deriveKID computes a stable key id from the key material itself, so a
// persisted key keeps its kid across restarts without storing it twice.
func deriveKID(pemBytes []byte) (string, error) {
	s, err := NewSigner("probe", pemBytes)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(s.pub.N.Bytes())
	return "warden-" + base64.RawURLEncoding.EncodeToString(sum[:9]), nil
}
