package jwtx

import (
	"context"
	"crypto/rsa"
	"sync"
)

// KeySet holds public verification keys in memory. The issuing service uses
// it to build the JWKS document it publishes; it also backs verification in
// tests and single-process deployments. Thread-safe.
type KeySet struct {
	mu  sync.RWMutex
	jks JWKS
	pub map[string]*rsa.PublicKey
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]*rsa.PublicKey)}
}

// AddSigner registers a Signer's public JWK into the KeySet.
func (k *KeySet) AddSigner(s *Signer) error {
	return k.AddJWK(s.PublicJWK())
}

// AddJWK adds a JWK and parses it into a usable crypto key. A JWK with a
// kid already present replaces the old entry; rotation is expected to mint
// a new kid instead.
func (k *KeySet) AddJWK(j JWK) error {
	pub, err := j.PublicKey()
	if err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, exists := k.pub[j.Kid]; exists {
		for i := range k.jks.Keys {
			if k.jks.Keys[i].Kid == j.Kid {
				k.jks.Keys[i] = j
			}
		}
	} else {
		k.jks.Keys = append(k.jks.Keys, j)
	}
	k.pub[j.Kid] = pub
	return nil
}

// Get returns the public key for the given kid.
func (k *KeySet) Get(kid string) (*rsa.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pub, ok := k.pub[kid]; ok {
		return pub, nil
	}
	return nil, ErrUnknownKID
}

// Remove evicts a key, e.g. after a detected compromise.
func (k *KeySet) Remove(kid string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.pub, kid)
	keys := k.jks.Keys[:0]
	for _, j := range k.jks.Keys {
		if j.Kid != kid {
			keys = append(keys, j)
		}
	}
	k.jks.Keys = keys
}

// PublicJWKS returns a snapshot of the KeySet's JWKS for HTTP serving.
// The returned document never contains private key material.
func (k *KeySet) PublicJWKS() JWKS {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := JWKS{Keys: make([]JWK, len(k.jks.Keys))}
	copy(out.Keys, k.jks.Keys)
	return out
}

// ResolveKey implements KeyResolver. The lookup is purely in-memory, so the
// context is unused.
func (k *KeySet) ResolveKey(_ context.Context, kid string) (*rsa.PublicKey, error) {
	return k.Get(kid)
}

// IsReady returns true once the KeySet has at least one key loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub) > 0
}
