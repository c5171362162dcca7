package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wardenhq/warden/internal/auth/store"
	"github.com/wardenhq/warden/pkg/jwtx"
)

// KeyRotationService rotates and retires RS256 signing keys at runtime.
//
// In ephemeral mode (Store == nil) keys live only in the KeyManager and
// retired keys keep verifying until restart. In persistent mode keys
// are encrypted into the database and retired keys verify through a
// grace period.
type KeyRotationService struct {
	Store       store.Store      // nil for ephemeral mode
	KeyManager  *jwtx.KeyManager // required for both modes
	Issuer      string
	Audience    []string
	RSABits     int
	GracePeriod time.Duration
}

// RotationResult reports what a rotation produced.
type RotationResult struct {
	NewKid     string `json:"new_kid"`
	ActiveKeys int    `json:"active_keys"`
}

// Rotate generates a new signing key and makes it the active signer.
// Old keys stay available for verification so outstanding tokens keep
// validating.
func (s *KeyRotationService) Rotate(ctx context.Context) (RotationResult, error) {
	if s.KeyManager == nil {
		return RotationResult{}, errors.New("key manager is required")
	}

	var (
		signer *jwtx.Signer
		err    error
	)
	if s.Store == nil {
		signer, err = s.KeyManager.Rotate(s.RSABits)
	} else {
		signer, err = s.KeyManager.RotatePersistent(ctx, jwtx.PersistentKeyManagerOptions{
			Store:       store.NewKeyStoreAdapter(s.Store),
			Issuer:      s.Issuer,
			Audience:    s.Audience,
			RSABits:     s.RSABits,
			GracePeriod: s.GracePeriod,
		})
	}
	if err != nil {
		return RotationResult{}, fmt.Errorf("rotate signing key: %w", err)
	}

	return RotationResult{
		NewKid:     signer.KID(),
		ActiveKeys: len(s.KeyManager.Signers()),
	}, nil
}

// Retire removes a key from active signing. The key keeps verifying
// tokens until its grace period ends (persistent) or the service
// restarts (ephemeral).
func (s *KeyRotationService) Retire(ctx context.Context, kid string) error {
	if err := s.KeyManager.RetireKID(kid); err != nil {
		return err
	}
	if s.Store != nil {
		if err := s.Store.SigningKeys().RetireSigningKey(ctx, kid); err != nil {
			return fmt.Errorf("retire signing key: %w", err)
		}
	}
	return nil
}
