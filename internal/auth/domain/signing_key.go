package domain

import "time"

// SigningKey is a JWT signing key stored in the database with support
// for rotation. Private material is encrypted at rest; retired keys
// remain valid for verification until ExpiresAt so outstanding tokens
// keep validating through the grace period.
type SigningKey struct {
	ID                  string     // ULID
	Kid                 string     // Key identifier published in JWKS
	Algorithm           string     // RS256
	PrivateKeyEncrypted []byte     // AES-256-GCM encrypted private key PEM
	CreatedAt           time.Time
	RetiredAt           *time.Time // nil while the key still signs
	ExpiresAt           time.Time  // hard deletion after this
}

// IsActive returns true if the key is not retired and not expired.
func (k *SigningKey) IsActive(now time.Time) bool {
	return k.RetiredAt == nil && now.Before(k.ExpiresAt)
}

// IsExpired returns true if the key has passed its expiration time.
func (k *SigningKey) IsExpired(now time.Time) bool {
	return now.After(k.ExpiresAt)
}
