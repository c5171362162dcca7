package jwtx

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AlgorithmRS256 is the only signing algorithm this system issues or
// accepts. Tokens bearing anything else are rejected before signature
// verification.
const AlgorithmRS256 = "RS256"

// MinRSABits is the smallest RSA modulus accepted for signing keys.
const MinRSABits = 2048

// Signer signs access tokens with an RSA private key under a fixed kid.
// The private key is read-only after construction, so a single Signer is
// safe for concurrent use.
type Signer struct {
	kid string
	key *rsa.PrivateKey
	pub *rsa.PublicKey
}

// NewSigner loads an RSA private key from PEM bytes. Handles both PKCS1
// and PKCS8 because otherwise we would be chasing a bug for longer than we
// would be willing to admit.
func NewSigner(kid string, pemKey []byte) (*Signer, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM for RSA key")
	}

	var key *rsa.PrivateKey
	var err error

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		priv, err2 := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err2 != nil {
			return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err2)
		}
		rk, ok := priv.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("jwtx: not RSA private key")
		}
		key = rk
	default:
		return nil, fmt.Errorf("jwtx: unsupported PEM type %q", block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse RSA key: %w", err)
	}

	if key.N.BitLen() < MinRSABits {
		return nil, fmt.Errorf("jwtx: RSA key is %d bits, need at least %d", key.N.BitLen(), MinRSABits)
	}

	return &Signer{kid: kid, key: key, pub: &key.PublicKey}, nil
}

// KID returns the key identifier stamped into every token header.
func (s *Signer) KID() string { return s.kid }

// Alg returns the signing algorithm name.
func (s *Signer) Alg() string { return AlgorithmRS256 }

// Sign turns claims into a signed JWT string with this signer's kid in the
// header.
func (s *Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

// SignAccess builds and signs an access token in one step. It refuses
// non-positive lifetimes instead of silently minting an already-expired
// token.
func (s *Signer) SignAccess(p AccessClaimsParams, ttl time.Duration, issuer string, audience []string, now time.Time) (string, Claims, error) {
	if ttl <= 0 {
		return "", Claims{}, ErrInvalidExpiry
	}
	claims := NewAccessClaims(p, ttl, issuer, audience, now)
	token, err := s.Sign(claims)
	if err != nil {
		return "", Claims{}, err
	}
	return token, claims, nil
}

// PublicJWK returns the JWK published so others can verify our tokens.
func (s *Signer) PublicJWK() JWK {
	return NewRSAJWK(s.kid, s.pub)
}

// Validate does a quick sanity check that we actually have key material.
func (s *Signer) Validate() error {
	if s.key == nil || s.pub == nil {
		return errors.New("jwtx: nil RSA key")
	}
	return nil
}
