package jwtx

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
)

// JWK is a public key in JSON Web Key format (RFC 7517). Only RSA signing
// keys are published; everything else is rejected at parse time.
type JWK struct {
	Kty string `json:"kty"`           // key type, always "RSA"
	Use string `json:"use,omitempty"` // always "sig"
	Alg string `json:"alg,omitempty"` // always "RS256"
	Kid string `json:"kid,omitempty"` // key ID

	N string `json:"n,omitempty"` // modulus (base64url, no padding)
	E string `json:"e,omitempty"` // exponent (base64url, no padding)
}

// JWKS is a JSON Web Key Set (RFC 7517).
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// NewRSAJWK builds a JWK for an RSA public key.
func NewRSAJWK(kid string, pub *rsa.PublicKey) JWK {
	return JWK{
		Kty: "RSA",
		Use: "sig",
		Alg: AlgorithmRS256,
		Kid: kid,
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// PublicKey converts the JWK back into a usable *rsa.PublicKey.
func (j JWK) PublicKey() (*rsa.PublicKey, error) {
	if j.Kty != "RSA" {
		return nil, fmt.Errorf("%w: unsupported kty %q", ErrAlgMismatch, j.Kty)
	}
	if j.Alg != "" && j.Alg != AlgorithmRS256 {
		return nil, fmt.Errorf("%w: %s", ErrAlgMismatch, j.Alg)
	}
	nb, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, errors.New("jwtx: invalid JWK modulus")
	}
	eb, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, errors.New("jwtx: invalid JWK exponent")
	}
	if len(nb) == 0 || len(eb) == 0 {
		return nil, errors.New("jwtx: empty JWK key material")
	}
	n := new(big.Int).SetBytes(nb)
	e := new(big.Int).SetBytes(eb).Int64()
	return &rsa.PublicKey{N: n, E: int(e)}, nil
}
