package jwtx

import "errors"

// Every validation failure maps to exactly one of these so callers can tell
// "retry after a key refresh" apart from "reject outright" apart from
// "client should refresh its token". Handlers collapse them into a generic
// 401 for external callers; logs keep the specific kind.
var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrMissingKID  = errors.New("jwtx: missing kid header")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")

	ErrRevoked         = errors.New("jwtx: token revoked")
	ErrSessionInactive = errors.New("jwtx: session inactive")

	// ErrInvalidExpiry is returned by the issuer when asked to mint a token
	// with a non-positive lifetime.
	ErrInvalidExpiry = errors.New("jwtx: token lifetime must be positive")
)
