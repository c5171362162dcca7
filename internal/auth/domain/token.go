package domain

import "time"

// IssuedToken is what a successful login (or MFA completion) returns:
// the signed access token plus enough metadata for the caller to use it.
type IssuedToken struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"` // always "Bearer"
	ExpiresIn   time.Duration `json:"expires_in"` // seconds until expiry
	SessionID   string        `json:"session_id"`
	MFARequired bool          `json:"mfa_required,omitempty"`
}

// BlacklistEntry is a revoked token id with the moment it may be
// forgotten.
type BlacklistEntry struct {
	JTI       string
	ExpiresAt time.Time
	CreatedAt time.Time
}
