package service

import (
	"context"
	"errors"
	"time"

	"github.com/wardenhq/warden/internal/auth/domain"
	"github.com/wardenhq/warden/pkg/jwtx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidTOTPCode    = errors.New("invalid_totp_code")
	ErrMFANotEnabled      = errors.New("mfa_not_enabled")
	ErrMFAAlreadyEnabled  = errors.New("mfa_already_enabled")
	ErrUserDisabled       = errors.New("user_disabled")
)

// TokenService mints RS256 access tokens bound to a login session.
type TokenService struct {
	KeyManager *jwtx.KeyManager
	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
}

// IssueForSession signs an access token carrying the user's identity
// claims and the session id. The jti is fresh on every call so each
// token can be revoked independently.
func (s *TokenService) IssueForSession(ctx context.Context, user domain.User, session domain.Session, amr []string) (string, jwtx.Claims, error) {
	signer := s.KeyManager.ActiveSigner()
	if signer == nil {
		return "", jwtx.Claims{}, errors.New("no active signing key")
	}

	ttl := s.AccessTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}

	return signer.SignAccess(jwtx.AccessClaimsParams{
		Subject:     user.ID,
		SessionID:   session.ID,
		TenantID:    user.TenantID,
		Name:        user.DisplayName,
		Roles:       user.Roles,
		Permissions: user.Permissions,
		AMR:         amr,
	}, ttl, s.Issuer, s.Audience, time.Now().UTC())
}
