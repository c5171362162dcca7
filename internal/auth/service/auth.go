package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/wardenhq/warden/internal/auth/domain"
	"github.com/wardenhq/warden/internal/auth/store"
	"github.com/wardenhq/warden/pkg/cryptox"
	"github.com/wardenhq/warden/pkg/jwtx"
	"github.com/wardenhq/warden/pkg/slogx"
)

// LoginParams are the inputs to a password login attempt.
type LoginParams struct {
	Username  string
	Password  string
	UserAgent string
	IPAddress string
}

// AuthService drives the login flow: password check, optional TOTP
// challenge, session creation and token issuance.
type AuthService struct {
	Store    store.Store
	Sessions *SessionService
	Tokens   *TokenService
}

// Login verifies the user's password and starts a session. If the user
// has MFA enabled the returned token is empty and MFARequired is set;
// the caller must follow up with CompleteMFA before the session passes
// the validation gate.
func (s *AuthService) Login(ctx context.Context, p LoginParams) (domain.IssuedToken, error) {
	l := slogx.FromContext(ctx)

	username := strings.TrimSpace(p.Username)
	if username == "" || p.Password == "" {
		return domain.IssuedToken{}, ErrInvalidCredentials
	}

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn comparable time so missing users are not observable.
			_ = cryptox.VerifyPassword(p.Password, dummyHash)
			return domain.IssuedToken{}, ErrInvalidCredentials
		}
		return domain.IssuedToken{}, err
	}

	if err := cryptox.VerifyPassword(p.Password, user.PasswordHash); err != nil {
		l.Info("password verification failed", slog.String("user_id", user.ID))
		return domain.IssuedToken{}, ErrInvalidCredentials
	}

	if user.Disabled {
		l.Info("login rejected for disabled user", slog.String("user_id", user.ID))
		return domain.IssuedToken{}, ErrUserDisabled
	}

	session, err := s.Sessions.CreateSession(ctx, user, "password", SessionMeta{
		UserAgent: p.UserAgent,
		IPAddress: p.IPAddress,
	})
	if err != nil {
		return domain.IssuedToken{}, err
	}

	if session.State == domain.SessionMFAPending {
		l.Info("login pending mfa",
			slog.String("user_id", user.ID),
			slog.String("session_id", session.ID))
		return domain.IssuedToken{
			SessionID:   session.ID,
			MFARequired: true,
		}, nil
	}

	token, claims, err := s.Tokens.IssueForSession(ctx, user, session, []string{jwtx.AMRPassword})
	if err != nil {
		return domain.IssuedToken{}, err
	}

	l.Info("login succeeded",
		slog.String("user_id", user.ID),
		slog.String("session_id", session.ID))

	return domain.IssuedToken{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   time.Until(claims.ExpiresAt.Time),
		SessionID:   session.ID,
	}, nil
}

// CompleteMFA finishes a login that is pending a TOTP challenge and
// issues the access token.
func (s *AuthService) CompleteMFA(ctx context.Context, sessionID, code string) (domain.IssuedToken, error) {
	l := slogx.FromContext(ctx)

	session, err := s.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.IssuedToken{}, ErrInvalidCredentials
		}
		return domain.IssuedToken{}, err
	}

	user, err := s.Store.Users().GetUserByID(ctx, session.UserID)
	if err != nil {
		return domain.IssuedToken{}, err
	}

	if user.MFASecret == nil || *user.MFASecret == "" {
		return domain.IssuedToken{}, ErrMFANotEnabled
	}
	if !totp.Validate(code, *user.MFASecret) {
		l.Info("totp validation failed",
			slog.String("user_id", user.ID),
			slog.String("session_id", session.ID))
		return domain.IssuedToken{}, ErrInvalidTOTPCode
	}

	session, err = s.Sessions.CompleteMFA(ctx, session.ID)
	if err != nil {
		return domain.IssuedToken{}, err
	}

	token, claims, err := s.Tokens.IssueForSession(ctx, user, session,
		[]string{jwtx.AMRPassword, jwtx.AMROTP, jwtx.AMRMFA})
	if err != nil {
		return domain.IssuedToken{}, err
	}

	l.Info("mfa challenge completed",
		slog.String("user_id", user.ID),
		slog.String("session_id", session.ID))

	return domain.IssuedToken{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   time.Until(claims.ExpiresAt.Time),
		SessionID:   session.ID,
	}, nil
}

// Logout revokes the presented token and terminates its session.
func (s *AuthService) Logout(ctx context.Context, claims jwtx.Claims) error {
	return s.Sessions.Logout(ctx, claims)
}

// dummyHash is a valid argon2 hash of random material used to equalize
// timing between unknown-user and wrong-password failures.
const dummyHash = "$argon2id$v=19$m=65536,t=3,p=2$c29tZXNhbHRzb21lc2FsdA$RdescudvJCsgt3ub+b+dWRWJTmaaJObG"
