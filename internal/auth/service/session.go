package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wardenhq/warden/internal/auth/domain"
	"github.com/wardenhq/warden/internal/auth/store"
	"github.com/wardenhq/warden/pkg/blacklist"
	"github.com/wardenhq/warden/pkg/idx"
	"github.com/wardenhq/warden/pkg/jwtx"
)

// DefaultSessionValidity bounds how long a session can stay active
// before it must re-authenticate.
const DefaultSessionValidity = 7 * 24 * time.Hour

// SessionMeta carries the device metadata captured at login.
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

// SessionService owns the session lifecycle and doubles as the session
// gate for token validation (jwtx.SessionGate).
type SessionService struct {
	Store     store.Store
	Blacklist blacklist.Store
	Validity  time.Duration
}

func (s *SessionService) validity() time.Duration {
	if s.Validity <= 0 {
		return DefaultSessionValidity
	}
	return s.Validity
}

// CreateSession starts a session for a freshly authenticated user. When
// the user has MFA enabled the session lands in MFAPending and no
// access token may be issued until CompleteMFA succeeds.
func (s *SessionService) CreateSession(ctx context.Context, user domain.User, method string, meta SessionMeta) (domain.Session, error) {
	now := time.Now().UTC()

	state := domain.SessionActive
	if user.MFARequired() {
		state = domain.SessionMFAPending
	}

	session := domain.Session{
		ID:                   idx.New().String(),
		UserID:               user.ID,
		TenantID:             user.TenantID,
		State:                state,
		AuthenticationMethod: method,
		UserAgent:            meta.UserAgent,
		IPAddress:            meta.IPAddress,
		StartedAt:            now,
		ValidTill:            now.Add(s.validity()),
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.Store.Sessions().CreateSession(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// GetSession returns the session by id.
func (s *SessionService) GetSession(ctx context.Context, id string) (domain.Session, error) {
	return s.Store.Sessions().GetSessionByID(ctx, id)
}

// CompleteMFA transitions an MFAPending session to Active after a
// successful TOTP challenge.
func (s *SessionService) CompleteMFA(ctx context.Context, sessionID string) (domain.Session, error) {
	session, err := s.Store.Sessions().GetSessionByID(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}

	now := time.Now().UTC()
	if session.EffectiveState(now) == domain.SessionExpired {
		return domain.Session{}, domain.ErrSessionTerminal
	}
	if err := session.CompleteMFA(now); err != nil {
		return domain.Session{}, err
	}
	if err := s.Store.Sessions().UpdateSession(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("update session: %w", err)
	}
	return session, nil
}

// Logout terminates the session and blacklists the presented token's
// jti for its remaining lifetime so it cannot be replayed. Logging out
// a session that is already terminal succeeds without side effects.
func (s *SessionService) Logout(ctx context.Context, claims jwtx.Claims) error {
	now := time.Now().UTC()

	session, err := s.Store.Sessions().GetSessionByID(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil // already gone, logout is idempotent
		}
		return err
	}

	if session.State != domain.SessionLoggedOut {
		session.Logout(now)
		if err := s.Store.Sessions().UpdateSession(ctx, session); err != nil {
			return fmt.Errorf("update session: %w", err)
		}
	}

	// Blacklist the token for however long it would otherwise stay valid.
	ttl := blacklist.DefaultTTL
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(now)
	}
	if ttl <= 0 {
		return nil // token already expired, nothing to revoke
	}
	if err := s.Blacklist.Blacklist(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

// IsSessionActive implements jwtx.SessionGate: only an Active session
// inside its validity window passes.
func (s *SessionService) IsSessionActive(ctx context.Context, sid string) (bool, error) {
	session, err := s.Store.Sessions().GetSessionByID(ctx, sid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return session.IsActive(time.Now().UTC()), nil
}
