package domain

import (
	"errors"
	"time"
)

// SessionState tracks where a session sits in its lifecycle.
type SessionState string

const (
	// SessionCreated is the initial state before any gating checks run.
	SessionCreated SessionState = "created"
	// SessionMFAPending means the password was accepted but a TOTP code
	// is still required.
	SessionMFAPending SessionState = "mfa_pending"
	// SessionActive sessions pass the token validation session gate.
	SessionActive SessionState = "active"
	// SessionLoggedOut is terminal; set by an explicit logout.
	SessionLoggedOut SessionState = "logged_out"
	// SessionExpired is terminal; derived when ValidTill has passed.
	SessionExpired SessionState = "expired"
)

var (
	ErrSessionTerminal = errors.New("session is in a terminal state")
	ErrMFANotPending   = errors.New("session is not awaiting mfa")
)

// Session records one authenticated login and its device metadata.
// Access tokens carry the session ID as the sid claim; validation treats
// anything but an Active, unexpired session as invalid.
type Session struct {
	ID                   string
	UserID               string
	TenantID             string
	State                SessionState
	AuthenticationMethod string // "password", "mfa", ...
	MFAType              string // "totp" when MFA was involved
	MFAAuthenticatedAt   *time.Time
	UserAgent            string
	IPAddress            string
	StartedAt            time.Time
	ValidTill            time.Time
	LoggedOutAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsActive reports whether the session should pass the validation gate.
func (s *Session) IsActive(now time.Time) bool {
	return s.State == SessionActive && now.Before(s.ValidTill)
}

// EffectiveState collapses Active-but-expired into Expired without
// touching the stored row.
func (s *Session) EffectiveState(now time.Time) SessionState {
	if (s.State == SessionActive || s.State == SessionMFAPending) && !now.Before(s.ValidTill) {
		return SessionExpired
	}
	return s.State
}

// Activate moves the session into the Active state. It is legal from
// Created (no MFA required) and MFAPending (challenge completed).
func (s *Session) Activate(now time.Time) error {
	switch s.State {
	case SessionCreated, SessionMFAPending:
		s.State = SessionActive
		s.UpdatedAt = now
		return nil
	default:
		return ErrSessionTerminal
	}
}

// CompleteMFA records a successful TOTP challenge and activates the
// session.
func (s *Session) CompleteMFA(now time.Time) error {
	if s.State != SessionMFAPending {
		return ErrMFANotPending
	}
	t := now
	s.MFAAuthenticatedAt = &t
	s.MFAType = "totp"
	s.State = SessionActive
	s.UpdatedAt = now
	return nil
}

// Logout marks the session logged out. Logging out an already
// terminated session is a no-op so repeated logouts stay idempotent.
func (s *Session) Logout(now time.Time) {
	if s.State == SessionLoggedOut || s.State == SessionExpired {
		return
	}
	t := now
	s.State = SessionLoggedOut
	s.LoggedOutAt = &t
	s.UpdatedAt = now
}
