package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestSession(state SessionState, now time.Time) *Session {
	return &Session{
		ID:        "sess-1",
		UserID:    "user-1",
		State:     state,
		StartedAt: now,
		ValidTill: now.Add(7 * 24 * time.Hour),
	}
}

func TestSessionActivate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("from created", func(t *testing.T) {
		t.Parallel()
		s := newTestSession(SessionCreated, now)
		require.NoError(t, s.Activate(now))
		require.Equal(t, SessionActive, s.State)
	})

	t.Run("from mfa pending", func(t *testing.T) {
		t.Parallel()
		s := newTestSession(SessionMFAPending, now)
		require.NoError(t, s.Activate(now))
		require.Equal(t, SessionActive, s.State)
	})

	t.Run("terminal states refuse", func(t *testing.T) {
		t.Parallel()
		for _, state := range []SessionState{SessionLoggedOut, SessionExpired} {
			s := newTestSession(state, now)
			require.ErrorIs(t, s.Activate(now), ErrSessionTerminal)
			require.Equal(t, state, s.State)
		}
	})
}

func TestSessionCompleteMFA(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("pending challenge activates", func(t *testing.T) {
		t.Parallel()
		s := newTestSession(SessionMFAPending, now)
		require.NoError(t, s.CompleteMFA(now))
		require.Equal(t, SessionActive, s.State)
		require.Equal(t, "totp", s.MFAType)
		require.NotNil(t, s.MFAAuthenticatedAt)
		require.Equal(t, now, *s.MFAAuthenticatedAt)
	})

	t.Run("only legal from pending", func(t *testing.T) {
		t.Parallel()
		for _, state := range []SessionState{SessionCreated, SessionActive, SessionLoggedOut, SessionExpired} {
			s := newTestSession(state, now)
			require.ErrorIs(t, s.CompleteMFA(now), ErrMFANotPending)
		}
	})
}

func TestSessionLogoutIdempotent(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestSession(SessionActive, now)

	s.Logout(now)
	require.Equal(t, SessionLoggedOut, s.State)
	require.NotNil(t, s.LoggedOutAt)
	first := *s.LoggedOutAt

	// A repeated logout keeps the original timestamp.
	s.Logout(now.Add(time.Hour))
	require.Equal(t, SessionLoggedOut, s.State)
	require.Equal(t, first, *s.LoggedOutAt)
}

func TestSessionIsActive(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	s := newTestSession(SessionActive, now)
	require.True(t, s.IsActive(now))
	require.False(t, s.IsActive(s.ValidTill), "validity bound is exclusive")

	s = newTestSession(SessionMFAPending, now)
	require.False(t, s.IsActive(now), "pending sessions fail the gate")
}

func TestSessionEffectiveState(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	s := newTestSession(SessionActive, now)
	require.Equal(t, SessionActive, s.EffectiveState(now))
	require.Equal(t, SessionExpired, s.EffectiveState(s.ValidTill))

	s = newTestSession(SessionMFAPending, now)
	require.Equal(t, SessionExpired, s.EffectiveState(s.ValidTill))

	// An explicit logout is reported as-is even past the validity bound.
	s = newTestSession(SessionLoggedOut, now)
	require.Equal(t, SessionLoggedOut, s.EffectiveState(s.ValidTill))
}
