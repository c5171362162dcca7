package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/internal/auth/domain"
	"github.com/wardenhq/warden/internal/auth/store"
	"github.com/wardenhq/warden/internal/auth/store/drivers/sqlite"
	"github.com/wardenhq/warden/pkg/cryptox"
	"github.com/wardenhq/warden/pkg/idx"
	"github.com/wardenhq/warden/pkg/jwtx"
)

func TestMain(m *testing.M) {
	// The pepper is process-global; pin it to a scratch file before any
	// password hashing happens.
	dir, err := os.MkdirTemp("", "warden-service-test-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))
	cryptox.GetPepper()

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type testEnv struct {
	store     store.Store
	auth      *AuthService
	sessions  *SessionService
	mfa       *MFAService
	validator *jwtx.Validator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "auth.db")
	st, err := sqlite.NewStore("file:" + dbPath + "?_busy_timeout=5000")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Issuer: "warden-test"})
	require.NoError(t, err)

	blacklistStore := store.NewBlacklistAdapter(st)
	sessions := &SessionService{Store: st, Blacklist: blacklistStore}
	tokens := &TokenService{KeyManager: km, Issuer: "warden-test", AccessTTL: time.Hour}

	return &testEnv{
		store:    st,
		auth:     &AuthService{Store: st, Sessions: sessions, Tokens: tokens},
		sessions: sessions,
		mfa:      &MFAService{Store: st, Issuer: "warden-test"},
		validator: &jwtx.Validator{
			Verifier:    km.Verifier,
			Revocations: blacklistStore,
			Sessions:    sessions,
		},
	}
}

func (e *testEnv) createUser(t *testing.T, username, password string) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		TenantID:     "tenant-1",
		Username:     username,
		DisplayName:  "Test User",
		PasswordHash: hash,
		Roles:        []string{"user"},
		Permissions:  []string{"orders:read"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, e.store.Users().CreateUser(context.Background(), user))
	return user
}

func TestLoginIssuesValidToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", "correct horse battery")
	ctx := context.Background()

	issued, err := env.auth.Login(ctx, LoginParams{Username: "alice", Password: "correct horse battery"})
	require.NoError(t, err)
	require.False(t, issued.MFARequired)
	require.NotEmpty(t, issued.AccessToken)
	require.Equal(t, "Bearer", issued.TokenType)

	claims, err := env.validator.Validate(ctx, issued.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.Subject)
	require.Equal(t, issued.SessionID, claims.SID)
	require.Equal(t, "tenant-1", claims.TID)
	require.Equal(t, []string{"user"}, claims.Roles)
	require.Equal(t, []string{jwtx.AMRPassword}, claims.AMR)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", "correct horse battery")
	ctx := context.Background()

	t.Run("wrong password", func(t *testing.T) {
		_, err := env.auth.Login(ctx, LoginParams{Username: "alice", Password: "wrong"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.auth.Login(ctx, LoginParams{Username: "nobody", Password: "whatever"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := env.auth.Login(ctx, LoginParams{})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLoginRejectsDisabledUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hash, err := cryptox.HashPassword("pw")
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, env.store.Users().CreateUser(ctx, domain.User{
		ID:           idx.New().String(),
		TenantID:     "tenant-1",
		Username:     "mallory",
		DisplayName:  "Disabled",
		PasswordHash: hash,
		Disabled:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))

	_, err = env.auth.Login(ctx, LoginParams{Username: "mallory", Password: "pw"})
	require.ErrorIs(t, err, ErrUserDisabled)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", "pw12345")
	ctx := context.Background()

	issued, err := env.auth.Login(ctx, LoginParams{Username: "alice", Password: "pw12345"})
	require.NoError(t, err)

	claims, err := env.validator.Validate(ctx, issued.AccessToken)
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, *claims))

	// The signature still verifies, but the jti is revoked.
	_, err = env.validator.Validate(ctx, issued.AccessToken)
	require.ErrorIs(t, err, jwtx.ErrRevoked)

	active, err := env.sessions.IsSessionActive(ctx, claims.SID)
	require.NoError(t, err)
	require.False(t, active)

	// Repeated logout is a no-op.
	require.NoError(t, env.auth.Logout(ctx, *claims))
}

func TestSessionGateRejectsTerminatedSession(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "grace", "pw12345")
	ctx := context.Background()

	issued, err := env.auth.Login(ctx, LoginParams{Username: "grace", Password: "pw12345"})
	require.NoError(t, err)

	// Terminate the session without touching the blacklist, as an admin
	// "log out everywhere" would.
	require.NoError(t, env.store.Sessions().LogoutAllUserSessions(ctx, user.ID, time.Now().UTC()))

	// The token still parses and verifies; only the session gate fails.
	_, err = env.validator.Validate(ctx, issued.AccessToken)
	require.ErrorIs(t, err, jwtx.ErrSessionInactive)
}

func TestMFALoginFlow(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "bob", "hunter22")
	ctx := context.Background()

	enrollment, err := env.mfa.EnrollTOTP(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.Secret)

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, env.mfa.VerifyTOTP(ctx, user.ID, code))

	// Password alone now yields a pending session and no token.
	issued, err := env.auth.Login(ctx, LoginParams{Username: "bob", Password: "hunter22"})
	require.NoError(t, err)
	require.True(t, issued.MFARequired)
	require.Empty(t, issued.AccessToken)
	require.NotEmpty(t, issued.SessionID)

	// The pending session fails the gate.
	active, err := env.sessions.IsSessionActive(ctx, issued.SessionID)
	require.NoError(t, err)
	require.False(t, active)

	t.Run("wrong code rejected", func(t *testing.T) {
		_, err := env.auth.CompleteMFA(ctx, issued.SessionID, "000000")
		require.ErrorIs(t, err, ErrInvalidTOTPCode)
	})

	code, err = totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	completed, err := env.auth.CompleteMFA(ctx, issued.SessionID, code)
	require.NoError(t, err)
	require.NotEmpty(t, completed.AccessToken)

	claims, err := env.validator.Validate(ctx, completed.AccessToken)
	require.NoError(t, err)
	require.Equal(t, []string{jwtx.AMRPassword, jwtx.AMROTP, jwtx.AMRMFA}, claims.AMR)
}

func TestCompleteMFAUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.CompleteMFA(context.Background(), "no-such-session", "123456")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEnrollTOTPRefusedWhenEnabled(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "carol", "pw")
	ctx := context.Background()

	enrollment, err := env.mfa.EnrollTOTP(ctx, user.ID)
	require.NoError(t, err)
	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, env.mfa.VerifyTOTP(ctx, user.ID, code))

	_, err = env.mfa.EnrollTOTP(ctx, user.ID)
	require.ErrorIs(t, err, ErrMFAAlreadyEnabled)

	// Disabling with a fresh code turns password-only login back on.
	code, err = totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, env.mfa.DisableTOTP(ctx, user.ID, code))

	issued, err := env.auth.Login(ctx, LoginParams{Username: "carol", Password: "pw"})
	require.NoError(t, err)
	require.False(t, issued.MFARequired)
	require.NotEmpty(t, issued.AccessToken)
}

func TestBootstrapCreatesFirstAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bootstrap := &BootstrapService{Store: env.store}

	done, err := bootstrap.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.False(t, done)

	userID, password, err := bootstrap.Bootstrap(ctx, "admin", "tenant-1")
	require.NoError(t, err)
	require.NotEmpty(t, userID)
	require.NotEmpty(t, password)

	done, err = bootstrap.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.True(t, done)

	issued, err := env.auth.Login(ctx, LoginParams{Username: "admin", Password: password})
	require.NoError(t, err)
	require.NotEmpty(t, issued.AccessToken)

	claims, err := env.validator.Validate(ctx, issued.AccessToken)
	require.NoError(t, err)
	require.Contains(t, claims.Roles, "admin")
}
