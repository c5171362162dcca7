package store

import (
	"context"
	"errors"
	"time"

	"github.com/wardenhq/warden/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns
// tidy and testable, and to stop anyone accidentally nesting
// transactions inside transactions.
type Store interface {
	Users() Users
	Sessions() Sessions
	SigningKeys() SigningKeys
	Blacklist() Blacklist

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction. If fn returns an
	// error the transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during password login.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// UpdateMFASecret sets the TOTP secret for a user.
	UpdateMFASecret(ctx context.Context, userID string, secret string) error

	// EnableMFA marks MFA as enabled for a user (sets mfa_enabled timestamp).
	EnableMFA(ctx context.Context, userID string) error

	// DisableMFA disables MFA for a user (clears mfa_enabled and mfa_secret).
	DisableMFA(ctx context.Context, userID string) error

	// DeleteUser cascades to sessions (per schema).
	DeleteUser(ctx context.Context, userID string) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type Sessions interface {
	// CreateSession inserts a freshly started session.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByID returns a session by id.
	GetSessionByID(ctx context.Context, id string) (domain.Session, error)

	// UpdateSession writes back state, mfa and logout fields.
	UpdateSession(ctx context.Context, s domain.Session) error

	// ListUserSessions returns sessions for a user, newest first.
	ListUserSessions(ctx context.Context, userID string) ([]domain.Session, error)

	// LogoutAllUserSessions terminates every live session for a user.
	LogoutAllUserSessions(ctx context.Context, userID string, now time.Time) error

	// DeleteExpiredSessions removes sessions past valid_till (housekeeping).
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

type SigningKeys interface {
	// CreateSigningKey stores a new signing key with encrypted private key material.
	CreateSigningKey(ctx context.Context, key domain.SigningKey) error

	// GetSigningKeyByKid fetches a signing key by its key identifier.
	GetSigningKeyByKid(ctx context.Context, kid string) (domain.SigningKey, error)

	// ListActiveSigningKeys returns all non-retired, non-expired signing keys
	// ordered by creation date (newest first).
	ListActiveSigningKeys(ctx context.Context) ([]domain.SigningKey, error)

	// ListAllSigningKeys returns all signing keys (including retired and
	// expired) ordered by creation date (newest first). Used for verification
	// during the grace period.
	ListAllSigningKeys(ctx context.Context) ([]domain.SigningKey, error)

	// RetireSigningKey marks a key as retired (sets retired_at timestamp).
	// Retired keys can still be used for verification but not for signing.
	RetireSigningKey(ctx context.Context, kid string) error

	// DeleteExpiredSigningKeys removes all keys that have passed their
	// expires_at timestamp.
	DeleteExpiredSigningKeys(ctx context.Context) error
}

type Blacklist interface {
	// Blacklist records a revoked jti until expiresAt. Re-blacklisting an
	// existing jti only ever extends the expiry.
	Blacklist(ctx context.Context, jti string, expiresAt time.Time) error

	// IsBlacklisted reports whether the jti is currently revoked.
	IsBlacklisted(ctx context.Context, jti string) (bool, error)

	// DeleteExpiredEntries removes entries past their expiry (housekeeping).
	DeleteExpiredEntries(ctx context.Context, before time.Time) (int64, error)
}
