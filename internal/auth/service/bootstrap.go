package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/wardenhq/warden/internal/auth/domain"
	"github.com/wardenhq/warden/internal/auth/store"
	"github.com/wardenhq/warden/pkg/cryptox"
	"github.com/wardenhq/warden/pkg/idx"
	"github.com/wardenhq/warden/pkg/slogx"
)

var ErrBootstrapAlready = errors.New("system already bootstrapped")

// BootstrapService creates the first admin user on an empty database so
// a fresh deployment has something to log in with.
type BootstrapService struct {
	Store store.Store
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

// Bootstrap creates the admin user and returns the generated password.
// The password is only ever returned here; it is stored hashed.
func (s *BootstrapService) Bootstrap(ctx context.Context, username, tenantID string) (userID, password string, err error) {
	l := slogx.FromContext(ctx)

	if bootstrapped, _ := s.IsBootstrapped(ctx); bootstrapped {
		l.Warn("attempted bootstrap on already-bootstrapped system")
		return "", "", ErrBootstrapAlready
	}

	password, err = cryptox.GeneratePassword()
	if err != nil {
		return "", "", err
	}
	passHash, err := cryptox.HashPassword(password)
	if err != nil {
		l.Error("failed to hash admin password", slog.Any("error", err))
		return "", "", err
	}

	now := time.Now().UTC()
	userID = idx.New().String()
	err = s.Store.Users().CreateUser(ctx, domain.User{
		ID:           userID,
		TenantID:     tenantID,
		Username:     username,
		DisplayName:  username,
		PasswordHash: passHash,
		Roles:        []string{"admin"},
		Permissions:  []string{"users:write", "keys:rotate", "tokens:revoke"},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return "", "", err
	}

	l.Info("bootstrap admin user created",
		slog.String("user_id", userID),
		slog.String("username", username))
	return userID, password, nil
}
