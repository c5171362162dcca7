package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wardenhq/warden/internal/auth/store"
	"github.com/wardenhq/warden/pkg/cryptox"
	"github.com/wardenhq/warden/pkg/jwtx"
)

// InitAuthKeys creates a KeyManager for the configured storage mode.
//
// Storage modes:
//   - "ephemeral": keys are generated on startup and held only in memory.
//     Every outstanding token becomes invalid when the service restarts.
//   - "persistent": keys are AES-GCM encrypted into the database. Tokens
//     survive restarts and rotation keeps a grace period for retired keys.
func InitAuthKeys(ctx context.Context, cfg Config, db store.Store, logger *slog.Logger) (*jwtx.KeyManager, error) {
	if cfg.MasterKeyPath != "" {
		cryptox.SetMasterKeyPath(cfg.MasterKeyPath)
		logger.Info("master key path configured", "path", cfg.MasterKeyPath)
	}

	switch cfg.KeyStorageMode {
	case "persistent":
		keyManager, err := jwtx.NewPersistentKeyManager(ctx, jwtx.PersistentKeyManagerOptions{
			Store:       store.NewKeyStoreAdapter(db),
			Issuer:      cfg.Issuer,
			Audience:    cfg.Audience,
			RSABits:     cfg.RSABits,
			GracePeriod: cfg.KeyGracePeriod,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize persistent key manager: %w", err)
		}

		logger.Info("persistent signing keys loaded",
			"num_keys", len(keyManager.Signers()),
			"issuer", cfg.Issuer,
			"grace_period", cfg.KeyGracePeriod,
		)
		return keyManager, nil

	case "ephemeral":
		fallthrough
	default:
		keyManager, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
			Issuer:   cfg.Issuer,
			Audience: cfg.Audience,
			RSABits:  cfg.RSABits,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ephemeral key manager: %w", err)
		}

		logger.Info("generated ephemeral signing key", "issuer", cfg.Issuer)
		logger.Warn("all previously issued tokens are now invalid (ephemeral key mode)")
		return keyManager, nil
	}
}
