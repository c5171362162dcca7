package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/wardenhq/warden/internal/auth/http"
	"github.com/wardenhq/warden/internal/auth/service"
	"github.com/wardenhq/warden/internal/auth/store"
	"github.com/wardenhq/warden/internal/auth/store/drivers/sqlite"
	"github.com/wardenhq/warden/pkg/blacklist"
	"github.com/wardenhq/warden/pkg/cryptox"
	"github.com/wardenhq/warden/pkg/jwtx"
	"github.com/wardenhq/warden/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db         store.Store
	keyManager *jwtx.KeyManager
	validator  *jwtx.Validator

	authService         *service.AuthService
	sessionService      *service.SessionService
	tokenService        *service.TokenService
	mfaService          *service.MFAService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService
	keyRotationService  *service.KeyRotationService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "warden-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	// Key manager needs the database in persistent mode.
	keyManager, err := InitAuthKeys(context.Background(), cfg, app.db, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize signing keys: %w", err)
	}
	app.keyManager = keyManager

	app.initServices()
	app.initHTTP()

	if err := app.bootstrap(); err != nil {
		return nil, err
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() {
	// The database-backed blacklist is the default; a shared Redis lets
	// relying services check revocations without calling back here.
	var blacklistStore blacklist.Store = store.NewBlacklistAdapter(app.db)
	if app.cfg.BlacklistBackend == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
			DB:       app.cfg.RedisDB,
		})
		blacklistStore = blacklist.NewRedis(rdb)
		app.logger.Info("using redis blacklist backend", "addr", app.cfg.RedisAddr)
	}

	app.sessionService = &service.SessionService{
		Store:     app.db,
		Blacklist: blacklistStore,
		Validity:  app.cfg.SessionValidity,
	}

	app.tokenService = &service.TokenService{
		KeyManager: app.keyManager,
		Issuer:     app.cfg.Issuer,
		Audience:   app.cfg.Audience,
		AccessTTL:  app.cfg.AccessTokenTTL,
	}

	app.authService = &service.AuthService{
		Store:    app.db,
		Sessions: app.sessionService,
		Tokens:   app.tokenService,
	}

	app.mfaService = &service.MFAService{
		Store:  app.db,
		Issuer: app.cfg.Issuer,
	}

	app.bootstrapService = &service.BootstrapService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	if app.cfg.KeyStorageMode == "persistent" {
		app.keyRotationService = &service.KeyRotationService{
			Store:       app.db,
			KeyManager:  app.keyManager,
			Issuer:      app.cfg.Issuer,
			Audience:    app.cfg.Audience,
			RSABits:     app.cfg.RSABits,
			GracePeriod: app.cfg.KeyGracePeriod,
		}
		app.logger.Info("key rotation service enabled (persistent mode)")
	} else {
		app.keyRotationService = &service.KeyRotationService{
			KeyManager: app.keyManager,
			Issuer:     app.cfg.Issuer,
			Audience:   app.cfg.Audience,
			RSABits:    app.cfg.RSABits,
		}
		app.logger.Info("key rotation service enabled (ephemeral mode)")
	}

	// Full validation chain for inbound tokens: signature, revocation,
	// then session gate.
	app.validator = &jwtx.Validator{
		Verifier:    app.keyManager.Verifier,
		Revocations: blacklistStore,
		Sessions:    app.sessionService,
	}
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		app.validator,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.AuthService = app.authService
	router.SessionService = app.sessionService
	router.MFAService = app.mfaService
	router.KeyRotationService = app.keyRotationService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// bootstrap creates the first admin user on an empty database and logs
// the generated password once.
func (app *Application) bootstrap() error {
	ctx := context.Background()

	bootstrapped, err := app.bootstrapService.IsBootstrapped(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap check failed: %w", err)
	}
	if bootstrapped {
		return nil
	}

	userID, password, err := app.bootstrapService.Bootstrap(ctx, app.cfg.BootstrapAdmin, "")
	if err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}

	app.logger.Warn("bootstrap admin created - change this password immediately",
		"user_id", userID,
		"username", app.cfg.BootstrapAdmin,
		"password", password,
	)
	return nil
}
