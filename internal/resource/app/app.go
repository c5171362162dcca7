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
	"github.com/wardenhq/warden/internal/resource/client"
	httpapi "github.com/wardenhq/warden/internal/resource/http"
	"github.com/wardenhq/warden/pkg/blacklist"
	"github.com/wardenhq/warden/pkg/jwkscache"
	"github.com/wardenhq/warden/pkg/jwtx"
	"github.com/wardenhq/warden/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application is the resource (relying) service: it never sees a signing
// key, validating tokens entirely from the auth service's published
// JWKS plus the blacklist and session gate endpoints.
type Application struct {
	cfg    Config
	logger *slog.Logger

	jwksClient *jwkscache.Client
	refresher  *jwkscache.Refresher
	validator  *jwtx.Validator

	server *http.Server
}

// New creates the resource application with all dependencies wired.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "warden-resource",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initValidation(); err != nil {
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// initValidation builds the consumer-side validation chain: cached JWKS
// resolution, revocation checks against the auth service, and the
// session gate.
func (app *Application) initValidation() error {
	var keyCache jwkscache.Cache
	switch app.cfg.CacheBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: app.cfg.RedisAddr})
		keyCache = jwkscache.NewRedis(rdb)
		app.logger.Info("using redis key cache", "addr", app.cfg.RedisAddr)
	default:
		keyCache = jwkscache.NewMemory()
	}

	jwksClient, err := jwkscache.NewClient(jwkscache.ClientConfig{
		URL:                app.cfg.JWKSURL,
		Cache:              keyCache,
		TTL:                app.cfg.KeyCacheTTL,
		MinRefreshInterval: app.cfg.MinRefreshInterval,
		Logger:             app.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to build jwks client: %w", err)
	}
	app.jwksClient = jwksClient
	app.refresher = jwkscache.NewRefresher(jwksClient, app.logger, app.cfg.RefreshInterval)

	verifier := jwtx.NewVerifier(jwksClient, app.cfg.Issuer, app.cfg.Audience)
	verifier.Leeway = app.cfg.Leeway

	gate := client.NewSessionGateClient(app.cfg.AuthBaseURL)
	gate.CacheTTL = app.cfg.GateCacheTTL

	app.validator = &jwtx.Validator{
		Verifier:    verifier,
		Revocations: blacklist.NewClient(app.cfg.AuthBaseURL, nil),
		Sessions:    gate,
	}
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.validator, app.jwksClient, BuildVersion, app.logger)
	router.ApplyRoutes()

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.refresher.Start()

	app.logger.Info("resource service starting", "port", app.cfg.Port, "version", BuildVersion)

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
	app.logger.Info("shutting down resource service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.refresher.Stop()

	app.logger.Info("resource service stopped")
	return nil
}
