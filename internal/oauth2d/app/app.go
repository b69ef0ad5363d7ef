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

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/authn"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/config"
	httpapi "github.com/aussiebroadwan/oauth2d/internal/oauth2d/http"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/policy"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/registry"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/service"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/store"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/store/drivers/memory"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/store/drivers/redis"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/store/drivers/sqlite"
	"github.com/aussiebroadwan/oauth2d/pkg/cryptox"
	"github.com/aussiebroadwan/oauth2d/pkg/jwtx"
	"github.com/aussiebroadwan/oauth2d/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application holds the server and everything it depends on.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store      store.Store
	keyManager *jwtx.KeyManager
	clients    *registry.Registry
	users      authn.Provider
	policy     *policy.Policy

	tokenService       *service.TokenService
	grantAuthorizer    *service.GrantAuthorizer
	authorizeService   *service.AuthorizationService
	keyRotationService *service.KeyRotationService

	server *http.Server
	router *httpapi.Router
}

// New loads configuration and key material and wires the HTTP server.
// Any misconfiguration fails here rather than on the first request.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "oauth2d",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initRegistry(); err != nil {
		return nil, err
	}
	app.cfg.KeyGracePeriod = keyGracePeriod(app.cfg, app.clients.MaxRefreshTokenTTL())

	keyManager, err := InitAuthKeys(app.cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize signing keys: %w", err)
	}
	app.keyManager = keyManager

	if err := app.initStore(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// keyGracePeriod is the configured grace period, or the longest refresh
// token lifetime when none is set. A shorter window would strand refresh
// tokens signed by a retired key.
func keyGracePeriod(cfg Config, clientMaxRefresh time.Duration) time.Duration {
	if cfg.KeyGracePeriod > 0 {
		return cfg.KeyGracePeriod
	}
	return max(cfg.RefreshTokenTTL, clientMaxRefresh)
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("oauth2d starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down oauth2d...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.store.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("oauth2d stopped")
	return nil
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// initRegistry loads the YAML file and builds the client registry, the
// static user provider and the endpoint policy from it.
func (app *Application) initRegistry() error {
	file, err := config.Load(app.cfg.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}
	hasher, err := cryptox.NewHasher(pepper)
	if err != nil {
		return err
	}

	if app.clients, err = registry.FromConfig(hasher, file.Clients); err != nil {
		return fmt.Errorf("invalid client registration: %w", err)
	}

	users, err := authn.NewStatic(hasher, file.Users)
	if err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}
	app.users = authn.WithTimeout(users, app.cfg.AuthTimeout)

	if app.policy, err = policy.New(file.Endpoints); err != nil {
		return fmt.Errorf("invalid endpoint policy: %w", err)
	}

	app.logger.Info("configuration loaded",
		"file", app.cfg.ConfigFile,
		"clients", app.clients.Len(),
		"users", users.Len(),
	)
	return nil
}

// initStore opens the configured code/refresh token store.
func (app *Application) initStore() error {
	var (
		st  store.Store
		err error
	)

	switch app.cfg.StoreDriver {
	case "memory":
		st = memory.New()
	case "sqlite":
		st, err = sqlite.NewStore("file:" + app.cfg.DatabaseFile)
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		st, err = redis.New(ctx, redis.Options{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
			DB:       app.cfg.RedisDB,
			Prefix:   app.cfg.RedisPrefix,
		})
	default:
		return fmt.Errorf("unknown store driver %q (supported: memory, sqlite, redis)", app.cfg.StoreDriver)
	}
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", app.cfg.StoreDriver, err)
	}

	if err := st.ApplyMigrations(); err != nil {
		_ = st.Close()
		return fmt.Errorf("failed to apply store migrations: %w", err)
	}

	app.store = store.WithTimeout(st, app.cfg.StoreTimeout)
	app.logger.Info("store ready", "driver", app.cfg.StoreDriver)
	return nil
}

func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Keys:       app.keyManager,
		Store:      app.store,
		AccessTTL:  app.cfg.AccessTokenTTL,
		RefreshTTL: app.cfg.RefreshTokenTTL,
	}

	app.grantAuthorizer = &service.GrantAuthorizer{
		Clients: app.clients,
		Users:   app.users,
		Store:   app.store,
		Tokens:  app.tokenService,
	}

	app.authorizeService = &service.AuthorizationService{
		Clients: app.clients,
		Users:   app.users,
		Store:   app.store,
		Tokens:  app.tokenService,
		CodeTTL: app.cfg.CodeTTL,
	}

	app.keyRotationService = &service.KeyRotationService{Keys: app.keyManager}
}

func (app *Application) initHTTP() {
	app.router = httpapi.NewRouter(app.keyManager, app.store, BuildVersion, app.logger)
	app.router.RateLimits = app.cfg.RateLimits
	app.router.Clients = app.clients
	app.router.Policy = app.policy
	app.router.Tokens = app.tokenService
	app.router.Grants = app.grantAuthorizer
	app.router.Authorize = app.authorizeService
	app.router.KeyRotation = app.keyRotationService
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
