package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/arbeit/internal/portal/gateway"
	httpapi "github.com/aussiebroadwan/arbeit/internal/portal/http"
	"github.com/aussiebroadwan/arbeit/internal/portal/identity"
	"github.com/aussiebroadwan/arbeit/internal/portal/service"
	"github.com/aussiebroadwan/arbeit/internal/portal/store"
	"github.com/aussiebroadwan/arbeit/internal/portal/store/drivers/sqlite"
	"github.com/aussiebroadwan/arbeit/pkg/arbeitsdk"
	"github.com/aussiebroadwan/arbeit/pkg/jwtx"
	"github.com/aussiebroadwan/arbeit/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the portal service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	keys     *Keys
	gateway  *gateway.Gateway
	upstream *url.URL

	// Services
	workspaces          *service.Workspaces
	registrationService *service.RegistrationService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "portal",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	upstream, err := url.Parse(cfg.APIBaseURL)
	if err != nil || upstream.Scheme == "" || upstream.Host == "" {
		return nil, fmt.Errorf("invalid PORTAL_API_BASE_URL %q", cfg.APIBaseURL)
	}
	app.upstream = upstream

	keys, err := InitKeys(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keys: %w", err)
	}
	app.keys = keys

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("portal starting", "port", app.cfg.Port, "version", BuildVersion, "upstream", app.upstream.String())

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down portal...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server. Open event streams end when their
	// workspaces close below.
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	// Close every identity context; in-flight restores finish first
	app.workspaces.Close()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("portal stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host, sqlite.WithSealer(app.keys.Sealer))
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

// initServices initializes all business logic services
func (app *Application) initServices() error {
	app.gateway = gateway.New(arbeitsdk.NewSDKClient(app.cfg.APIBaseURL))

	app.workspaces = service.NewWorkspaces(service.WorkspacesConfig{
		Verifier: app.gateway,
		Records:  app.db.Sessions(),
		Options: identity.Options{
			ProbeOnRestore:    app.cfg.ProbeOnRestore,
			UpstreamTimeout:   app.cfg.UpstreamTimeout,
			CapturedSecretTTL: app.cfg.CapturedSecretTTL,
			Logger:            app.logger,
		},
		IdleTTL: app.cfg.ClientIdleTTL,
		Logger:  app.logger,
	})

	reg, err := service.NewRegistrationService(app.gateway, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize registration: %w", err)
	}
	app.registrationService = reg

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.workspaces,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.RecordRetention,
	)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	cookies := &httpapi.ClientCookies{
		Signer: jwtx.NewSigner(app.keys.CookieKeys),
		Verifier: jwtx.NewVerifier(app.keys.CookieKeys, jwtx.VerifyOptions{
			Issuer: app.cfg.CookieIssuer,
			Leeway: 30 * time.Second,
		}),
		Issuer: app.cfg.CookieIssuer,
		TTL:    jwtx.DefaultClientTokenTTL,
		Secure: app.cfg.CookieSecure,
	}

	router := httpapi.NewRouter(httpapi.RouterConfig{
		BuildVersion: BuildVersion,
		RestoreWait:  app.cfg.RestoreWait,
		Upstream:     app.upstream,
	}, cookies, app.db, app.gateway, app.logger)

	// Wire services to router
	router.Workspaces = app.workspaces
	router.RegistrationService = app.registrationService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server. No write timeout: session event streams are
	// long-lived.
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
