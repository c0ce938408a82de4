// Package app provides the main application struct for centralized dependency management
// and lifecycle control of the citycost server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"citycost/config"
	"citycost/internal/cache"
	"citycost/internal/httpclient"
	"citycost/internal/lookup"
	"citycost/internal/providers/rapidapi"
	"citycost/internal/server"
)

// App represents the main application with all its dependencies.
// It provides centralized lifecycle management for all components.
type App struct {
	config  *config.Config
	cache   *cache.Result
	service *lookup.Service
	server  *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// Config holds the configuration options for creating an App.
type Config struct {
	// AppConfig is the loaded application configuration.
	AppConfig *config.Config

	// HTTPClient is used for upstream provider calls. Optional.
	HTTPClient *http.Client
}

// New creates a new App with all dependencies initialized.
// The caller must call Shutdown to release resources.
func New(ctx context.Context, cfg Config) (*App, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("app config is required")
	}
	appCfg := cfg.AppConfig

	app := &App{
		config: appCfg,
	}

	cacheResult, err := cache.New(ctx, appCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	app.cache = cacheResult

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.NewDefaultHTTPClient()
	}

	upstream := rapidapi.New(
		rapidapi.Config{
			Name:    rapidapi.CostOfLivingProvider,
			APIKey:  appCfg.Providers.CostOfLiving.APIKey,
			Host:    appCfg.Providers.CostOfLiving.Host,
			BaseURL: appCfg.Providers.CostOfLiving.BaseURL,
		},
		rapidapi.Config{
			Name:    rapidapi.ZillowProvider,
			APIKey:  appCfg.Providers.Zillow.APIKey,
			Host:    appCfg.Providers.Zillow.Host,
			BaseURL: appCfg.Providers.Zillow.BaseURL,
		},
		httpClient,
	)

	app.service = lookup.New(cacheResult.Store, upstream, lookup.Config{
		BestEffortPersist: appCfg.Cache.BestEffortPersist,
	})

	app.logStartupInfo()

	app.server = server.New(app.service, &server.Config{
		MasterKey:       appCfg.Server.MasterKey,
		MetricsEnabled:  appCfg.Metrics.Enabled,
		MetricsEndpoint: appCfg.Metrics.Endpoint,
	})

	return app, nil
}

// Service returns the lookup service.
func (a *App) Service() *lookup.Service {
	return a.service
}

// Handler returns the HTTP handler, for use with httptest.
func (a *App) Handler() http.Handler {
	return a.server
}

// Start starts the HTTP server on the given address.
// This is a blocking call that returns when the server stops.
func (a *App) Start(addr string) error {
	if a.server == nil {
		return fmt.Errorf("server is not initialized")
	}

	slog.Info("starting server", "address", addr)

	if err := a.server.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server, then closes the cache store.
// It is idempotent; calls after the first are no-ops.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	slog.Info("shutting down application...")

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			slog.Error("cache close error", "error", err)
			errs = append(errs, fmt.Errorf("cache close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	slog.Info("application shutdown complete")
	return nil
}

func (a *App) logStartupInfo() {
	cfg := a.config

	slog.Info("cache configured",
		"env", cfg.Env,
		"backend", cfg.Cache.Backend,
		"best_effort_persist", cfg.Cache.BestEffortPersist,
	)

	// Credentials are only needed on a cache miss, so missing keys are not fatal.
	if cfg.Providers.CostOfLiving.APIKey == "" {
		slog.Warn("RAPIDAPI_COST_OF_LIVING_KEY not set - cache misses will fail")
	}
	if cfg.Providers.Zillow.APIKey == "" {
		slog.Warn("RAPIDAPI_ZILLOW_KEY not set - rent estimates will fail")
	}

	if cfg.Server.MasterKey == "" {
		slog.Info("authentication disabled")
	} else {
		slog.Info("authentication enabled", "mode", "master_key")
	}

	if cfg.Metrics.Enabled {
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}
}
