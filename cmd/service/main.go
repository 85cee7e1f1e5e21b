// Package main is the entry point for the quote browser HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jsamuelsen/quote-browser/internal/adapters/clients"
	"github.com/jsamuelsen/quote-browser/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-browser/internal/adapters/http"
	"github.com/jsamuelsen/quote-browser/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-browser/internal/app"
	"github.com/jsamuelsen/quote-browser/internal/platform/config"
	"github.com/jsamuelsen/quote-browser/internal/platform/logging"
	"github.com/jsamuelsen/quote-browser/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-browser/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const healthCheckTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// Fail fast on bad configuration.
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	slog.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	// Noop when disabled.
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
		Insecure:     cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(ctx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := app.NewMetrics(registry)

	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Quote.BaseURL,
		ServiceName: cfg.Services.Quote.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		UserAgent:   cfg.App.Name + "/" + Version,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}

	quoteClient := acl.NewQuoteClient(acl.QuoteClientConfig{
		Client: httpClient,
		Logger: logger,
	})

	healthRegistry := ports.NewHealthRegistry(healthCheckTimeout)
	if err := healthRegistry.Register(quoteClient); err != nil {
		return fmt.Errorf("registering quote client health check: %w", err)
	}

	quoteService := app.NewQuoteService(app.QuoteServiceConfig{
		Fetcher:      quoteClient,
		PageSize:     cfg.Browser.PageSize,
		WindowRadius: cfg.Browser.WindowRadius,
		Logger:       logger,
	})

	screens := app.NewScreens(app.ScreensConfig{
		Browser: app.BrowserConfig{
			Fetcher:      quoteClient,
			PageSize:     cfg.Browser.PageSize,
			WindowRadius: cfg.Browser.WindowRadius,
			FetchTimeout: cfg.Browser.FetchTimeout,
		},
		MaxScreens: cfg.Browser.MaxScreens,
		Logger:     logger,
		Metrics:    metrics,
	})

	server := http.New(&cfg.Server, logger)
	http.SetupRouter(server.Engine(), http.RouterConfig{
		ServiceName:   cfg.App.Name,
		HealthHandler: handlers.NewHealthHandler(healthRegistry, handlers.NewBuildInfo(Version, Commit, BuildTime), registry),
		QuoteHandler:  handlers.NewQuoteHandler(quoteService),
		ScreenHandler: handlers.NewScreenHandler(screens, 0),
		Timeout:       cfg.Server.RequestTimeout,
	})

	serverErr := server.Start()

	return waitForShutdown(ctx, logger, server, screens, serverErr, cfg.Server.ShutdownTimeout)
}

// waitForShutdown blocks until a signal arrives or the server fails, then
// closes every screen and drains the HTTP server.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	screens *app.Screens,
	serverErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)

	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown",
		slog.Duration("timeout", shutdownTimeout),
		slog.Int("open_screens", screens.Len()),
	)

	// Closing screens first ends their event streams so the server can drain.
	err := errors.Join(
		screens.CloseAll(shutdownCtx),
		server.Shutdown(shutdownCtx),
	)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
