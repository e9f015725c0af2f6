// Package main is the entry point for the Artline parameter engine server.
// It wires all dependencies together and starts the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Azzot88/artline-sub000/internal/canonical"
	"github.com/Azzot88/artline-sub000/internal/config"
	"github.com/Azzot88/artline-sub000/internal/engine"
	"github.com/Azzot88/artline-sub000/internal/observability"
	"github.com/Azzot88/artline-sub000/internal/store"
	"github.com/Azzot88/artline-sub000/internal/transport"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Step 1: Parse CLI flags.
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	// Step 2: Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	// Step 3: Initialize telemetry (logger, tracer, metrics).
	observability.Version = version
	observability.Commit = commit

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracingShutdown, err := observability.InitTracing(ctx, cfg.Observability.Tracing, "artline-engine", version)
	if err != nil {
		logger.Fatal("tracing initialization failed", zap.Error(err))
		return 1
	}

	metrics := observability.InitMetrics(prometheus.DefaultRegisterer)

	// Step 4: Build the canonical registry from the built-in table plus
	// overlay files.
	loader := canonical.NewLoader()
	extra, err := loader.LoadAll(cfg.Registry.Directories)
	if err != nil {
		logger.Fatal("canonical overlay loading failed", zap.Error(err))
		return 1
	}
	registry := canonical.NewRegistry(extra...)
	metrics.RecordRegistryReload("success", registry.Len())
	logger.Info("canonical registry loaded",
		zap.Int("fields", registry.Len()),
		zap.Int("overlays", len(extra)),
	)

	// Step 5: Initialize the model store.
	modelStore, storeCloser, err := buildModelStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal("model store initialization failed", zap.Error(err))
		return 1
	}

	// Step 6: Build the engine.
	eng := engine.NewEngine(registry, modelStore)

	// Step 7: Build the HTTP router.
	jwks := transport.NewJWKSClient(cfg.Identity.JWKSURL, cfg.Identity.JWKSCacheTTL)

	readinessChecks := observability.ReadinessChecks{
		RegistryLoaded: func() bool { return registry.Len() > 0 },
		ModelStore: observability.HealthCheckerFunc(func(ctx context.Context) error {
			return modelStore.Ping(ctx)
		}),
	}

	router := transport.NewRouter(transport.Dependencies{
		Config:         cfg,
		Engine:         eng,
		Authenticate:   transport.JWTAuthenticator(cfg.Identity, jwks),
		Metrics:        metrics,
		HealthHandler:  observability.HandleHealth(),
		ReadyHandler:   observability.HandleReady(readinessChecks),
		MetricsHandler: observability.Handler(),
	})

	// Wrap router with metrics and tracing middleware.
	handler := metrics.MetricsMiddleware(observability.TracingMiddleware(router))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Step 8: Start HTTP server.
	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("store", cfg.Store.Driver),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	// Graceful shutdown sequence.
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new connections and drain in-flight requests.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// Close the store.
	if storeCloser != nil {
		storeCloser()
	}

	// Flush telemetry.
	if err := tracingShutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return 0
}

// buildModelStore creates the model store based on config.
func buildModelStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (store.ModelStore, func(), error) {
	switch cfg.Driver {
	case "memory", "":
		logger.Info("using in-memory model store")
		return store.NewMemoryModelStore(), nil, nil
	case "postgres":
		dsn := os.Getenv(cfg.DSNEnv)
		if dsn == "" {
			return nil, nil, fmt.Errorf("model store: %s environment variable not set", cfg.DSNEnv)
		}

		poolCfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("model store: parse DSN: %w", err)
		}
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("model store: connect: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("model store: ping: %w", err)
		}

		return store.NewPgModelStore(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported model store driver: %q", cfg.Driver)
	}
}
