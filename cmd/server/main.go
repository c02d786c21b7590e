package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/AssetViewer/internal/config"
	"github.com/JonMunkholm/AssetViewer/internal/core"
	_ "github.com/JonMunkholm/AssetViewer/internal/core/tables" // Register all tables
	"github.com/JonMunkholm/AssetViewer/internal/logging"
	"github.com/JonMunkholm/AssetViewer/internal/store"
	"github.com/JonMunkholm/AssetViewer/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"source", cfg.Source.Kind,
		"preload", cfg.Source.Preload,
		"parse_workers", cfg.Parse.Workers,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("configuration", "config", cfg.String())

	slog.Info("tables registered", "count", core.TableCount())
	for _, def := range core.All() {
		slog.Debug("table", "key", def.Key, "label", def.Label, "dump_table", def.Table, "min_fields", def.MinFields)
	}

	ctx := context.Background()
	source, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		slog.Error("failed to open snapshot source", "error", err)
		os.Exit(1)
	}
	defer closeSource()

	service := core.NewService(source)

	// Without preload the first request parses the dump
	if cfg.Source.Preload {
		if _, err := service.Snapshot(ctx); err != nil {
			slog.Error("failed to preload snapshot", "error", err, "hint", core.FormatUserError(err))
			closeSource()
			os.Exit(1)
		}
	} else {
		slog.Info("snapshot will load on first request", "source", source.Name())
	}

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		closeSource()
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openSource resolves the configured source kind. The returned close func
// releases the database pool when one was opened.
func openSource(ctx context.Context, cfg *config.Config) (core.SnapshotSource, func(), error) {
	kind, err := cfg.ResolveSource()
	if err != nil {
		return nil, nil, err
	}
	noop := func() {}

	switch kind {
	case config.SourceDump:
		return core.DumpSource{
			Path: cfg.Source.DumpFile,
			Options: core.LoadOptions{
				Workers:    cfg.Parse.Workers,
				BatchLines: cfg.Parse.BatchLines,
			},
		}, noop, nil

	case config.SourceFile:
		return store.FileSource{Path: cfg.Source.SnapshotFile}, noop, nil

	case config.SourcePostgres:
		pool, err := store.OpenPool(ctx, cfg.Database.URL, store.PoolOptions{
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			return nil, nil, err
		}
		pg := store.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store.PostgresSource{Store: pg}, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown snapshot source %q", kind)
	}
}
