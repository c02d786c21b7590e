// Command export parses a MySQL dump once and stores the resulting snapshot
// as a JSON file, in PostgreSQL, or both, so the viewer can start without
// re-parsing the dump.
//
// Usage:
//
//	export -in apoyar_db.sql -out data.json
//	export -in apoyar_db.sql -db postgres://localhost/assets
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/AssetViewer/internal/config"
	"github.com/JonMunkholm/AssetViewer/internal/core"
	_ "github.com/JonMunkholm/AssetViewer/internal/core/tables" // Register all tables
	"github.com/JonMunkholm/AssetViewer/internal/logging"
	"github.com/JonMunkholm/AssetViewer/internal/store"
	"github.com/joho/godotenv"
)

type options struct {
	in         string
	out        string
	dbURL      string
	workers    int
	batchLines int
}

func main() {
	// A missing .env is fine; flags and the environment still apply
	_ = godotenv.Load()

	cfg, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	opts, err := parseFlags(os.Args[1:], cfg)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		slog.Error("export failed", "error", err, "hint", core.FormatUserError(err))
		os.Exit(1)
	}
}

// parseFlags reads the command line. Flag defaults come from cfg, so the
// environment and .env apply unless a flag overrides them.
func parseFlags(args []string, cfg *config.Config) (options, error) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)

	var opts options
	fs.StringVar(&opts.in, "in", cfg.Source.DumpFile, "SQL dump to parse (env DUMP_FILE)")
	fs.StringVar(&opts.out, "out", cfg.Source.SnapshotFile, "JSON snapshot to write (env SNAPSHOT_FILE)")
	fs.StringVar(&opts.dbURL, "db", "", "PostgreSQL URL to save the snapshot to; \"env\" uses DATABASE_URL")
	fs.IntVar(&opts.workers, "workers", cfg.Parse.Workers, "lines tokenized in parallel (env PARSE_WORKERS)")
	fs.IntVar(&opts.batchLines, "batch", cfg.Parse.BatchLines, "statement lines per parse batch (env PARSE_BATCH_LINES)")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if opts.workers <= 0 || opts.batchLines <= 0 {
		return options{}, errors.New("-workers and -batch must be positive")
	}
	if opts.dbURL == "env" {
		opts.dbURL = cfg.Database.URL
		if opts.dbURL == "" {
			return options{}, errors.New("-db env: DATABASE_URL is not set")
		}
	}
	if opts.in == "" {
		return options{}, errors.New("-in is required (or set DUMP_FILE)")
	}
	if opts.out == "" && opts.dbURL == "" {
		return options{}, errors.New("nothing to do: set -out, -db or both")
	}
	return opts, nil
}

func run(ctx context.Context, opts options) error {
	logger := logging.WithFields(ctx, "dump", opts.in)
	logger.Info("export started", "out", opts.out, "db", opts.dbURL != "")

	snap, stats, err := core.LoadFile(ctx, opts.in, core.LoadOptions{
		Workers:    opts.workers,
		BatchLines: opts.batchLines,
	})
	if err != nil {
		return err
	}

	logger = logger.With("snapshot_id", snap.Meta().ID)
	logger.Info("dump parsed",
		"assets", snap.Len(),
		"lines", stats.Lines,
		"statements", stats.Statements,
		"tuples", stats.Tuples,
		"skipped", stats.Skipped,
		"unterminated", stats.Unterminated,
		"duration_ms", stats.Duration.Milliseconds(),
	)
	for key, n := range stats.TuplesPerTable {
		label := key
		if def, ok := core.Get(key); ok {
			label = def.Label
		}
		logger.Debug("table parsed", "table", label, "tuples", n)
	}

	if opts.out != "" {
		if err := store.WriteFile(opts.out, snap); err != nil {
			return fmt.Errorf("write %s: %w", opts.out, err)
		}
		logger.Info("snapshot written", "path", opts.out)
	}

	if opts.dbURL != "" {
		pool, err := store.OpenPool(ctx, opts.dbURL, store.PoolOptions{MaxConns: 2})
		if err != nil {
			return err
		}
		defer pool.Close()

		pg := store.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := pg.Save(ctx, snap); err != nil {
			return err
		}
	}

	counts := snap.Counts()
	logger.Info("export complete",
		"assets", counts.Assets,
		"categories", counts.Categories,
		"brands", counts.Brands,
		"models", counts.Models,
		"custom_field_assets", counts.FieldValues,
		"customers", counts.Customers,
		"engineers", counts.Engineers,
	)
	return nil
}
