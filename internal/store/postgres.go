package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/AssetViewer/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx used by Postgres. It is satisfied by
// *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PoolOptions sizes the connection pool.
type PoolOptions struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// OpenPool parses databaseURL, applies opts and verifies the connection.
func OpenPool(ctx context.Context, databaseURL string, opts PoolOptions) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(databaseURL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS dump_snapshots (
	id          UUID PRIMARY KEY,
	created_at  TIMESTAMPTZ NOT NULL,
	source      TEXT NOT NULL DEFAULT '',
	asset_count INTEGER NOT NULL,
	data        JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS dump_snapshots_created_at_idx ON dump_snapshots (created_at DESC);
`

// Postgres stores snapshots in the dump_snapshots table, one JSONB document
// per export.
type Postgres struct {
	db DBTX
}

// NewPostgres wraps a pool, connection or transaction.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create dump_snapshots: %w", err)
	}
	return nil
}

// Save inserts snap. Saving the same snapshot id twice replaces the stored
// document.
func (p *Postgres) Save(ctx context.Context, snap *core.Snapshot) error {
	meta := snap.Meta()
	id, err := uuid.Parse(meta.ID)
	if err != nil {
		id = uuid.New()
		slog.Warn("snapshot id is not a uuid, generated a new one", "snapshot_id", meta.ID, "new_id", id)
	}
	createdAt := meta.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = p.db.Exec(ctx, `
		INSERT INTO dump_snapshots (id, created_at, source, asset_count, data)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET created_at = EXCLUDED.created_at,
		    source = EXCLUDED.source,
		    asset_count = EXCLUDED.asset_count,
		    data = EXCLUDED.data`,
		id.String(), createdAt, meta.Source, snap.Len(), data,
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", id, err)
	}

	slog.Info("snapshot saved to database", "snapshot_id", id, "assets", snap.Len(), "bytes", len(data))
	return nil
}

// Latest returns the most recently created snapshot. With an empty table the
// error wraps pgx.ErrNoRows.
func (p *Postgres) Latest(ctx context.Context) (*core.Snapshot, error) {
	var data []byte
	err := p.db.QueryRow(ctx, `
		SELECT data FROM dump_snapshots
		ORDER BY created_at DESC
		LIMIT 1`,
	).Scan(&data)
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}

	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: latest database snapshot: %v", ErrInvalidSnapshot, err)
	}
	return &snap, nil
}

// List returns the metadata of stored snapshots, newest first.
func (p *Postgres) List(ctx context.Context, limit int) ([]core.SnapshotMeta, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := p.db.Query(ctx, `
		SELECT id::text, created_at, source FROM dump_snapshots
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	metas, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.SnapshotMeta, error) {
		var meta core.SnapshotMeta
		err := row.Scan(&meta.ID, &meta.CreatedAt, &meta.Source)
		return meta, err
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return metas, nil
}

// PostgresSource serves the latest snapshot stored in PostgreSQL.
type PostgresSource struct {
	Store *Postgres
}

// Name implements core.SnapshotSource.
func (PostgresSource) Name() string { return "postgres:dump_snapshots" }

// Snapshot implements core.SnapshotSource.
func (s PostgresSource) Snapshot(ctx context.Context) (*core.Snapshot, error) {
	slog.Info("loading latest snapshot from database")

	snap, err := s.Store.Latest(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("database snapshot loaded",
		"snapshot_id", snap.Meta().ID,
		"created_at", snap.Meta().CreatedAt,
		"assets", snap.Len(),
	)
	return snap, nil
}
