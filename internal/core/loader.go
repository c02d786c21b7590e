package core

// loader.go builds a Snapshot from a dump stream.
//
// Lines are classified by their INSERT prefix, then tokenized in parallel in
// batches of LoadOptions.BatchLines. Each batch is applied to the Builder in
// source order once all of its lines are parsed, so a later row for the same
// key always overwrites an earlier one regardless of which worker parsed it.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/JonMunkholm/AssetViewer/internal/dump"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// LoadOptions tunes dump parsing.
type LoadOptions struct {
	Workers    int // Lines tokenized concurrently (default: 4)
	BatchLines int // Statement lines buffered per batch (default: 32)
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.BatchLines <= 0 {
		o.BatchLines = 32
	}
	return o
}

// LoadStats summarises one load.
type LoadStats struct {
	Lines          int           // Lines read
	Statements     int           // Lines that matched a registered table
	Tuples         int           // Tuples applied to the snapshot
	Skipped        int           // Tuples narrower than the table's MinFields
	Unterminated   int           // Statements that ended inside a tuple
	BytesRead      int64         // Raw bytes consumed
	Duration       time.Duration // Wall time
	TuplesPerTable map[string]int
}

type pendingLine struct {
	def    TableDefinition
	line   string
	number int
	stmt   dump.Statement
}

// Load reads a dump from r and builds a snapshot. size is the input length if
// known and only affects progress logging. Malformed statements are dropped and
// counted; only read errors and cancellation fail the load.
func Load(ctx context.Context, r io.Reader, size int64, opts LoadOptions) (*Snapshot, LoadStats, error) {
	opts = opts.withDefaults()
	start := time.Now()

	lr := dump.NewLineReader(r, size)
	b := NewBuilder()
	stats := LoadStats{TuplesPerTable: make(map[string]int)}
	batch := make([]pendingLine, 0, opts.BatchLines)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := parseBatch(ctx, batch, opts.Workers); err != nil {
			return err
		}
		for _, p := range batch {
			applyStatement(b, p, &stats)
		}
		slog.Debug("dump batch applied",
			"statements", len(batch),
			"line", lr.Line(),
			"progress_pct", lr.Progress(),
		)
		batch = batch[:0]
		return nil
	}

	for {
		line, err := lr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read dump line %d: %w", lr.Line()+1, err)
		}
		stats.Lines++

		def, ok := Lookup(line)
		if !ok {
			continue
		}
		stats.Statements++
		slog.Debug("parsing table", "table", def.Table, "line", lr.Line())

		batch = append(batch, pendingLine{def: def, line: line, number: lr.Line()})
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return nil, stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, stats, err
	}

	stats.BytesRead = lr.BytesRead()
	stats.Duration = time.Since(start)

	snap := b.Build(SnapshotMeta{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	})
	return snap, stats, nil
}

// parseBatch tokenizes every line of the batch, at most workers at a time.
func parseBatch(ctx context.Context, batch []pendingLine, workers int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range batch {
		p := &batch[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p.stmt = dump.ScanValues(p.line)
			p.line = ""
			return nil
		})
	}
	return g.Wait()
}

func applyStatement(b *Builder, p pendingLine, stats *LoadStats) {
	if p.stmt.Unterminated {
		stats.Unterminated++
		slog.Warn("dropped unterminated tuple",
			"table", p.def.Table,
			"line", p.number,
			"complete_tuples", len(p.stmt.Tuples),
		)
	}
	for _, t := range p.stmt.Tuples {
		if len(t) < p.def.MinFields {
			stats.Skipped++
			continue
		}
		p.def.Apply(b, t)
		stats.Tuples++
		stats.TuplesPerTable[p.def.Key]++
	}
}

// LoadFile opens and loads a dump file. Failing to open the file is the only
// fatal input condition.
func LoadFile(ctx context.Context, path string, opts LoadOptions) (*Snapshot, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("open dump: %w", err)
	}
	defer f.Close()

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	snap, stats, err := Load(ctx, f, size, opts)
	if err != nil {
		return nil, stats, fmt.Errorf("load dump %s: %w", path, err)
	}
	snap.meta.Source = path
	return snap, stats, nil
}

// DumpSource builds snapshots by parsing a dump file.
type DumpSource struct {
	Path    string
	Options LoadOptions
}

// Name implements SnapshotSource.
func (d DumpSource) Name() string { return "dump:" + d.Path }

// Snapshot implements SnapshotSource.
func (d DumpSource) Snapshot(ctx context.Context) (*Snapshot, error) {
	slog.Info("loading data from SQL dump", "path", d.Path)

	snap, stats, err := LoadFile(ctx, d.Path, d.Options)
	if err != nil {
		return nil, err
	}

	slog.Info("dump loaded",
		"assets", snap.Len(),
		"lines", stats.Lines,
		"statements", stats.Statements,
		"tuples", stats.Tuples,
		"skipped", stats.Skipped,
		"unterminated", stats.Unterminated,
		"bytes", stats.BytesRead,
		"duration_ms", stats.Duration.Milliseconds(),
	)
	return snap, nil
}
