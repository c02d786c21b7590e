package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/AssetViewer/internal/core"
)

// ErrInvalidSnapshot is returned when a stored snapshot cannot be decoded.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

const fileBufferSize = 1 << 20

// WriteFile encodes snap as indented JSON and atomically replaces path. The
// data is written to a temp file in the same directory, synced, then renamed,
// so readers never observe a partial file.
func WriteFile(path string, snap *core.Snapshot) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriterSize(tmp, fileBufferSize)
	enc := json.NewEncoder(bw)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err = enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	_ = os.Chmod(tmpPath, 0o644)

	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// ReadFile decodes a snapshot written by WriteFile.
func ReadFile(path string) (*core.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var snap core.Snapshot
	if err := json.NewDecoder(bufio.NewReaderSize(f, fileBufferSize)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSnapshot, path, err)
	}
	if snap.Meta().Source == "" {
		slog.Debug("snapshot file has no source recorded", "path", path)
	}
	return &snap, nil
}

// FileSource serves a snapshot previously written by WriteFile.
type FileSource struct {
	Path string
}

// Name implements core.SnapshotSource.
func (f FileSource) Name() string { return "file:" + f.Path }

// Snapshot implements core.SnapshotSource.
func (f FileSource) Snapshot(ctx context.Context) (*core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slog.Info("loading data from snapshot file", "path", f.Path)

	snap, err := ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	slog.Info("snapshot file loaded",
		"snapshot_id", snap.Meta().ID,
		"created_at", snap.Meta().CreatedAt,
		"assets", snap.Len(),
	)
	return snap, nil
}
