package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrAssetNotFound is returned when an asset id is not in the snapshot.
var ErrAssetNotFound = errors.New("asset not found")

// Service answers asset queries from a snapshot that is loaded once, on first
// use, and then shared read-only by every caller.
type Service struct {
	source SnapshotSource

	loads singleflight.Group          // one load in flight at a time
	state atomic.Pointer[loadedState] // set once a load succeeds
}

type loadedState struct {
	snap     *Snapshot
	loadedAt time.Time
}

const snapshotKey = "snapshot"

// NewService creates a new Service reading from source.
func NewService(source SnapshotSource) *Service {
	return &Service{source: source}
}

// NewServiceWithSnapshot creates a Service around an already built snapshot.
func NewServiceWithSnapshot(snap *Snapshot) *Service {
	s := &Service{}
	s.state.Store(&loadedState{snap: snap, loadedAt: time.Now()})
	return s
}

// Snapshot returns the shared snapshot, loading it on the first call.
//
// Concurrent first callers share one load. The load is detached from the
// caller's cancellation, so a caller whose ctx ends stops waiting but the
// load keeps running for the next caller. A failed load is not cached, so the
// next call tries again.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	if st := s.state.Load(); st != nil {
		return st.snap, nil
	}
	if s.source == nil {
		return nil, errors.New("no snapshot source configured")
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := s.loads.DoChan(snapshotKey, func() (any, error) {
		return s.load(loadCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for snapshot: %w", ctx.Err())
	}
}

func (s *Service) load(ctx context.Context) (*Snapshot, error) {
	// A load that finished between the caller's check and DoChan.
	if st := s.state.Load(); st != nil {
		return st.snap, nil
	}

	start := time.Now()
	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		slog.Error("snapshot load failed", "source", s.source.Name(), "error", err)
		return nil, fmt.Errorf("load snapshot from %s: %w", s.source.Name(), err)
	}

	s.state.Store(&loadedState{snap: snap, loadedAt: time.Now()})
	slog.Info("snapshot ready",
		"source", s.source.Name(),
		"snapshot_id", snap.Meta().ID,
		"assets", snap.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return snap, nil
}

// Loaded reports whether the snapshot is in memory, and since when. It never
// waits for a load in progress.
func (s *Service) Loaded() (bool, time.Time) {
	st := s.state.Load()
	if st == nil {
		return false, time.Time{}
	}
	return true, st.loadedAt
}

// ListAssets returns all asset grid rows.
func (s *Service) ListAssets(ctx context.Context) ([]AssetSummary, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Assets(), nil
}

// AssetDetail returns the detail view of one asset, or ErrAssetNotFound.
func (s *Service) AssetDetail(ctx context.Context, id string) (AssetDetail, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return AssetDetail{}, err
	}
	detail, ok := snap.Detail(id)
	if !ok {
		return AssetDetail{}, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	return detail, nil
}
