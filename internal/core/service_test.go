package core_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JonMunkholm/AssetViewer/internal/core"
)

// fakeSource counts loads and fails the first failures calls.
type fakeSource struct {
	calls    atomic.Int32
	failures int32
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Snapshot(ctx context.Context) (*core.Snapshot, error) {
	n := f.calls.Add(1)
	if n <= f.failures {
		return nil, errors.New("disk on fire")
	}
	snap, _, err := core.Load(ctx, strings.NewReader(sampleDump), 0, core.LoadOptions{})
	return snap, err
}

// blockingSource holds its load until release is closed, or fails when its
// own ctx ends.
type blockingSource struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func newBlockingSource() *blockingSource {
	return &blockingSource{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingSource) Name() string { return "blocking" }

func (b *blockingSource) Snapshot(ctx context.Context) (*core.Snapshot, error) {
	if b.calls.Add(1) == 1 {
		close(b.started)
	}
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	snap, _, err := core.Load(ctx, strings.NewReader(sampleDump), 0, core.LoadOptions{})
	return snap, err
}

func TestService_LoadsOnce(t *testing.T) {
	src := &fakeSource{}
	svc := core.NewService(src)

	if loaded, _ := svc.Loaded(); loaded {
		t.Fatal("Loaded() = true before first request")
	}

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ListAssets(context.Background()); err != nil {
				t.Errorf("ListAssets() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := src.calls.Load(); got != 1 {
		t.Errorf("source called %d times, want 1", got)
	}
	if loaded, at := svc.Loaded(); !loaded || at.IsZero() {
		t.Errorf("Loaded() = %v, %v", loaded, at)
	}
}

func TestService_RetriesAfterFailure(t *testing.T) {
	src := &fakeSource{failures: 1}
	svc := core.NewService(src)

	_, err := svc.ListAssets(context.Background())
	if err == nil {
		t.Fatal("ListAssets() expected error on first load")
	}
	if !strings.Contains(err.Error(), "load snapshot from fake") {
		t.Errorf("error = %q, want source name in message", err)
	}

	rows, err := svc.ListAssets(context.Background())
	if err != nil {
		t.Fatalf("ListAssets() retry error = %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("len(rows) = %d, want 2", len(rows))
	}
	if got := src.calls.Load(); got != 2 {
		t.Errorf("source called %d times, want 2", got)
	}
}

func TestService_NoSource(t *testing.T) {
	svc := core.NewService(nil)

	_, err := svc.ListAssets(context.Background())
	if got := core.MapError(err).Code; got != "SRC004" {
		t.Errorf("MapError code = %q, want SRC004 (err = %v)", got, err)
	}
}

func TestService_AssetDetail(t *testing.T) {
	snap, _ := loadSample(t, core.LoadOptions{})
	svc := core.NewServiceWithSnapshot(snap)

	detail, err := svc.AssetDetail(context.Background(), "1")
	if err != nil {
		t.Fatalf("AssetDetail(1) error = %v", err)
	}
	if detail.ID != "1" || detail.Info.AssetName != `Laptop, 14"` {
		t.Errorf("AssetDetail(1) = %+v", detail)
	}

	_, err = svc.AssetDetail(context.Background(), "404")
	if !errors.Is(err, core.ErrAssetNotFound) {
		t.Errorf("AssetDetail(404) error = %v, want ErrAssetNotFound", err)
	}
	if got := core.MapError(err).Code; got != "AST001" {
		t.Errorf("MapError code = %q, want AST001", got)
	}
}

func TestService_LoadedDuringLoad(t *testing.T) {
	src := newBlockingSource()
	svc := core.NewService(src)

	done := make(chan error, 1)
	go func() {
		_, err := svc.ListAssets(context.Background())
		done <- err
	}()
	<-src.started

	checked := make(chan bool, 1)
	go func() {
		loaded, _ := svc.Loaded()
		checked <- loaded
	}()
	select {
	case loaded := <-checked:
		if loaded {
			t.Error("Loaded() = true while load in progress")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Loaded() blocked behind the load")
	}

	close(src.release)
	if err := <-done; err != nil {
		t.Fatalf("ListAssets() error = %v", err)
	}
	if loaded, _ := svc.Loaded(); !loaded {
		t.Error("Loaded() = false after load")
	}
}

func TestService_CallerCancelKeepsLoad(t *testing.T) {
	src := newBlockingSource()
	svc := core.NewService(src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.ListAssets(ctx)
		done <- err
	}()
	<-src.started
	cancel()

	err := <-done
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("ListAssets() error = %v, want context.Canceled", err)
	}
	if got := core.MapError(err).Code; got != "REQ001" {
		t.Errorf("MapError code = %q, want REQ001", got)
	}

	close(src.release)
	rows, err := svc.ListAssets(context.Background())
	if err != nil {
		t.Fatalf("second ListAssets() error = %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("len(rows) = %d, want 2", len(rows))
	}
	if got := src.calls.Load(); got != 1 {
		t.Errorf("source called %d times, want 1", got)
	}
}

func TestService_WaitDeadline(t *testing.T) {
	src := newBlockingSource()
	svc := core.NewService(src)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := svc.ListAssets(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("ListAssets() error = %v, want context.DeadlineExceeded", err)
	}

	close(src.release)
	if _, err := svc.ListAssets(context.Background()); err != nil {
		t.Fatalf("ListAssets() after deadline error = %v", err)
	}
	if got := src.calls.Load(); got != 1 {
		t.Errorf("source called %d times, want 1", got)
	}
}
