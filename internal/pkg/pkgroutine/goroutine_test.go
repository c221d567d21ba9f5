package pkgroutine

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewManagerDefaultMax(t *testing.T) {
	mgr := NewManager(0)
	if got := cap(mgr.sema); got != DefaultMaxGoroutine {
		t.Fatalf("expected cap %d, got %d", DefaultMaxGoroutine, got)
	}
}

func TestManagerCollectsNamedErrors(t *testing.T) {
	mgr := NewManager(2)
	errWarm := errors.New("gemini unavailable")

	mgr.Go(context.Background(), "insight-warmup", func(ctx context.Context) error {
		return errWarm
	})
	mgr.Go(context.Background(), "noop", func(ctx context.Context) error {
		return nil
	})

	err := mgr.Wait()
	if !errors.Is(err, errWarm) {
		t.Fatalf("expected wrapped task error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "insight-warmup: ") {
		t.Fatalf("expected task name in error, got %q", err)
	}
}

func TestManagerReportsPanics(t *testing.T) {
	mgr := NewManager(1)
	mgr.Go(context.Background(), "report", func(ctx context.Context) error {
		panic("boom")
	})

	err := mgr.Wait()
	if err == nil || !strings.Contains(err.Error(), "report: panic: boom") {
		t.Fatalf("expected panic error, got %v", err)
	}
}

func TestManagerRespectsLimit(t *testing.T) {
	mgr := NewManager(1)
	release := make(chan struct{})
	var running int32

	mgr.Go(context.Background(), "first", func(ctx context.Context) error {
		atomic.AddInt32(&running, 1)
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	started := mgr.Go(ctx, "second", func(ctx context.Context) error {
		atomic.AddInt32(&running, 1)
		return nil
	})

	close(release)
	if err := mgr.Wait(); err != nil {
		t.Fatalf("Wait() err = %v", err)
	}
	if started {
		t.Fatal("expected second task to be rejected while the slot was taken")
	}
	if got := atomic.LoadInt32(&running); got != 1 {
		t.Fatalf("expected one task to run, got %d", got)
	}
}
