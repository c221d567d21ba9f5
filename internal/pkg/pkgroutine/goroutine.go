package pkgroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 10

// Manager runs named background tasks with a concurrency limit. Errors
// returned by tasks, and panics, are collected and reported by Wait.
type Manager struct {
	mu   sync.Mutex
	errs []error
	wg   sync.WaitGroup
	sema chan struct{}
}

func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = DefaultMaxGoroutine
	}

	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go blocks until a slot is free and then runs f in a new goroutine. It
// reports false, without running f, when ctx is done first.
func (g *Manager) Go(ctx context.Context, name string, f func(ctx context.Context) error) bool {
	select {
	case g.sema <- struct{}{}:
	case <-ctx.Done():
		slog.WarnContext(ctx, "background task not started", "task", name, "because", ctx.Err())
		return false
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() { <-g.sema }()
		defer func() {
			if rvr := recover(); rvr != nil {
				slog.ErrorContext(ctx, "panic in background task", "task", name, "because", rvr, "stack", string(debug.Stack()))
				g.record(fmt.Errorf("%s: panic: %v", name, rvr))
			}
		}()

		if err := f(ctx); err != nil {
			g.record(fmt.Errorf("%s: %w", name, err))
		}
	}()

	return true
}

// Wait blocks until every started task returns.
func (g *Manager) Wait() error {
	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}

func (g *Manager) record(err error) {
	g.mu.Lock()
	g.errs = append(g.errs, err)
	g.mu.Unlock()
}
