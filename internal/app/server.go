package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

type namedCloser struct {
	name  string
	close func(context.Context) error
}

// Start serves HTTP in the background. The returned channel is closed on the
// first termination signal.
func (a *App) Start() <-chan struct{} {
	done := make(chan struct{})

	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)

		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen and serve http server", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer stop()

		<-ctx.Done()
		slog.Info("shutdown requested")
		close(done)
	}()

	return done
}

// Stop drains the server in dependency order: HTTP first so no new uploads
// arrive, then module workers, then background goroutines, then shared
// resources in reverse order of creation.
func (a *App) Stop(ctx context.Context) {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to shut down http server", "error", err)
	}

	a.runClosers(ctx, "module", a.moduleClosers)

	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background tasks finished with errors", "error", err)
	}

	if a.cancel != nil {
		a.cancel()
	}

	a.runClosers(ctx, "resource", a.closers)
	slog.InfoContext(ctx, "application stopped")
}

func (a *App) runClosers(ctx context.Context, kind string, closers []namedCloser) {
	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if err := c.close(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close "+kind, "name", c.name, "error", err)
		}
	}
}
