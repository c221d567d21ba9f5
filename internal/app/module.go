package app

import (
	"log/slog"
	"os"

	"github.com/likhith1253/chemicalanalyzer/internal/auth"
	"github.com/likhith1253/chemicalanalyzer/internal/dataset"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.auth.enabled") {
		authenticator, err := auth.New(auth.Dependency{
			Config:  a.config,
			Router:  a.router,
			Context: a.ctx,
			DB:      a.db,
			ID:      a.snowflake,
		})
		if err != nil {
			slog.Error("failed to init module auth", "error", err)
			os.Exit(1)
		}
		a.auth = authenticator
	}

	if a.config.GetBool("modules.dataset.enabled") {
		closer, err := dataset.New(dataset.Dependency{
			Config:    a.config,
			Goroutine: a.goroutine,
			Router:    a.router,
			Context:   a.ctx,
			DB:        a.db,
			FS:        a.fs,
			Metrics:   a.metrics,
			Auth:      a.auth,
			ID:        a.snowflake,
			EventID:   a.uuid,
		})
		if err != nil {
			slog.Error("failed to init module dataset", "error", err)
			os.Exit(1)
		}
		if closer != nil {
			a.moduleClosers = append(a.moduleClosers, namedCloser{"dataset", closer})
		}
	}
}
