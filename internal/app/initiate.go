package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/afero"

	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgconfig"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgdb"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgmetrics"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgmetrics/datadog"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgrouter"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgroutine"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkguid"
)

func (a *App) initConfig() {
	cfg, err := pkgconfig.NewViper(a.configPath)
	if err != nil {
		slog.Error("failed to init config", "path", a.configPath, "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("tz"))

	a.config = cfg
}

func (a *App) initLibraries() {
	a.goroutine = pkgroutine.NewManager(100)
	a.uuid = pkguid.NewUUID()

	snow, err := pkguid.NewSnowflake(a.config.GetInt("snowflake.node_id"))
	if err != nil {
		slog.Error("failed to init snowflake", "error", err)
		os.Exit(1)
	}
	a.snowflake = snow
}

func (a *App) initResources() {
	a.fs = afero.NewOsFs()

	driver := strings.ToLower(a.config.GetString("database.driver"))
	if driver != "" && driver != "memory" {
		ctx, cancel := context.WithTimeout(a.ctx, 10*time.Second)
		defer cancel()

		db, err := pkgdb.Open(ctx, driver, a.config.GetString("database.dsn"))
		if err != nil {
			slog.Error("failed to open database", "driver", driver, "error", err)
			os.Exit(1)
		}
		a.db = db
	}

	a.metrics = pkgmetrics.Noop{}
	if a.config.GetBool("metrics.datadog.enabled") {
		a.metrics = datadog.NewBackend(a.ctx, datadog.Options{
			Tags:       a.config.GetArray("metrics.datadog.tags"),
			FlushEvery: a.config.GetDuration("metrics.datadog.flush_interval"),
		})
	}
}

func (a *App) initHTTPServer() {
	a.router = pkgrouter.NewRouter(a.uuid)
	if a.db != nil {
		a.router.AddHealthCheck("database", a.db.PingContext)
	}

	origins := a.config.GetArray("server.cors.allowed_origins")
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// tokens travel in the Authorization header, so cookies are not needed
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", pkgrouter.HeaderCorrelationID},
		ExposedHeaders: []string{"Content-Disposition", pkgrouter.HeaderCorrelationID},
	})

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address.http"),
		Handler:           corsHandler.Handler(a.router),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (a *App) initClosers() {
	a.closers = append(a.closers, namedCloser{"config", func(context.Context) error {
		return a.config.Close()
	}})
	if a.db != nil {
		a.closers = append(a.closers, namedCloser{"database", func(context.Context) error {
			return a.db.Close()
		}})
	}
	a.closers = append(a.closers, namedCloser{"metrics", func(context.Context) error {
		return a.metrics.Close()
	}})
}
