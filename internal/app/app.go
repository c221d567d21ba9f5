package app

import (
	"context"
	"net/http"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/afero"

	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgauth"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgconfig"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkglog"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgmetrics"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgrouter"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgroutine"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkguid"
)

type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	configPath string
	config     pkgconfig.Config

	// libraries
	uuid      pkguid.StringID
	snowflake pkguid.NumberID
	goroutine *pkgroutine.Manager

	// resources
	db      *sqlx.DB
	fs      afero.Fs
	metrics pkgmetrics.Backend
	auth    pkgauth.Authenticator

	// server
	router     *pkgrouter.Router
	httpServer *http.Server

	// modules are closed before background goroutines are awaited,
	// resources after
	moduleClosers []namedCloser
	closers       []namedCloser
}

// New builds the application from the default config location:
// /config/config.yaml, or ./config/config.yaml when LOCAL=true.
func New() *App {
	path := "/config/config.yaml"
	if os.Getenv("LOCAL") == "true" {
		path = "./config/config.yaml"
	}
	return NewWithConfig(path)
}

func NewWithConfig(configPath string) *App {
	pkglog.InitLogging()

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:        ctx,
		cancel:     cancel,
		configPath: configPath,
	}

	app.initConfig()
	app.initLibraries()
	app.initResources()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
