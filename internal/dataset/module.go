package dataset

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/afero"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/blob"
	"github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"
	"github.com/likhith1253/chemicalanalyzer/internal/dataset/event"
	"github.com/likhith1253/chemicalanalyzer/internal/dataset/inbound"
	"github.com/likhith1253/chemicalanalyzer/internal/dataset/insight"
	"github.com/likhith1253/chemicalanalyzer/internal/dataset/report"
	"github.com/likhith1253/chemicalanalyzer/internal/dataset/store"
	"github.com/likhith1253/chemicalanalyzer/internal/dataset/usecase"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgauth"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgconfig"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgdb"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgmetrics"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgrouter"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgroutine"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkguid"
)

type Dependency struct {
	Config    pkgconfig.Config
	Goroutine *pkgroutine.Manager
	Router    *pkgrouter.Router
	Context   context.Context
	DB        *sqlx.DB
	FS        afero.Fs
	Metrics   pkgmetrics.Backend
	Auth      pkgauth.Authenticator
	ID        pkguid.NumberID
	EventID   pkguid.StringID
}

func New(dep Dependency) (func(context.Context) error, error) {
	if dep.ID == nil {
		return nil, errors.New("dataset: missing id generator")
	}
	if dep.EventID == nil {
		dep.EventID = pkguid.NewUUID()
	}
	if dep.FS == nil {
		dep.FS = afero.NewOsFs()
	}
	if dep.Context == nil {
		dep.Context = context.Background()
	}

	var storage usecase.Store
	if dep.DB != nil {
		if err := pkgdb.Migrate(dep.Context, dep.DB, store.Migrations...); err != nil {
			return nil, err
		}
		storage = store.NewSQLStore(dep.DB)
	} else {
		slog.Warn("dataset module is using the in-memory store")
		storage = store.NewInMemoryStore()
	}

	uploadsDir := dep.Config.GetString("storage.uploads_dir")
	if uploadsDir == "" {
		uploadsDir = "./media"
	}

	reports := report.NewRenderer(nil)
	if font := dep.Config.GetString("modules.dataset.report.font_path"); font != "" {
		reports = reports.WithUTF8Font(font)
	}

	ucDep := usecase.Dependency{
		Store:   storage,
		Blobs:   blob.New(dep.FS, uploadsDir),
		Reports: reports,
		Metrics: dep.Metrics,
		ID:      dep.ID,
		EventID: dep.EventID,
		Config: usecase.Config{
			PreviewLimit:   int(dep.Config.GetInt("modules.dataset.preview_limit")),
			RetentionLimit: int(dep.Config.GetInt("modules.dataset.retention.limit")),
			RetentionScope: usecase.ParseScope(dep.Config.GetString("modules.dataset.retention.scope")),
		},
	}

	if gen := newInsightGenerator(dep.Config); gen != nil {
		ucDep.Insights = gen
	}

	var consumer *event.WarmupConsumer
	bus := event.NewBus(256)
	if ucDep.Insights != nil && dep.Config.GetBool("insights.prewarm") {
		ucDep.Events = bus
	}

	uc := usecase.New(ucDep)

	if ucDep.Events != nil {
		var runner event.Runner
		if dep.Goroutine != nil {
			runner = dep.Goroutine
		}
		consumer = event.NewWarmupConsumer(bus, event.HandlerFunc(func(ctx context.Context, ev entity.InsightRequested) error {
			return uc.WarmInsight(ctx, ev.DatasetID)
		}), runner, event.ConsumerConfig{
			Workers:     2,
			MaxRetries:  3,
			BaseBackoff: time.Second,
		})
		consumer.Start()
	}

	var mws []pkgrouter.Middleware
	if dep.Auth != nil {
		mws = append(mws, pkgauth.Middleware(dep.Auth))
	} else {
		slog.Warn("dataset endpoints are not authenticated")
	}

	inbound.RegisterHTTPEndpoint(dep.Router, uc, inbound.Config{
		MaxUploadBytes: dep.Config.GetInt("modules.dataset.max_upload_bytes"),
	}, mws...)

	return func(ctx context.Context) error {
		if consumer == nil {
			bus.Close()
			return nil
		}
		return consumer.Stop(ctx)
	}, nil
}

func newInsightGenerator(cfg pkgconfig.Config) *insight.Generator {
	if !cfg.GetBool("insights.enabled") {
		return nil
	}

	key := cfg.GetString("insights.api_key")
	if key == "" {
		key = os.Getenv("GOOGLE_GEMINI_API_KEY")
	}
	if key == "" {
		slog.Warn("insights are enabled but no api key is configured")
		return nil
	}

	timeout := cfg.GetDuration("insights.timeout")
	client := insight.NewClientWithBaseURL(key, timeout, int(cfg.GetInt("insights.retry_max")), 0, 0, cfg.GetString("insights.base_url"))

	return insight.NewGenerator(client, cfg.GetString("insights.model"), timeout)
}
