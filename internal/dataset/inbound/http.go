package inbound

import (
	"context"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"
	"github.com/likhith1253/chemicalanalyzer/internal/dataset/usecase"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgrouter"
)

type uc interface {
	Upload(ctx context.Context, in usecase.UploadInput) (usecase.UploadResult, error)
	List(ctx context.Context, owner int64) (usecase.ListResult, error)
	Get(ctx context.Context, owner, id int64) (entity.Dataset, error)
	Delete(ctx context.Context, owner, id int64) error
	Report(ctx context.Context, owner, id int64) (usecase.FileResult, error)
	Original(ctx context.Context, owner, id int64) (usecase.FileResult, error)
	Insights(ctx context.Context, owner, id int64) (usecase.InsightResult, error)
}

// DefaultMaxUploadBytes caps the uploaded file size.
const DefaultMaxUploadBytes int64 = 10 << 20

type Config struct {
	MaxUploadBytes int64
}

// RegisterHTTPEndpoint mounts the dataset API. mws run after the router's
// own middleware, which is where authentication goes.
func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc, cfg Config, mws ...pkgrouter.Middleware) {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	end := &HTTPEndpoint{uc: uc, maxUploadBytes: cfg.MaxUploadBytes}

	r.POST("/api/upload", end.Upload, mws...)

	r.GET("/api/datasets", end.List, mws...)
	r.GET("/api/datasets/:id", end.Detail, mws...)
	r.DELETE("/api/datasets/:id", end.Delete, mws...)
	r.GET("/api/datasets/:id/report/pdf", end.Report, mws...)
	r.GET("/api/datasets/:id/file", end.Original, mws...)
	r.GET("/api/datasets/:id/insights", end.Insights, mws...)
}
