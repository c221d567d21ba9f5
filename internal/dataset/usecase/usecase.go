package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"
	"github.com/likhith1253/chemicalanalyzer/internal/dataset/ingest"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgerror"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgmetrics"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkguid"
)

type Store interface {
	Create(ctx context.Context, ds entity.Dataset) error
	List(ctx context.Context, q ListQuery) ([]entity.Dataset, error)
	Get(ctx context.Context, id int64) (entity.Dataset, error)
	Delete(ctx context.Context, id int64) error
	SaveInsight(ctx context.Context, in entity.Insight) error
	GetInsight(ctx context.Context, datasetID int64) (entity.Insight, error)
}

type BlobStore interface {
	Save(ctx context.Context, id int64, content []byte) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type ReportRenderer interface {
	Render(ds entity.Dataset) ([]byte, error)
}

type InsightGenerator interface {
	Generate(ctx context.Context, ds entity.Dataset) (entity.Insight, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event entity.InsightRequested) error
}

type Clock interface {
	Now() time.Time
}

// Scope decides which datasets share a retention window.
type Scope string

const (
	ScopeUser   Scope = "user"
	ScopeGlobal Scope = "global"
)

// ParseScope accepts "user" or "global"; anything else falls back to user.
func ParseScope(s string) Scope {
	if Scope(strings.ToLower(strings.TrimSpace(s))) == ScopeGlobal {
		return ScopeGlobal
	}
	return ScopeUser
}

const DefaultRetentionLimit = 5

type Config struct {
	PreviewLimit   int
	RetentionLimit int
	RetentionScope Scope
}

type Dependency struct {
	Store    Store
	Blobs    BlobStore
	Reports  ReportRenderer
	Insights InsightGenerator
	Events   EventPublisher
	Metrics  pkgmetrics.Backend
	Clock    Clock
	ID       pkguid.NumberID
	EventID  pkguid.StringID
	Config   Config
}

type Usecase struct {
	store    Store
	blobs    BlobStore
	reports  ReportRenderer
	insights InsightGenerator
	events   EventPublisher
	metrics  pkgmetrics.Backend
	clock    Clock
	id       pkguid.NumberID
	eventID  pkguid.StringID
	cfg      Config
}

func New(dep Dependency) *Usecase {
	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	metrics := dep.Metrics
	if metrics == nil {
		metrics = pkgmetrics.Noop{}
	}

	cfg := dep.Config
	if cfg.PreviewLimit <= 0 {
		cfg.PreviewLimit = ingest.DefaultPreviewLimit
	}
	if cfg.RetentionLimit <= 0 {
		cfg.RetentionLimit = DefaultRetentionLimit
	}
	if cfg.RetentionScope == "" {
		cfg.RetentionScope = ScopeUser
	}

	return &Usecase{
		store:    dep.Store,
		blobs:    dep.Blobs,
		reports:  dep.Reports,
		insights: dep.Insights,
		events:   dep.Events,
		metrics:  metrics,
		clock:    clock,
		id:       dep.ID,
		eventID:  dep.EventID,
		cfg:      cfg,
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Upload analyzes a CSV, persists the aggregate with its raw bytes and then
// prunes the owner's retention window.
func (u *Usecase) Upload(ctx context.Context, in UploadInput) (UploadResult, error) {
	if u.store == nil || u.blobs == nil || u.id == nil {
		return UploadResult{}, pkgerror.NewServer(errors.New("missing dependency"))
	}
	if in.Content == nil {
		return UploadResult{}, pkgerror.NewBusiness("no file uploaded", pkgerror.CodeInvalidFormat)
	}

	started := u.clock.Now()
	status := "error"
	defer func() {
		u.metrics.IncCounter(pkgmetrics.UploadsTotal, 1, pkgmetrics.Labels{"status": status})
		u.metrics.ObserveHistogram(pkgmetrics.UploadDurationSeconds, u.clock.Now().Sub(started).Seconds(), pkgmetrics.Labels{"status": status})
	}()

	content, err := io.ReadAll(in.Content)
	if err != nil {
		return UploadResult{}, normalizeErr(err)
	}

	res, err := ingest.Analyze(ctx, bytes.NewReader(content), ingest.Options{PreviewLimit: u.cfg.PreviewLimit})
	if err != nil {
		status = ingestStatus(err)
		return UploadResult{}, mapIngestErr(err)
	}
	if res.Rejected > 0 {
		u.metrics.IncCounter(pkgmetrics.RowsRejectedTotal, float64(res.Rejected), nil)
	}

	id := u.id.Generate()
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Dataset " + started.Format("2006-01-02 15:04")
	}

	rawPath, err := u.blobs.Save(ctx, id, content)
	if err != nil {
		return UploadResult{}, normalizeErr(err)
	}

	ds := entity.Dataset{
		ID:               id,
		Name:             name,
		OriginalFilename: in.Filename,
		UploadedBy:       in.Owner,
		UploaderName:     in.OwnerName,
		UploadedAt:       started.UTC(),
		RejectedCount:    res.Rejected,
		Summary:          res.Summary,
		PreviewRows:      res.Preview,
		FullRows:         res.Rows,
		RawPath:          rawPath,
	}

	if err := u.store.Create(ctx, ds); err != nil {
		if delErr := u.blobs.Delete(ctx, rawPath); delErr != nil {
			slog.WarnContext(ctx, "failed to remove raw upload after store failure", "dataset_id", id, "error", delErr)
		}
		return UploadResult{}, normalizeErr(err)
	}
	status = "ok"

	slog.InfoContext(ctx, "dataset created", "dataset_id", id, "owner", in.Owner, "total_count", ds.TotalCount, "rejected_count", ds.RejectedCount)

	u.prune(ctx, in.Owner)
	u.requestInsight(ctx, id)

	return UploadResult{Dataset: ds}, nil
}

// prune deletes everything outside the retention window. Failures are
// logged and never returned.
func (u *Usecase) prune(ctx context.Context, owner int64) {
	overflow, err := u.store.List(ctx, u.scopeQuery(owner, 0, u.cfg.RetentionLimit))
	if err != nil {
		slog.WarnContext(ctx, "retention query failed", "owner", owner, "error", err)
		return
	}

	pruned := 0
	for _, ds := range overflow {
		if err := u.store.Delete(ctx, ds.ID); err != nil {
			if !errors.Is(err, pkgerror.ErrNotFound) {
				slog.WarnContext(ctx, "failed to delete pruned dataset", "dataset_id", ds.ID, "error", err)
			}
			continue
		}
		pruned++

		if err := u.blobs.Delete(ctx, ds.RawPath); err != nil {
			slog.WarnContext(ctx, "failed to delete raw upload of pruned dataset", "dataset_id", ds.ID, "path", ds.RawPath, "error", err)
		}
	}

	if pruned > 0 {
		u.metrics.IncCounter(pkgmetrics.DatasetsPrunedTotal, float64(pruned), nil)
		slog.InfoContext(ctx, "pruned datasets", "owner", owner, "count", pruned)
	}
}

func (u *Usecase) requestInsight(ctx context.Context, id int64) {
	if u.events == nil {
		return
	}

	event := entity.InsightRequested{DatasetID: id}
	if u.eventID != nil {
		event.EventID = u.eventID.Generate()
	}

	if err := u.events.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish insight request", "dataset_id", id, "error", err)
	}
}

// List returns the current retention window, most recent first.
func (u *Usecase) List(ctx context.Context, owner int64) (ListResult, error) {
	list, err := u.store.List(ctx, u.scopeQuery(owner, u.cfg.RetentionLimit, 0))
	if err != nil {
		return ListResult{}, normalizeErr(err)
	}

	return ListResult{Datasets: list}, nil
}

func (u *Usecase) Get(ctx context.Context, owner, id int64) (entity.Dataset, error) {
	if id <= 0 {
		return entity.Dataset{}, pkgerror.NewInvalidInput(errors.New("invalid dataset id"))
	}

	ds, err := u.store.Get(ctx, id)
	if err != nil {
		return entity.Dataset{}, mapStoreErr(err)
	}

	if u.cfg.RetentionScope == ScopeUser && ds.UploadedBy != owner {
		return entity.Dataset{}, mapStoreErr(pkgerror.ErrNotFound)
	}

	return ds, nil
}

func (u *Usecase) Delete(ctx context.Context, owner, id int64) error {
	ds, err := u.Get(ctx, owner, id)
	if err != nil {
		return err
	}

	if err := u.store.Delete(ctx, id); err != nil {
		return mapStoreErr(err)
	}

	if err := u.blobs.Delete(ctx, ds.RawPath); err != nil {
		slog.WarnContext(ctx, "failed to delete raw upload", "dataset_id", id, "error", err)
	}

	return nil
}

func (u *Usecase) Report(ctx context.Context, owner, id int64) (FileResult, error) {
	if u.reports == nil {
		return FileResult{}, pkgerror.NewServer(errors.New("missing report renderer"))
	}

	ds, err := u.Get(ctx, owner, id)
	if err != nil {
		return FileResult{}, err
	}

	content, err := u.reports.Render(ds)
	if err != nil {
		slog.ErrorContext(ctx, "pdf generation failed", "dataset_id", id, "error", err)
		return FileResult{}, pkgerror.NewServer(err)
	}

	return FileResult{
		Filename: fmt.Sprintf("dataset_%d_report.pdf", id),
		Content:  content,
	}, nil
}

// Original returns the CSV bytes exactly as they were uploaded.
func (u *Usecase) Original(ctx context.Context, owner, id int64) (FileResult, error) {
	ds, err := u.Get(ctx, owner, id)
	if err != nil {
		return FileResult{}, err
	}

	missing := pkgerror.NewBusiness("original file is no longer available", pkgerror.CodeNotFound)
	if ds.RawPath == "" {
		return FileResult{}, missing
	}

	rc, err := u.blobs.Open(ctx, ds.RawPath)
	if errors.Is(err, os.ErrNotExist) {
		slog.WarnContext(ctx, "raw upload missing from storage", "dataset_id", id, "key", ds.RawPath)
		return FileResult{}, missing
	}
	if err != nil {
		return FileResult{}, pkgerror.NewServer(err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return FileResult{}, pkgerror.NewServer(err)
	}

	return FileResult{Filename: ds.OriginalFilename, Content: content}, nil
}

// Insights returns cached commentary for a dataset, generating it on first use.
func (u *Usecase) Insights(ctx context.Context, owner, id int64) (InsightResult, error) {
	ds, err := u.Get(ctx, owner, id)
	if err != nil {
		return InsightResult{}, err
	}

	return u.insightFor(ctx, ds)
}

// WarmInsight generates and caches commentary ahead of the first request.
func (u *Usecase) WarmInsight(ctx context.Context, id int64) error {
	ds, err := u.store.Get(ctx, id)
	if errors.Is(err, pkgerror.ErrNotFound) {
		// pruned or deleted before the warmup ran
		return nil
	}
	if err != nil {
		return err
	}

	_, err = u.insightFor(ctx, ds)
	return err
}

func (u *Usecase) insightFor(ctx context.Context, ds entity.Dataset) (InsightResult, error) {
	cached, err := u.store.GetInsight(ctx, ds.ID)
	if err == nil {
		return InsightResult{DatasetID: ds.ID, Text: cached.Text, Cached: true}, nil
	}
	if !errors.Is(err, pkgerror.ErrNotFound) {
		return InsightResult{}, normalizeErr(err)
	}

	if u.insights == nil {
		return InsightResult{}, pkgerror.NewUnavailable("AI insights are not configured", nil)
	}

	generated, err := u.insights.Generate(ctx, ds)
	if err != nil {
		slog.WarnContext(ctx, "insight generation failed", "dataset_id", ds.ID, "error", err)
		return InsightResult{}, pkgerror.NewUnavailable("AI insights are temporarily unavailable", err)
	}
	if generated.CreatedAt.IsZero() {
		generated.CreatedAt = u.clock.Now().UTC()
	}
	generated.DatasetID = ds.ID

	if err := u.store.SaveInsight(ctx, generated); err != nil {
		slog.WarnContext(ctx, "failed to cache insight", "dataset_id", ds.ID, "error", err)
	}

	return InsightResult{DatasetID: ds.ID, Text: generated.Text}, nil
}

func (u *Usecase) scopeQuery(owner int64, limit, offset int) ListQuery {
	return ListQuery{
		OwnerID:   owner,
		AllOwners: u.cfg.RetentionScope == ScopeGlobal,
		Limit:     limit,
		Offset:    offset,
	}
}

func ingestStatus(err error) string {
	var (
		schemaErr    *ingest.SchemaError
		emptyErr     *ingest.EmptyDatasetError
		malformedErr *ingest.MalformedInputError
	)
	switch {
	case errors.As(err, &schemaErr):
		return "schema_error"
	case errors.As(err, &emptyErr):
		return "empty_dataset"
	case errors.As(err, &malformedErr):
		return "malformed"
	default:
		return "error"
	}
}

func mapIngestErr(err error) error {
	var (
		schemaErr    *ingest.SchemaError
		emptyErr     *ingest.EmptyDatasetError
		malformedErr *ingest.MalformedInputError
	)

	switch {
	case errors.As(err, &schemaErr):
		return pkgerror.WithFields(
			pkgerror.NewBusiness(schemaErr.Error(), pkgerror.CodeInvalidInput),
			map[string]string{"kind": "SchemaError", "missing": schemaErr.MissingLabels()},
		)
	case errors.As(err, &emptyErr):
		return pkgerror.WithFields(
			pkgerror.NewBusiness("no valid rows found in file", pkgerror.CodeInvalidInput),
			map[string]string{"kind": "EmptyDatasetError", "rejected_count": strconv.Itoa(emptyErr.Rejected)},
		)
	case errors.As(err, &malformedErr):
		return pkgerror.WithFields(
			pkgerror.NewBusiness(malformedErr.Error(), pkgerror.CodeInvalidFormat),
			map[string]string{"kind": "MalformedInputError"},
		)
	default:
		return normalizeErr(err)
	}
}

func mapStoreErr(err error) error {
	if errors.Is(err, pkgerror.ErrNotFound) {
		return pkgerror.NewBusiness("dataset not found", pkgerror.CodeNotFound)
	}
	return normalizeErr(err)
}

func normalizeErr(err error) error {
	var perr *pkgerror.Error
	if errors.As(err, &perr) {
		return perr
	}
	return pkgerror.NewServer(err)
}
