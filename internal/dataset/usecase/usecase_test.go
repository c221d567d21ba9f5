package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgerror"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgmetrics"
)

const sampleCSV = "Equipment Name,Type,Flowrate,Pressure,Temperature\n" +
	"Pump-001,Pump,150.5,2.5,85.2\n" +
	"Valve-A12,Valve,75.3,1.8,45.7\n"

type testStore struct {
	mu        sync.RWMutex
	datasets  map[int64]entity.Dataset
	insights  map[int64]entity.Insight
	createErr error
	deleteErr error
}

func newTestStore() *testStore {
	return &testStore{
		datasets: make(map[int64]entity.Dataset),
		insights: make(map[int64]entity.Insight),
	}
}

func (s *testStore) Create(ctx context.Context, ds entity.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.datasets[ds.ID] = ds
	return nil
}

func (s *testStore) List(ctx context.Context, q ListQuery) ([]entity.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entity.Dataset
	for _, ds := range s.datasets {
		if q.AllOwners || ds.UploadedBy == q.OwnerID {
			out = append(out, ds)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID > out[j].ID
	})

	if q.Offset >= len(out) {
		return nil, nil
	}
	out = out[q.Offset:]
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *testStore) Get(ctx context.Context, id int64) (entity.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[id]
	if !ok {
		return entity.Dataset{}, pkgerror.ErrNotFound
	}
	return ds, nil
}

func (s *testStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.datasets[id]; !ok {
		return pkgerror.ErrNotFound
	}
	delete(s.datasets, id)
	delete(s.insights, id)
	return nil
}

func (s *testStore) SaveInsight(ctx context.Context, in entity.Insight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insights[in.DatasetID] = in
	return nil
}

func (s *testStore) GetInsight(ctx context.Context, datasetID int64) (entity.Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in, ok := s.insights[datasetID]
	if !ok {
		return entity.Insight{}, pkgerror.ErrNotFound
	}
	return in, nil
}

type testBlobs struct {
	mu        sync.Mutex
	files     map[string][]byte
	deleteErr error
	deletes   []string
}

func newTestBlobs() *testBlobs {
	return &testBlobs{files: make(map[string][]byte)}
}

func (b *testBlobs) Save(ctx context.Context, id int64, content []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := fmt.Sprintf("uploads/%d.csv", id)
	b.files[key] = content
	return key, nil
}

func (b *testBlobs) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	content, ok := b.files[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (b *testBlobs) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes = append(b.deletes, key)
	if b.deleteErr != nil {
		return b.deleteErr
	}
	delete(b.files, key)
	return nil
}

type testPublisher struct {
	mu     sync.Mutex
	events []entity.InsightRequested
	err    error
}

func (p *testPublisher) Publish(ctx context.Context, event entity.InsightRequested) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type testGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *testGenerator) Generate(ctx context.Context, ds entity.Dataset) (entity.Insight, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return entity.Insight{}, g.err
	}
	return entity.Insight{Text: fmt.Sprintf("%d rows analyzed", ds.TotalCount), Model: "test"}, nil
}

type testRenderer struct{}

func (testRenderer) Render(ds entity.Dataset) ([]byte, error) {
	return []byte("%PDF-" + ds.Name), nil
}

type testMetrics struct {
	mu       sync.Mutex
	counters map[string]float64
}

func (m *testMetrics) IncCounter(name string, delta float64, labels pkgmetrics.Labels) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]float64)
	}
	key := name
	if s, ok := labels["status"]; ok {
		key += "|" + s
	}
	m.counters[key] += delta
}

func (m *testMetrics) ObserveHistogram(string, float64, pkgmetrics.Labels) {}
func (m *testMetrics) Close() error                                      { return nil }

type testID struct {
	mu sync.Mutex
	n  int64
}

func (t *testID) Generate() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.n++
	return t.n
}

type testEventID struct {
	mu sync.Mutex
	n  int
}

func (t *testEventID) Generate() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.n++
	return fmt.Sprintf("evt-%d", t.n)
}

// tickClock advances one second per call.
type tickClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	uc        *Usecase
	store     *testStore
	blobs     *testBlobs
	events    *testPublisher
	generator *testGenerator
	metrics   *testMetrics
}

func newFixture(cfg Config) *fixture {
	f := &fixture{
		store:     newTestStore(),
		blobs:     newTestBlobs(),
		events:    &testPublisher{},
		generator: &testGenerator{},
		metrics:   &testMetrics{},
	}
	f.uc = New(Dependency{
		Store:    f.store,
		Blobs:    f.blobs,
		Reports:  testRenderer{},
		Insights: f.generator,
		Events:   f.events,
		Metrics:  f.metrics,
		Clock:    &tickClock{now: time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC)},
		ID:       &testID{},
		EventID:  &testEventID{},
		Config:   cfg,
	})
	return f
}

func (f *fixture) upload(t *testing.T, owner int64, content string) entity.Dataset {
	t.Helper()
	res, err := f.uc.Upload(context.Background(), UploadInput{
		Owner:    owner,
		Filename: "equipment.csv",
		Content:  strings.NewReader(content),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return res.Dataset
}

func assertCode(t *testing.T, err error, code pkgerror.Code) *pkgerror.Error {
	t.Helper()
	var perr *pkgerror.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected pkgerror.Error, got %T (%v)", err, err)
	}
	if perr.Code() != code {
		t.Fatalf("unexpected code: %s, want %s", perr.Code(), code)
	}
	return perr
}

func TestUploadPersistsAggregate(t *testing.T) {
	f := newFixture(Config{})

	ds := f.upload(t, 7, sampleCSV+"Broken,Tank,N/A,1,1\n")

	if ds.ID != 1 || ds.UploadedBy != 7 || ds.OriginalFilename != "equipment.csv" {
		t.Fatalf("unexpected identity fields: %+v", ds)
	}
	if ds.Name != "Dataset 2025-01-02 03:04" {
		t.Fatalf("unexpected default name: %q", ds.Name)
	}
	if ds.TotalCount != 2 || ds.RejectedCount != 1 {
		t.Fatalf("unexpected counts: total=%d rejected=%d", ds.TotalCount, ds.RejectedCount)
	}
	if ds.TypeDistribution["Pump"] != 1 || ds.TypeDistribution["Valve"] != 1 || len(ds.TypeDistribution) != 2 {
		t.Fatalf("unexpected distribution: %#v", ds.TypeDistribution)
	}
	if len(ds.PreviewRows) != 2 || len(ds.FullRows) != 2 {
		t.Fatalf("unexpected rows: preview=%d full=%d", len(ds.PreviewRows), len(ds.FullRows))
	}

	if _, err := f.store.Get(context.Background(), ds.ID); err != nil {
		t.Fatalf("dataset not stored: %v", err)
	}
	if string(f.blobs.files[ds.RawPath]) == "" {
		t.Fatalf("raw upload not stored at %q", ds.RawPath)
	}
	if len(f.events.events) != 1 || f.events.events[0].DatasetID != ds.ID || f.events.events[0].EventID != "evt-1" {
		t.Fatalf("unexpected events: %#v", f.events.events)
	}
	if f.metrics.counters[pkgmetrics.UploadsTotal+"|ok"] != 1 || f.metrics.counters[pkgmetrics.RowsRejectedTotal] != 1 {
		t.Fatalf("unexpected metrics: %#v", f.metrics.counters)
	}
}

func TestUploadUsesProvidedName(t *testing.T) {
	f := newFixture(Config{})

	res, err := f.uc.Upload(context.Background(), UploadInput{Owner: 1, Name: "  Plant A  ", Content: strings.NewReader(sampleCSV)})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if res.Dataset.Name != "Plant A" {
		t.Fatalf("unexpected name: %q", res.Dataset.Name)
	}
}

func TestUploadKeepsFiveMostRecent(t *testing.T) {
	f := newFixture(Config{})

	var uploaded []entity.Dataset
	for i := 0; i < 6; i++ {
		uploaded = append(uploaded, f.upload(t, 1, sampleCSV))
	}

	res, err := f.uc.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Datasets) != 5 {
		t.Fatalf("expected 5 datasets, got %d", len(res.Datasets))
	}
	for i, ds := range res.Datasets {
		want := uploaded[5-i].ID
		if ds.ID != want {
			t.Fatalf("position %d: got id %d, want %d", i, ds.ID, want)
		}
	}

	first := uploaded[0]
	if _, err := f.uc.Get(context.Background(), 1, first.ID); err == nil {
		t.Fatal("expected first upload to be pruned")
	}
	if _, ok := f.blobs.files[first.RawPath]; ok {
		t.Fatalf("raw file of pruned dataset still present")
	}
	if f.metrics.counters[pkgmetrics.DatasetsPrunedTotal] != 1 {
		t.Fatalf("unexpected prune metric: %#v", f.metrics.counters)
	}
}

func TestUploadRetentionIsPerOwner(t *testing.T) {
	f := newFixture(Config{})

	other := f.upload(t, 2, sampleCSV)
	for i := 0; i < 6; i++ {
		f.upload(t, 1, sampleCSV)
	}

	if _, err := f.uc.Get(context.Background(), 2, other.ID); err != nil {
		t.Fatalf("other owner's dataset was pruned: %v", err)
	}

	res, err := f.uc.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Datasets) != 1 || res.Datasets[0].ID != other.ID {
		t.Fatalf("unexpected list for owner 2: %#v", res.Datasets)
	}
}

func TestUploadRetentionGlobalScope(t *testing.T) {
	f := newFixture(Config{RetentionLimit: 2, RetentionScope: ScopeGlobal})

	first := f.upload(t, 1, sampleCSV)
	f.upload(t, 2, sampleCSV)
	third := f.upload(t, 3, sampleCSV)

	if _, err := f.store.Get(context.Background(), first.ID); !errors.Is(err, pkgerror.ErrNotFound) {
		t.Fatalf("expected oldest dataset pruned across owners, got %v", err)
	}

	res, err := f.uc.List(context.Background(), 99)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Datasets) != 2 || res.Datasets[0].ID != third.ID {
		t.Fatalf("unexpected global list: %#v", res.Datasets)
	}
}

func TestPruneContinuesWhenBlobDeleteFails(t *testing.T) {
	f := newFixture(Config{RetentionLimit: 1})
	f.blobs.deleteErr = errors.New("disk gone")

	f.upload(t, 1, sampleCSV)
	f.upload(t, 1, sampleCSV)
	last := f.upload(t, 1, sampleCSV)

	res, err := f.uc.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Datasets) != 1 || res.Datasets[0].ID != last.ID {
		t.Fatalf("expected only the last dataset, got %#v", res.Datasets)
	}
	if len(f.store.datasets) != 1 {
		t.Fatalf("pruned records left behind: %d", len(f.store.datasets))
	}
}

func TestUploadSchemaErrorPersistsNothing(t *testing.T) {
	f := newFixture(Config{})

	_, err := f.uc.Upload(context.Background(), UploadInput{
		Owner:   1,
		Content: strings.NewReader("Equipment Name,Flowrate,Pressure,Temperature\nA,1,2,3\n"),
	})

	perr := assertCode(t, err, pkgerror.CodeInvalidInput)
	if perr.StatusCode() != 422 {
		t.Fatalf("unexpected status: %d", perr.StatusCode())
	}
	if perr.Fields()["kind"] != "SchemaError" || perr.Fields()["missing"] != "Type" {
		t.Fatalf("unexpected fields: %#v", perr.Fields())
	}
	if !strings.Contains(perr.Msg(), "Type") {
		t.Fatalf("message should list missing column: %q", perr.Msg())
	}
	if len(f.store.datasets) != 0 || len(f.blobs.files) != 0 {
		t.Fatal("nothing should be persisted on schema error")
	}
	if f.metrics.counters[pkgmetrics.UploadsTotal+"|schema_error"] != 1 {
		t.Fatalf("unexpected metrics: %#v", f.metrics.counters)
	}
}

func TestUploadAllRowsRejected(t *testing.T) {
	f := newFixture(Config{})

	_, err := f.uc.Upload(context.Background(), UploadInput{
		Owner:   1,
		Content: strings.NewReader("Equipment Name,Type,Flowrate,Pressure,Temperature\nA,Pump,x,1,1\n"),
	})

	perr := assertCode(t, err, pkgerror.CodeInvalidInput)
	if perr.Fields()["kind"] != "EmptyDatasetError" || perr.Fields()["rejected_count"] != "1" {
		t.Fatalf("unexpected fields: %#v", perr.Fields())
	}
	if len(f.store.datasets) != 0 {
		t.Fatal("nothing should be persisted when every row is rejected")
	}
}

func TestUploadMalformedInput(t *testing.T) {
	f := newFixture(Config{})

	_, err := f.uc.Upload(context.Background(), UploadInput{Owner: 1, Content: strings.NewReader("\x00\x01\x02")})

	perr := assertCode(t, err, pkgerror.CodeInvalidFormat)
	if perr.StatusCode() != 400 || perr.Fields()["kind"] != "MalformedInputError" {
		t.Fatalf("unexpected error: %v %#v", perr.StatusCode(), perr.Fields())
	}
}

func TestUploadStoreFailureRemovesRawFile(t *testing.T) {
	f := newFixture(Config{})
	f.store.createErr = errors.New("db down")

	_, err := f.uc.Upload(context.Background(), UploadInput{Owner: 1, Content: strings.NewReader(sampleCSV)})

	assertCode(t, err, pkgerror.CodeInternal)
	if len(f.blobs.files) != 0 {
		t.Fatalf("raw file should be removed when the record is not stored")
	}
	if len(f.events.events) != 0 {
		t.Fatalf("no insight request expected for failed upload")
	}
}

func TestGetIsIdempotent(t *testing.T) {
	f := newFixture(Config{})
	ds := f.upload(t, 1, sampleCSV)

	first, err := f.uc.Get(context.Background(), 1, ds.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := f.uc.Get(context.Background(), 1, ds.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("get is not idempotent:\n%s\n%s", a, b)
	}
}

func TestGetScopesByOwner(t *testing.T) {
	f := newFixture(Config{})
	ds := f.upload(t, 1, sampleCSV)

	_, err := f.uc.Get(context.Background(), 2, ds.ID)
	assertCode(t, err, pkgerror.CodeNotFound)

	_, err = f.uc.Get(context.Background(), 1, 999)
	assertCode(t, err, pkgerror.CodeNotFound)

	_, err = f.uc.Get(context.Background(), 1, 0)
	assertCode(t, err, pkgerror.CodeInvalidInput)
}

func TestDeleteRemovesRecordAndFile(t *testing.T) {
	f := newFixture(Config{})
	ds := f.upload(t, 1, sampleCSV)

	if err := f.uc.Delete(context.Background(), 2, ds.ID); err == nil {
		t.Fatal("expected other owner delete to fail")
	}
	if err := f.uc.Delete(context.Background(), 1, ds.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err := f.uc.Get(context.Background(), 1, ds.ID)
	assertCode(t, err, pkgerror.CodeNotFound)
	if _, ok := f.blobs.files[ds.RawPath]; ok {
		t.Fatal("raw file should be deleted")
	}
}

func TestDeleteKeepsFileWhenRecordDeleteFails(t *testing.T) {
	f := newFixture(Config{})
	ds := f.upload(t, 1, sampleCSV)
	f.store.deleteErr = errors.New("database locked")

	if err := f.uc.Delete(context.Background(), 1, ds.ID); err == nil {
		t.Fatal("expected delete to fail")
	}
	if len(f.blobs.deletes) != 0 {
		t.Fatalf("raw file removed for a live record: %v", f.blobs.deletes)
	}

	res, err := f.uc.Original(context.Background(), 1, ds.ID)
	if err != nil || string(res.Content) != sampleCSV {
		t.Fatalf("original after failed delete: %v", err)
	}
}

func TestUploadSucceedsWhenPublishFails(t *testing.T) {
	f := newFixture(Config{})
	f.events.err = errors.New("event bus is full")

	ds := f.upload(t, 1, sampleCSV)
	if _, err := f.uc.Get(context.Background(), 1, ds.ID); err != nil {
		t.Fatalf("get after upload: %v", err)
	}
}

func TestReportNamesAttachment(t *testing.T) {
	f := newFixture(Config{})
	ds := f.upload(t, 1, sampleCSV)

	res, err := f.uc.Report(context.Background(), 1, ds.ID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if res.Filename != fmt.Sprintf("dataset_%d_report.pdf", ds.ID) {
		t.Fatalf("unexpected filename: %s", res.Filename)
	}
	if !strings.HasPrefix(string(res.Content), "%PDF-") {
		t.Fatalf("unexpected content: %q", res.Content)
	}
}

func TestOriginalReturnsUploadedBytes(t *testing.T) {
	f := newFixture(Config{})
	ds := f.upload(t, 1, sampleCSV)

	res, err := f.uc.Original(context.Background(), 1, ds.ID)
	if err != nil {
		t.Fatalf("original: %v", err)
	}
	if res.Filename != ds.OriginalFilename || string(res.Content) != sampleCSV {
		t.Fatalf("unexpected result: %s %q", res.Filename, res.Content)
	}

	_, err = f.uc.Original(context.Background(), 2, ds.ID)
	assertCode(t, err, pkgerror.CodeNotFound)
}

func TestOriginalMissingFromStorage(t *testing.T) {
	f := newFixture(Config{})
	ds := f.upload(t, 1, sampleCSV)

	f.blobs.mu.Lock()
	delete(f.blobs.files, ds.RawPath)
	f.blobs.mu.Unlock()

	_, err := f.uc.Original(context.Background(), 1, ds.ID)
	assertCode(t, err, pkgerror.CodeNotFound)
}

func TestInsightsAreCached(t *testing.T) {
	f := newFixture(Config{})
	ds := f.upload(t, 1, sampleCSV)

	first, err := f.uc.Insights(context.Background(), 1, ds.ID)
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	if first.Cached || first.Text != "2 rows analyzed" {
		t.Fatalf("unexpected first result: %#v", first)
	}

	second, err := f.uc.Insights(context.Background(), 1, ds.ID)
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	if !second.Cached || second.Text != first.Text {
		t.Fatalf("unexpected cached result: %#v", second)
	}
	if f.generator.calls != 1 {
		t.Fatalf("expected one generation, got %d", f.generator.calls)
	}
}

func TestInsightsFailureIsUnavailableAndNotCached(t *testing.T) {
	f := newFixture(Config{})
	f.generator.err = errors.New("quota exceeded")
	ds := f.upload(t, 1, sampleCSV)

	_, err := f.uc.Insights(context.Background(), 1, ds.ID)
	perr := assertCode(t, err, pkgerror.CodeUnavailable)
	if perr.StatusCode() != 503 {
		t.Fatalf("unexpected status: %d", perr.StatusCode())
	}
	if _, err := f.store.GetInsight(context.Background(), ds.ID); !errors.Is(err, pkgerror.ErrNotFound) {
		t.Fatalf("failure should not be cached: %v", err)
	}
}

func TestWarmInsight(t *testing.T) {
	f := newFixture(Config{})
	ds := f.upload(t, 1, sampleCSV)

	if err := f.uc.WarmInsight(context.Background(), ds.ID); err != nil {
		t.Fatalf("warm: %v", err)
	}
	if _, err := f.store.GetInsight(context.Background(), ds.ID); err != nil {
		t.Fatalf("expected cached insight: %v", err)
	}

	if err := f.uc.WarmInsight(context.Background(), 12345); err != nil {
		t.Fatalf("warm of missing dataset should be a no-op, got %v", err)
	}
}

func TestParseScope(t *testing.T) {
	if ParseScope(" Global ") != ScopeGlobal {
		t.Fatal("expected global scope")
	}
	if ParseScope("team") != ScopeUser || ParseScope("") != ScopeUser {
		t.Fatal("expected user scope fallback")
	}
}
