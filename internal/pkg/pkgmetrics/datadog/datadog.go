// Package datadog implements pkgmetrics.Backend on top of the Datadog API client.
//
// Samples are buffered in memory under a mutex and submitted by Flush, which
// runs on a ticker and once more on Close. Flush resets buffers even when the
// submission fails; metrics are best effort.
package datadog

import (
	"context"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgmetrics"
)

// Options controls Datadog backend configuration.
type Options struct {
	// Service becomes tag "service:<name>" on every metric. Defaults to "chemicalanalyzer".
	Service string

	// Tags are extra Datadog tags (e.g. []string{"env:prod"}).
	Tags []string

	// FlushEvery controls how often buffered metrics are submitted. Defaults to 60s.
	FlushEvery time.Duration

	// test seams
	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker
	submitter metricsSubmitter
}

type metricsSubmitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

// Backend implements pkgmetrics.Backend for Datadog.
type Backend struct {
	api metricsSubmitter
	ctx context.Context

	flushEvery time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}
	closeOnce  sync.Once

	baseTags  []string
	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker

	mu         sync.Mutex
	counters   map[seriesKey]float64
	histograms map[seriesKey][]float64
}

type seriesKey struct {
	name string
	tags string // sorted, comma joined
}

// NewBackend constructs a Datadog backend. Credentials and site are read by the
// client from DD_API_KEY / DD_SITE.
func NewBackend(parent context.Context, opts Options) *Backend {
	service := opts.Service
	if service == "" {
		service = "chemicalanalyzer"
	}

	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = 60 * time.Second
	}

	baseTags := make([]string, 0, 2+len(opts.Tags))
	baseTags = append(baseTags, resolveEnvTag(), "service:"+service)
	for _, tag := range opts.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			baseTags = append(baseTags, tag)
		}
	}

	nowFn := opts.now
	if nowFn == nil {
		nowFn = time.Now
	}
	newTicker := opts.newTicker
	if newTicker == nil {
		newTicker = time.NewTicker
	}

	submitter := opts.submitter
	if submitter == nil {
		submitter = datadogV2.NewMetricsApi(dd.NewAPIClient(dd.NewConfiguration()))
	}

	b := &Backend{
		api:        submitter,
		ctx:        dd.NewDefaultContext(parent),
		flushEvery: flushEvery,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		baseTags:   baseTags,
		now:        nowFn,
		newTicker:  newTicker,
		counters:   make(map[seriesKey]float64),
		histograms: make(map[seriesKey][]float64),
	}

	go b.loop()
	return b
}

func resolveEnvTag() string {
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		return "env:" + v
	}
	if v := strings.TrimSpace(os.Getenv("DD_ENV")); v != "" {
		return "env:" + v
	}
	return "env:unknown"
}

func (b *Backend) loop() {
	defer close(b.doneCh)

	t := b.newTicker(b.flushEvery)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			_ = b.Flush()
		case <-b.stopCh:
			return
		}
	}
}

// IncCounter implements pkgmetrics.Backend.
func (b *Backend) IncCounter(name string, delta float64, labels pkgmetrics.Labels) {
	if delta <= 0 {
		return
	}

	key := seriesKey{name: name, tags: joinLabels(labels)}

	b.mu.Lock()
	b.counters[key] += delta
	b.mu.Unlock()
}

// ObserveHistogram implements pkgmetrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels pkgmetrics.Labels) {
	if value < 0 {
		return
	}

	key := seriesKey{name: name, tags: joinLabels(labels)}

	b.mu.Lock()
	b.histograms[key] = append(b.histograms[key], value)
	b.mu.Unlock()
}

// Close stops the flush loop and performs a final Flush. Safe to call twice.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.stopCh)
		<-b.doneCh
		err = b.Flush()
	})
	return err
}

// Flush submits buffered metrics and resets local buffers. It returns nil when
// there is nothing to submit.
func (b *Backend) Flush() error {
	b.mu.Lock()
	counters := b.counters
	histograms := b.histograms
	b.counters = make(map[seriesKey]float64)
	b.histograms = make(map[seriesKey][]float64)
	b.mu.Unlock()

	if len(counters) == 0 && len(histograms) == 0 {
		return nil
	}

	payload := datadogV2.MetricPayload{Series: b.buildSeries(counters, histograms, b.now().Unix())}
	_, _, err := b.api.SubmitMetrics(b.ctx, payload, *datadogV2.NewSubmitMetricsOptionalParameters())
	return err
}

func (b *Backend) buildSeries(counters map[seriesKey]float64, histograms map[seriesKey][]float64, nowUnix int64) []datadogV2.MetricSeries {
	series := make([]datadogV2.MetricSeries, 0, len(counters)+len(histograms)*4)

	for key, v := range counters {
		series = append(series, point(key.name, datadogV2.METRICINTAKETYPE_COUNT, v, b.tagsFor(key), nowUnix))
	}

	for key, samples := range histograms {
		if len(samples) == 0 {
			continue
		}
		cp := append([]float64(nil), samples...)
		sort.Float64s(cp)

		tags := b.tagsFor(key)
		series = append(series,
			point(key.name+".p50", datadogV2.METRICINTAKETYPE_GAUGE, percentileNearestRank(cp, 0.50), tags, nowUnix),
			point(key.name+".p95", datadogV2.METRICINTAKETYPE_GAUGE, percentileNearestRank(cp, 0.95), tags, nowUnix),
			point(key.name+".max", datadogV2.METRICINTAKETYPE_GAUGE, cp[len(cp)-1], tags, nowUnix),
			point(key.name+".samples", datadogV2.METRICINTAKETYPE_GAUGE, float64(len(cp)), tags, nowUnix),
		)
	}

	sort.Slice(series, func(i, j int) bool {
		if series[i].Metric != series[j].Metric {
			return series[i].Metric < series[j].Metric
		}
		return strings.Join(series[i].Tags, ",") < strings.Join(series[j].Tags, ",")
	})

	return series
}

func (b *Backend) tagsFor(key seriesKey) []string {
	tags := make([]string, 0, len(b.baseTags)+4)
	tags = append(tags, b.baseTags...)
	if key.tags != "" {
		tags = append(tags, strings.Split(key.tags, ",")...)
	}
	return tags
}

func point(metric string, typ datadogV2.MetricIntakeType, value float64, tags []string, nowUnix int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   typ.Ptr(),
		Points: []datadogV2.MetricPoint{
			{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(value)},
		},
		Tags: tags,
	}
}

func joinLabels(labels pkgmetrics.Labels) string {
	if len(labels) == 0 {
		return ""
	}

	parts := make([]string, 0, len(labels))
	for k, v := range labels {
		parts = append(parts, k+":"+v)
	}
	sort.Strings(parts)

	return strings.Join(parts, ",")
}

// percentileNearestRank expects sorted input.
func percentileNearestRank(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(p*float64(len(sorted)) + 0.999999)
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
