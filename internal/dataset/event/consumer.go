package event

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"
)

type Handler interface {
	Handle(ctx context.Context, event entity.InsightRequested) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event entity.InsightRequested) error

func (f HandlerFunc) Handle(ctx context.Context, event entity.InsightRequested) error {
	return f(ctx, event)
}

// Runner starts background work. *pkgroutine.Manager satisfies it.
type Runner interface {
	Go(ctx context.Context, name string, f func(ctx context.Context) error) bool
}

type ConsumerConfig struct {
	Workers     int
	MaxRetries  int
	BaseBackoff time.Duration
}

// WarmupConsumer drains insight requests and retries failed handlers with
// exponential backoff. Duplicate event ids are handled once.
type WarmupConsumer struct {
	bus         *Bus
	handler     Handler
	runner      Runner
	workers     int
	maxRetries  int
	baseBackoff time.Duration
	seen        sync.Map
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewWarmupConsumer(bus *Bus, handler Handler, runner Runner, cfg ConsumerConfig) *WarmupConsumer {
	workers := cfg.Workers
	if workers < 1 {
		workers = 2
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	baseBackoff := cfg.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = 500 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WarmupConsumer{
		bus:         bus,
		handler:     handler,
		runner:      runner,
		workers:     workers,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (c *WarmupConsumer) Start() {
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		work := func(ctx context.Context) error {
			defer c.wg.Done()
			c.worker(ctx)
			return nil
		}

		if c.runner == nil {
			go func() { _ = work(c.ctx) }()
			continue
		}
		if !c.runner.Go(c.ctx, "insight-warmup", work) {
			c.wg.Done()
		}
	}
}

// Stop closes the bus and waits for queued events to drain. When ctx expires
// first, in-flight retries are canceled.
func (c *WarmupConsumer) Stop(ctx context.Context) error {
	if c.bus != nil {
		c.bus.Close()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.cancel()
		return nil
	case <-ctx.Done():
		c.cancel()
		return ctx.Err()
	}
}

func (c *WarmupConsumer) worker(ctx context.Context) {
	for event := range c.bus.Subscribe() {
		c.processEvent(ctx, event)
	}
}

func (c *WarmupConsumer) processEvent(ctx context.Context, event entity.InsightRequested) {
	if c.handler == nil {
		return
	}

	if event.EventID != "" {
		if _, loaded := c.seen.LoadOrStore(event.EventID, struct{}{}); loaded {
			slog.InfoContext(ctx, "skip duplicate insight request", "event_id", event.EventID, "dataset_id", event.DatasetID)
			return
		}
	}

	backoff := c.baseBackoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		err := c.handler.Handle(ctx, event)
		if err == nil {
			return
		}

		if attempt == c.maxRetries {
			slog.ErrorContext(ctx, "failed to warm insight after retries", "event_id", event.EventID, "dataset_id", event.DatasetID, "error", err)
			return
		}

		slog.WarnContext(ctx, "warm insight failed, retrying", "event_id", event.EventID, "dataset_id", event.DatasetID, "attempt", attempt+1, "error", err)
		if !sleepBackoff(ctx, backoff) {
			return
		}
		backoff *= 2
	}
}

func sleepBackoff(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
