package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"
)

var (
	ErrBusClosed = errors.New("event bus is closed")
	ErrBusFull   = errors.New("event bus is full")
)

// Bus is a bounded in-process queue of insight requests. Publish never
// waits for room: a request that does not fit is refused, and the insight
// is generated on first read instead.
type Bus struct {
	mu      sync.RWMutex
	closed  bool
	pending chan entity.InsightRequested
	dropped atomic.Int64
}

func NewBus(buffer int) *Bus {
	if buffer < 1 {
		buffer = 1
	}
	return &Bus{pending: make(chan entity.InsightRequested, buffer)}
}

func (b *Bus) Publish(_ context.Context, req entity.InsightRequested) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	select {
	case b.pending <- req:
		return nil
	default:
		b.dropped.Add(1)
		return ErrBusFull
	}
}

// Dropped counts requests refused because the buffer was full.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

func (b *Bus) Subscribe() <-chan entity.InsightRequested {
	return b.pending
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.pending)
	}
}
