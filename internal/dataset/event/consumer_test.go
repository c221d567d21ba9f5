package event

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgroutine"
)

func TestWarmupConsumerRetriesAndIdempotent(t *testing.T) {
	bus := NewBus(10)

	var attempts int32
	done := make(chan struct{})
	handler := HandlerFunc(func(ctx context.Context, event entity.InsightRequested) error {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			return errors.New("temporary failure")
		}
		select {
		case <-done:
		default:
			close(done)
		}
		return nil
	})

	consumer := NewWarmupConsumer(bus, handler, pkgroutine.NewManager(2), ConsumerConfig{
		Workers:     1,
		MaxRetries:  2,
		BaseBackoff: time.Millisecond,
	})
	consumer.Start()

	event := entity.InsightRequested{EventID: "evt-1", DatasetID: 1}
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish event: %v", err)
	}
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish duplicate: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for handler")
	}

	if err := consumer.Stop(context.Background()); err != nil {
		t.Fatalf("stop consumer: %v", err)
	}

	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestWarmupConsumerGivesUpAfterMaxRetries(t *testing.T) {
	bus := NewBus(1)

	var attempts int32
	handler := HandlerFunc(func(ctx context.Context, event entity.InsightRequested) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("upstream down")
	})

	consumer := NewWarmupConsumer(bus, handler, nil, ConsumerConfig{
		Workers:     1,
		MaxRetries:  1,
		BaseBackoff: time.Millisecond,
	})
	consumer.Start()

	if err := bus.Publish(context.Background(), entity.InsightRequested{EventID: "evt-2", DatasetID: 2}); err != nil {
		t.Fatalf("publish event: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := consumer.Stop(ctx); err != nil {
		t.Fatalf("stop consumer: %v", err)
	}

	if got := atomic.LoadInt32(&attempts); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}
