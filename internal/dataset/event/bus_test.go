package event

import (
	"context"
	"errors"
	"testing"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"
)

func TestBusPublishAfterClose(t *testing.T) {
	bus := NewBus(1)
	bus.Close()
	bus.Close()

	if err := bus.Publish(context.Background(), entity.InsightRequested{}); !errors.Is(err, ErrBusClosed) {
		t.Fatalf("expected ErrBusClosed, got %v", err)
	}
}

func TestBusPublishRefusesWhenFull(t *testing.T) {
	bus := NewBus(1)

	if err := bus.Publish(context.Background(), entity.InsightRequested{DatasetID: 1}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := bus.Publish(context.Background(), entity.InsightRequested{DatasetID: 2}); !errors.Is(err, ErrBusFull) {
		t.Fatalf("expected ErrBusFull, got %v", err)
	}
	if got := bus.Dropped(); got != 1 {
		t.Fatalf("expected 1 dropped request, got %d", got)
	}

	if got := <-bus.Subscribe(); got.DatasetID != 1 {
		t.Fatalf("unexpected queued request: %+v", got)
	}
	if err := bus.Publish(context.Background(), entity.InsightRequested{DatasetID: 3}); err != nil {
		t.Fatalf("publish after drain: %v", err)
	}
}
