package ingest

import (
	"testing"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"
)

func TestAggregatorEmptyHasNullAverages(t *testing.T) {
	s := NewAggregator().Summary()
	if s.TotalCount != 0 {
		t.Fatalf("unexpected count: %d", s.TotalCount)
	}
	if s.AvgFlowrate != nil || s.AvgPressure != nil || s.AvgTemperature != nil {
		t.Fatalf("expected nil averages, got %#v", s)
	}
	if s.TypeDistribution == nil || len(s.TypeDistribution) != 0 {
		t.Fatalf("expected empty distribution, got %#v", s.TypeDistribution)
	}
}

func TestAggregatorZeroValuesAreNotNull(t *testing.T) {
	agg := NewAggregator()
	agg.Add(entity.EquipmentRow{Type: "Pump"})

	s := agg.Summary()
	if s.AvgFlowrate == nil || *s.AvgFlowrate != 0 {
		t.Fatalf("expected zero average, got %v", s.AvgFlowrate)
	}
}

func TestAggregatorSummaryIsSnapshot(t *testing.T) {
	agg := NewAggregator()
	agg.Add(entity.EquipmentRow{Type: "Pump", Flowrate: 1})

	s := agg.Summary()
	s.TypeDistribution["Pump"] = 99

	if got := agg.Summary().TypeDistribution["Pump"]; got != 1 {
		t.Fatalf("summary map leaked into aggregator: %d", got)
	}
}

func TestPreviewBound(t *testing.T) {
	rows := make([]entity.EquipmentRow, 3)
	if got := Preview(rows, 100); len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	if got := Preview(rows, 2); len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got := Preview(nil, 0); len(got) != 0 {
		t.Fatalf("expected empty preview, got %d", len(got))
	}
}
