package ingest

import "github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"

// Aggregator reduces accepted rows in a single pass.
type Aggregator struct {
	count       int
	flowrate    float64
	pressure    float64
	temperature float64
	types       map[string]int
}

func NewAggregator() *Aggregator {
	return &Aggregator{types: make(map[string]int)}
}

// Add folds one accepted row. Type keys are taken verbatim.
func (a *Aggregator) Add(row entity.EquipmentRow) {
	a.count++
	a.flowrate += row.Flowrate
	a.pressure += row.Pressure
	a.temperature += row.Temperature
	a.types[row.Type]++
}

func (a *Aggregator) Count() int {
	return a.count
}

// Summary returns the current totals. The distribution map is a copy.
func (a *Aggregator) Summary() entity.Summary {
	dist := make(map[string]int, len(a.types))
	for k, v := range a.types {
		dist[k] = v
	}

	s := entity.Summary{TotalCount: a.count, TypeDistribution: dist}
	if a.count == 0 {
		return s
	}

	n := float64(a.count)
	s.AvgFlowrate = ptr(a.flowrate / n)
	s.AvgPressure = ptr(a.pressure / n)
	s.AvgTemperature = ptr(a.temperature / n)

	return s
}

func ptr(v float64) *float64 {
	return &v
}
