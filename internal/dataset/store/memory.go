package store

import (
	"context"
	"sort"
	"sync"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"
	"github.com/likhith1253/chemicalanalyzer/internal/dataset/usecase"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgerror"
)

// InMemoryStore keeps datasets in process memory. It backs the "memory"
// database driver and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	datasets map[int64]entity.Dataset
	insights map[int64]entity.Insight
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		datasets: make(map[int64]entity.Dataset),
		insights: make(map[int64]entity.Insight),
	}
}

func (s *InMemoryStore) Create(ctx context.Context, ds entity.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.datasets[ds.ID]; exists {
		return pkgerror.NewBusiness("dataset already exists", pkgerror.CodeConflict)
	}

	s.datasets[ds.ID] = cloneDataset(ds, true)

	return nil
}

// List returns datasets without FullRows, matching SQLStore.
func (s *InMemoryStore) List(ctx context.Context, q usecase.ListQuery) ([]entity.Dataset, error) {
	s.mu.RLock()
	matched := make([]entity.Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		if !q.AllOwners && ds.UploadedBy != q.OwnerID {
			continue
		}
		matched = append(matched, cloneDataset(ds, false))
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.UploadedAt.Equal(b.UploadedAt) {
			return a.UploadedAt.After(b.UploadedAt)
		}
		return a.ID > b.ID
	})

	if q.Offset >= len(matched) {
		return []entity.Dataset{}, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	return matched, nil
}

func (s *InMemoryStore) Get(ctx context.Context, id int64) (entity.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.datasets[id]
	if !ok {
		return entity.Dataset{}, pkgerror.ErrNotFound
	}

	return cloneDataset(ds, true), nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.datasets[id]; !ok {
		return pkgerror.ErrNotFound
	}

	delete(s.datasets, id)
	delete(s.insights, id)

	return nil
}

func (s *InMemoryStore) SaveInsight(ctx context.Context, in entity.Insight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.insights[in.DatasetID]; exists {
		return nil
	}
	s.insights[in.DatasetID] = in

	return nil
}

func (s *InMemoryStore) GetInsight(ctx context.Context, datasetID int64) (entity.Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	in, ok := s.insights[datasetID]
	if !ok {
		return entity.Insight{}, pkgerror.ErrNotFound
	}

	return in, nil
}

// cloneDataset copies every reference field so callers cannot mutate stored
// records.
func cloneDataset(ds entity.Dataset, withRows bool) entity.Dataset {
	out := ds
	out.AvgFlowrate = cloneFloat(ds.AvgFlowrate)
	out.AvgPressure = cloneFloat(ds.AvgPressure)
	out.AvgTemperature = cloneFloat(ds.AvgTemperature)

	out.TypeDistribution = make(map[string]int, len(ds.TypeDistribution))
	for k, v := range ds.TypeDistribution {
		out.TypeDistribution[k] = v
	}

	out.PreviewRows = append([]entity.EquipmentRow{}, ds.PreviewRows...)
	out.FullRows = nil
	if withRows {
		out.FullRows = append([]entity.EquipmentRow{}, ds.FullRows...)
	}

	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}
