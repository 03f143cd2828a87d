package store

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
)

// MemoryStore keeps estimate records in process memory. It backs ad-hoc
// runs where nothing should outlive the invocation, and the shared store
// test suite.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]EstimateRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{records: make(map[string]EstimateRecord)}
}

func (s *MemoryStore) SaveEstimate(_ context.Context, rec *EstimateRecord) error {
	stampRecord(rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = *rec
	return nil
}

func (s *MemoryStore) GetEstimate(_ context.Context, id string) (*EstimateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, eris.Errorf("estimate not found: %s", id)
	}
	return &rec, nil
}

func (s *MemoryStore) ListEstimates(_ context.Context, filter EstimateFilter) ([]EstimateSummary, error) {
	s.mu.RLock()
	var rows []EstimateSummary
	for _, rec := range s.records {
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if filter.Client != "" && rec.Client != filter.Client {
			continue
		}
		rows = append(rows, rec.summaryRow())
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(rows) {
			return nil, nil
		}
		rows = rows[filter.Offset:]
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *MemoryStore) DeleteEstimate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return eris.Errorf("estimate not found: %s", id)
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
