package decision

import (
	"context"
	"sort"
	"sync"

	"github.com/atomledger/provenance-engine/pkg/domain"
)

// MemoryStore is an in-memory Store guarded by a single mutex.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[domain.DecisionId]domain.DecisionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[domain.DecisionId]domain.DecisionRecord)}
}

func (s *MemoryStore) Put(ctx context.Context, record domain.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.DecisionId] = record
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id domain.DecisionId) (domain.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return domain.DecisionRecord{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]domain.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DecisionRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt == nil || out[j].CreatedAt == nil {
			return out[i].DecisionId < out[j].DecisionId
		}
		return out[i].CreatedAt.After(*out[j].CreatedAt)
	})
	if limit >= 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// ListByTrace returns every decision recorded under traceId, ordered by
// decision_id ascending.
func (s *MemoryStore) ListByTrace(ctx context.Context, traceId domain.TraceId) ([]domain.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.DecisionRecord
	for _, r := range s.records {
		if r.TraceId == traceId {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DecisionId < out[j].DecisionId })
	return out, nil
}
