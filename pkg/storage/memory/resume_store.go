package memory

import (
	"sort"
	"sync"

	"github.com/atomledger/provenance-engine/pkg/domain"
)

// ResumeStore is an in-memory ResumeStore: an AtomRepository-shaped store
// plus get_by_hash for ingest-time dedup.
type ResumeStore struct {
	mu      sync.RWMutex
	resumes map[domain.ResumeId]domain.IngestedResume
	byHash  map[string]domain.ResumeId
}

func NewResumeStore() *ResumeStore {
	return &ResumeStore{
		resumes: make(map[domain.ResumeId]domain.IngestedResume),
		byHash:  make(map[string]domain.ResumeId),
	}
}

func (s *ResumeStore) Upsert(r domain.IngestedResume) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumes[r.ResumeId] = r
	s.byHash[r.ResumeHash] = r.ResumeId
}

func (s *ResumeStore) Get(id domain.ResumeId) (domain.IngestedResume, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resumes[id]
	return r, ok
}

func (s *ResumeStore) GetByHash(hash string) (domain.IngestedResume, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHash[hash]
	if !ok {
		return domain.IngestedResume{}, false
	}
	r, ok := s.resumes[id]
	return r, ok
}

func (s *ResumeStore) ListAll() []domain.IngestedResume {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.IngestedResume, 0, len(s.resumes))
	for _, r := range s.resumes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ResumeId.Value() < out[j].ResumeId.Value() })
	return out
}
