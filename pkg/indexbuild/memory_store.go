package indexbuild

import (
	"fmt"
	"sync"

	"github.com/atomledger/provenance-engine/pkg/domain"
)

type driftKey struct {
	artifactId    string
	artifactType  domain.ArtifactType
	providerId    string
	modelId       string
	promptVersion string
}

// MemoryRunStore is an in-memory RunStore: a monotonic run-id counter plus
// a drift table keyed on all five fields spec.md §4.6 requires.
type MemoryRunStore struct {
	mu      sync.Mutex
	counter uint64
	runs    map[domain.RunId]domain.IndexRun
	entries map[driftKey]domain.IndexEntry
}

func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{
		runs:    make(map[domain.RunId]domain.IndexRun),
		entries: make(map[driftKey]domain.IndexEntry),
	}
}

func (s *MemoryRunStore) NextIndexRunId() domain.RunId {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return domain.RunId(fmt.Sprintf("run-%d", s.counter))
}

func (s *MemoryRunStore) SaveRun(run domain.IndexRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.RunId] = run
	return nil
}

func (s *MemoryRunStore) LastSourceHash(artifactId string, artifactType domain.ArtifactType, providerId, modelId, promptVersion string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[driftKey{artifactId, artifactType, providerId, modelId, promptVersion}]
	if !ok {
		return "", false
	}
	return entry.SourceHash, true
}

func (s *MemoryRunStore) SaveEntry(entry domain.IndexEntry, providerId, modelId, promptVersion string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[driftKey{entry.ArtifactId, entry.ArtifactType, providerId, modelId, promptVersion}] = entry
	return nil
}
