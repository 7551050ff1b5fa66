package indexbuild

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/atomledger/provenance-engine/pkg/domain"
)

// driftKeySnapshot mirrors driftKey with exported fields: driftKey's own
// fields are unexported (package-private by design), so the snapshot
// needs its own copy to round-trip through JSON.
type driftKeySnapshot struct {
	ArtifactId    string            `json:"artifact_id"`
	ArtifactType  domain.ArtifactType `json:"artifact_type"`
	ProviderId    string            `json:"provider_id"`
	ModelId       string            `json:"model_id"`
	PromptVersion string            `json:"prompt_version"`
}

// driftEntry is a driftKey/IndexEntry pair in a form JSON can round-trip
// (map keys aren't arbitrary structs in JSON, so the snapshot flattens to
// a slice).
type driftEntry struct {
	Key   driftKeySnapshot  `json:"key"`
	Entry domain.IndexEntry `json:"entry"`
}

type fileSnapshot struct {
	Counter uint64             `json:"counter"`
	Runs    []domain.IndexRun  `json:"runs"`
	Entries []driftEntry       `json:"entries"`
}

// FileRunStore is a JSON-snapshot-persisted RunStore: every mutation
// rewrites the whole snapshot file, which is fine at the CLI's scale (a
// handful of index-build invocations, not a hot path) and lets
// drift detection actually see across-process history, the way spec.md
// §4.6's "compares its source hash to the last completed run" requires
// over more than one CLI invocation.
type FileRunStore struct {
	mu      sync.Mutex
	path    string
	counter uint64
	runs    map[domain.RunId]domain.IndexRun
	entries map[driftKey]domain.IndexEntry
}

// NewFileRunStore opens (creating if absent) the snapshot file at path.
func NewFileRunStore(path string) (*FileRunStore, error) {
	s := &FileRunStore{
		path:    path,
		runs:    make(map[domain.RunId]domain.IndexRun),
		entries: make(map[driftKey]domain.IndexEntry),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("indexbuild: read %s: %w", path, err)
	}
	if len(data) == 0 {
		return s, nil
	}

	var snap fileSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("indexbuild: parse %s: %w", path, err)
	}
	s.counter = snap.Counter
	for _, run := range snap.Runs {
		s.runs[run.RunId] = run
	}
	for _, e := range snap.Entries {
		key := driftKey{
			artifactId:    e.Key.ArtifactId,
			artifactType:  e.Key.ArtifactType,
			providerId:    e.Key.ProviderId,
			modelId:       e.Key.ModelId,
			promptVersion: e.Key.PromptVersion,
		}
		s.entries[key] = e.Entry
	}
	return s, nil
}

func (s *FileRunStore) persistLocked() error {
	snap := fileSnapshot{Counter: s.counter}
	for _, run := range s.runs {
		snap.Runs = append(snap.Runs, run)
	}
	for key, entry := range s.entries {
		snap.Entries = append(snap.Entries, driftEntry{
			Key: driftKeySnapshot{
				ArtifactId:    key.artifactId,
				ArtifactType:  key.artifactType,
				ProviderId:    key.providerId,
				ModelId:       key.modelId,
				PromptVersion: key.promptVersion,
			},
			Entry: entry,
		})
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("indexbuild: marshal snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("indexbuild: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("indexbuild: rename %s: %w", tmp, err)
	}
	return nil
}

func (s *FileRunStore) NextIndexRunId() domain.RunId {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	id := domain.RunId(fmt.Sprintf("run-%d", s.counter))
	_ = s.persistLocked()
	return id
}

func (s *FileRunStore) SaveRun(run domain.IndexRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.RunId] = run
	return s.persistLocked()
}

func (s *FileRunStore) LastSourceHash(artifactId string, artifactType domain.ArtifactType, providerId, modelId, promptVersion string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[driftKey{artifactId, artifactType, providerId, modelId, promptVersion}]
	if !ok {
		return "", false
	}
	return entry.SourceHash, true
}

func (s *FileRunStore) SaveEntry(entry domain.IndexEntry, providerId, modelId, promptVersion string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[driftKey{entry.ArtifactId, entry.ArtifactType, providerId, modelId, promptVersion}] = entry
	return s.persistLocked()
}
