package decision

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/atomledger/provenance-engine/pkg/domain"
)

// FileStore is a JSON-Lines-persisted Store: each Put appends one line to
// the backing file (later lines for the same decision_id shadow earlier
// ones on replay), so a CLI's `match` invocation and a later `decision
// get`/`decision list` invocation see the same records across processes.
type FileStore struct {
	mu      sync.RWMutex
	path    string
	records map[domain.DecisionId]domain.DecisionRecord
}

// NewFileStore opens (creating if absent) the JSON-Lines file at path and
// replays it into memory.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, records: make(map[domain.DecisionId]domain.DecisionRecord)}

	f, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("decision: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record domain.DecisionRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("decision: parse %s: %w", path, err)
		}
		s.records[record.DecisionId] = record
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("decision: read %s: %w", path, err)
	}

	return s, nil
}

func (s *FileStore) Put(ctx context.Context, record domain.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("decision: marshal record: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("decision: open %s: %w", s.path, err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("decision: append %s: %w", s.path, err)
	}

	s.records[record.DecisionId] = record
	return nil
}

func (s *FileStore) Get(ctx context.Context, id domain.DecisionId) (domain.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return domain.DecisionRecord{}, ErrNotFound
	}
	return r, nil
}

func (s *FileStore) List(ctx context.Context, limit int) ([]domain.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DecisionRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DecisionId < out[j].DecisionId })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *FileStore) ListByTrace(ctx context.Context, traceId domain.TraceId) ([]domain.DecisionRecord, error) {
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
