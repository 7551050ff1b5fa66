package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/atomledger/provenance-engine/pkg/hashing"
)

// FileAuditLog is a JSON-Lines-persisted AuditLog: every Append appends
// one line to the backing file, and the in-process cache is rebuilt from
// the file at construction time. This is the CLI's audit log — each
// invocation is a fresh process, so the hash chain has to survive on
// disk between `match`/`validate` runs and a later `audit trace` call.
type FileAuditLog struct {
	mu     sync.Mutex
	path   string
	events map[string][]Event
}

// NewFileAuditLog opens (creating if absent) the JSON-Lines file at path
// and replays it into memory.
func NewFileAuditLog(path string) (*FileAuditLog, error) {
	l := &FileAuditLog{path: path, events: make(map[string][]Event)}

	f, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("audit: parse %s: %w", path, err)
		}
		l.events[event.TraceId] = append(l.events[event.TraceId], event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: read %s: %w", path, err)
	}

	return l, nil
}

func (l *FileAuditLog) Append(event Event) (Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	trace := l.events[event.TraceId]
	idx := uint64(len(trace))
	previousHash := hashing.GenesisHash
	if idx > 0 {
		previousHash = trace[idx-1].EventHash
	}

	event.Idx = idx
	event.PreviousHash = previousHash
	hash, err := computeEventHash(event, previousHash)
	if err != nil {
		return Event{}, err
	}
	event.EventHash = hash

	line, err := json.Marshal(event)
	if err != nil {
		return Event{}, fmt.Errorf("audit: marshal event: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return Event{}, fmt.Errorf("audit: open %s: %w", l.path, err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return Event{}, fmt.Errorf("audit: append %s: %w", l.path, err)
	}

	l.events[event.TraceId] = append(trace, event)
	return event, nil
}

func (l *FileAuditLog) Query(traceId string) ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	trace := l.events[traceId]
	out := make([]Event, len(trace))
	copy(out, trace)
	return out, nil
}

func (l *FileAuditLog) ListTraceIds() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.events))
	for id := range l.events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
