package audit

import (
	"fmt"
	"sort"
	"sync"

	"github.com/atomledger/provenance-engine/pkg/canonicalize"
	"github.com/atomledger/provenance-engine/pkg/hashing"
)

// AuditLog is an append-only, per-trace hash-chained event log.
type AuditLog interface {
	Append(event Event) (Event, error)
	Query(traceId string) ([]Event, error)
	ListTraceIds() ([]string, error)
}

// VerifyResult is the outcome of VerifyAuditChain.
type VerifyResult struct {
	Valid            bool
	FirstInvalidIndex int64 // -1 when Valid
	Error            string
}

// computeEventHash implements spec.md §4.7 step 3: sha256_hex over the
// canonical JSON of the hash-relevant fields concatenated with
// previousHash.
func computeEventHash(event Event, previousHash string) (string, error) {
	canon, err := canonicalize.JCS(event.hashable())
	if err != nil {
		return "", fmt.Errorf("audit: canonicalize event: %w", err)
	}
	buf := append(append([]byte(nil), canon...), []byte(previousHash)...)
	return hashing.SHA256Hex(buf), nil
}

// VerifyAuditChain walks events left to right from genesis, recomputing
// and comparing each event_hash and previous_hash. Any mutation,
// reordering, deletion, or insertion is detected at the first affected
// index.
func VerifyAuditChain(events []Event) VerifyResult {
	previousHash := hashing.GenesisHash
	for i, event := range events {
		if event.PreviousHash != previousHash {
			return VerifyResult{Valid: false, FirstInvalidIndex: int64(i), Error: "previous_hash mismatch"}
		}
		computed, err := computeEventHash(event, previousHash)
		if err != nil {
			return VerifyResult{Valid: false, FirstInvalidIndex: int64(i), Error: err.Error()}
		}
		if computed != event.EventHash {
			return VerifyResult{Valid: false, FirstInvalidIndex: int64(i), Error: "event_hash mismatch"}
		}
		previousHash = event.EventHash
	}
	return VerifyResult{Valid: true, FirstInvalidIndex: -1}
}

// MemoryAuditLog is an in-memory AuditLog guarded by a single mutex; each
// trace's chain is appended to independently but serialized through the
// same lock, matching the per-trace-lock contract of spec.md §4.7 step 1.
type MemoryAuditLog struct {
	mu     sync.Mutex
	events map[string][]Event
}

func NewMemoryAuditLog() *MemoryAuditLog {
	return &MemoryAuditLog{events: make(map[string][]Event)}
}

func (l *MemoryAuditLog) Append(event Event) (Event, error) {
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

	l.events[event.TraceId] = append(trace, event)
	return event, nil
}

func (l *MemoryAuditLog) Query(traceId string) ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	trace := l.events[traceId]
	out := make([]Event, len(trace))
	copy(out, trace)
	return out, nil
}

func (l *MemoryAuditLog) ListTraceIds() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.events))
	for id := range l.events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
