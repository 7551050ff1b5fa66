package interaction

import (
	"context"
	"sync"

	"github.com/atomledger/provenance-engine/pkg/domain"
)

type interactionRecord struct {
	interaction     domain.Interaction
	transitionIndex uint64
	appliedKeys     map[string]TransitionResult
}

// MemoryCoordinator is a single-process Coordinator guarded by one mutex
// shared by all interactions; the read-check-write of can_transition happens inside the
// same critical section as the write, so racing callers cannot both
// observe the same before-state (spec.md §4.8).
type MemoryCoordinator struct {
	mu      sync.Mutex
	records map[domain.InteractionId]*interactionRecord
}

func NewMemoryCoordinator() *MemoryCoordinator {
	return &MemoryCoordinator{records: make(map[domain.InteractionId]*interactionRecord)}
}

// Register seeds the coordinator with an interaction's initial state. In
// a real deployment this would be populated by the interaction's creation
// flow, not by the coordinator itself.
func (c *MemoryCoordinator) Register(ia domain.Interaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[ia.InteractionId] = &interactionRecord{interaction: ia, appliedKeys: make(map[string]TransitionResult)}
}

func (c *MemoryCoordinator) ApplyTransition(ctx context.Context, interactionId domain.InteractionId, event domain.InteractionEvent, idempotencyKey string) (TransitionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[interactionId]
	if !ok {
		return TransitionResult{Outcome: OutcomeNotFound}, nil
	}

	if prior, seen := rec.appliedKeys[idempotencyKey]; seen {
		result := prior
		result.Outcome = OutcomeAlreadyApplied
		return result, nil
	}

	before := rec.interaction.State
	next, err := rec.interaction.Apply(event)
	if err != nil {
		return TransitionResult{Outcome: OutcomeInvalidTransition, BeforeState: before, AfterState: before, TransitionIndex: rec.transitionIndex}, nil
	}

	rec.interaction = next
	rec.transitionIndex++

	result := TransitionResult{
		Outcome:         OutcomeApplied,
		BeforeState:     before,
		AfterState:      next.State,
		TransitionIndex: rec.transitionIndex,
	}
	rec.appliedKeys[idempotencyKey] = result
	return result, nil
}
