// Package interaction implements the interaction coordinator of spec.md
// §4.8: at-most-once, idempotent state transitions over the Interaction
// state machine.
package interaction

import (
	"context"

	"github.com/atomledger/provenance-engine/pkg/domain"
)

// Outcome is the result kind of an apply_transition call.
type Outcome string

const (
	OutcomeApplied          Outcome = "Applied"
	OutcomeAlreadyApplied   Outcome = "AlreadyApplied"
	OutcomeInvalidTransition Outcome = "InvalidTransition"
	OutcomeNotFound         Outcome = "NotFound"
	OutcomeConflict         Outcome = "Conflict"
	OutcomeBackendError     Outcome = "BackendError"
)

// TransitionResult is the outcome of one apply_transition call.
type TransitionResult struct {
	Outcome         Outcome
	BeforeState     domain.InteractionState
	AfterState      domain.InteractionState
	TransitionIndex uint64
	Error           string
}

// Coordinator applies events to interactions with at-most-once semantics
// per idempotency key and a monotonic per-interaction transition index.
type Coordinator interface {
	ApplyTransition(ctx context.Context, interactionId domain.InteractionId, event domain.InteractionEvent, idempotencyKey string) (TransitionResult, error)
}
