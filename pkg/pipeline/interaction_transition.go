package pipeline

import (
	"context"

	"github.com/atomledger/provenance-engine/pkg/audit"
	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/interaction"
)

// InteractionTransitionRequest is run_interaction_transition's input.
type InteractionTransitionRequest struct {
	TraceId        string
	InteractionId  domain.InteractionId
	Event          domain.InteractionEvent
	IdempotencyKey string
}

// InteractionTransitionResult is run_interaction_transition's output.
type InteractionTransitionResult struct {
	TraceId string
	Result  interaction.TransitionResult
}

// RunInteractionTransition implements run_interaction_transition: emit
// InteractionTransitionAttempted, delegate to the coordinator, then emit
// InteractionTransitionCompleted on Applied/AlreadyApplied or
// InteractionTransitionRejected on every other outcome.
func RunInteractionTransition(ctx context.Context, deps Deps, coordinator interaction.Coordinator, req InteractionTransitionRequest) (InteractionTransitionResult, error) {
	traceId := resolveTraceId(deps.IdGen, req.TraceId)

	if err := deps.emit(traceId, audit.EventInteractionTransitionAttempted, map[string]interface{}{
		"interaction_id":  req.InteractionId.Value(),
		"event":           string(req.Event),
		"idempotency_key": req.IdempotencyKey,
	}); err != nil {
		return InteractionTransitionResult{}, err
	}

	result, err := coordinator.ApplyTransition(ctx, req.InteractionId, req.Event, req.IdempotencyKey)
	if err != nil {
		return InteractionTransitionResult{}, err
	}

	payload := map[string]interface{}{
		"interaction_id":   req.InteractionId.Value(),
		"outcome":          string(result.Outcome),
		"before_state":     string(result.BeforeState),
		"after_state":      string(result.AfterState),
		"transition_index": result.TransitionIndex,
	}

	eventType := audit.EventInteractionTransitionCompleted
	if result.Outcome != interaction.OutcomeApplied && result.Outcome != interaction.OutcomeAlreadyApplied {
		eventType = audit.EventInteractionTransitionRejected
		payload["error"] = result.Error
	}

	if err := deps.emit(traceId, eventType, payload); err != nil {
		return InteractionTransitionResult{}, err
	}

	return InteractionTransitionResult{TraceId: traceId, Result: result}, nil
}
