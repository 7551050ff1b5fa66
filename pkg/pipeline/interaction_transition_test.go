package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/interaction"
	"github.com/atomledger/provenance-engine/pkg/pipeline"
)

func TestRunInteractionTransition_IdempotentOnSameKey(t *testing.T) {
	deps := fixedDeps()
	coordinator := interaction.NewMemoryCoordinator()
	coordinator.Register(domain.Interaction{InteractionId: "ia-1", State: domain.StateDraft})

	first, err := pipeline.RunInteractionTransition(context.Background(), deps, coordinator, pipeline.InteractionTransitionRequest{
		InteractionId:  "ia-1",
		Event:          domain.EventPrepare,
		IdempotencyKey: "K",
	})
	require.NoError(t, err)
	require.Equal(t, interaction.OutcomeApplied, first.Result.Outcome)
	require.Equal(t, domain.StateReady, first.Result.AfterState)
	require.Equal(t, uint64(1), first.Result.TransitionIndex)

	second, err := pipeline.RunInteractionTransition(context.Background(), deps, coordinator, pipeline.InteractionTransitionRequest{
		TraceId:        first.TraceId,
		InteractionId:  "ia-1",
		Event:          domain.EventPrepare,
		IdempotencyKey: "K",
	})
	require.NoError(t, err)
	require.Equal(t, interaction.OutcomeAlreadyApplied, second.Result.Outcome)
	require.Equal(t, domain.StateReady, second.Result.AfterState)
	require.Equal(t, uint64(1), second.Result.TransitionIndex)
}
