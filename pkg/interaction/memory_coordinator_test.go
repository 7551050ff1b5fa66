package interaction_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/interaction"
)

func TestApplyTransition_IdempotentOnSameKey(t *testing.T) {
	coord := interaction.NewMemoryCoordinator()
	coord.Register(domain.Interaction{InteractionId: "ia-1", State: domain.StateDraft})

	first, err := coord.ApplyTransition(context.Background(), "ia-1", domain.EventPrepare, "key-1")
	require.NoError(t, err)
	require.Equal(t, interaction.OutcomeApplied, first.Outcome)
	require.Equal(t, domain.StateReady, first.AfterState)
	require.Equal(t, uint64(1), first.TransitionIndex)

	second, err := coord.ApplyTransition(context.Background(), "ia-1", domain.EventSend, "key-1")
	require.NoError(t, err)
	require.Equal(t, interaction.OutcomeAlreadyApplied, second.Outcome)
	require.Equal(t, domain.StateReady, second.AfterState, "replays the original after-state regardless of the new event")
	require.Equal(t, uint64(1), second.TransitionIndex)
}

func TestApplyTransition_InvalidTransition(t *testing.T) {
	coord := interaction.NewMemoryCoordinator()
	coord.Register(domain.Interaction{InteractionId: "ia-2", State: domain.StateDraft})

	result, err := coord.ApplyTransition(context.Background(), "ia-2", domain.EventSend, "key-2")
	require.NoError(t, err)
	require.Equal(t, interaction.OutcomeInvalidTransition, result.Outcome)
}

func TestApplyTransition_NotFound(t *testing.T) {
	coord := interaction.NewMemoryCoordinator()
	result, err := coord.ApplyTransition(context.Background(), "missing", domain.EventPrepare, "key-3")
	require.NoError(t, err)
	require.Equal(t, interaction.OutcomeNotFound, result.Outcome)
}
