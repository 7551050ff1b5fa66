package indexbuild_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/embedding"
	"github.com/atomledger/provenance-engine/pkg/ids"
	"github.com/atomledger/provenance-engine/pkg/indexbuild"
)

func TestRun_IndexesThenSkipsOnDrift(t *testing.T) {
	store := indexbuild.NewMemoryRunStore()
	index := embedding.NewMemoryIndex()
	provider := embedding.NewDeterministicStubProvider(16)
	clock := ids.NewFixedClock(time.Unix(0, 0).UTC())

	atoms := []domain.ExperienceAtom{
		{AtomId: "atom-2", Claim: "second claim", Verified: true},
		{AtomId: "atom-1", Claim: "first claim", Verified: true},
	}

	result, err := indexbuild.Run(store, index, provider, clock, indexbuild.ScopeAtoms, "prov-1", "model-1", "v1", indexbuild.Inputs{Atoms: atoms})
	require.NoError(t, err)
	require.Equal(t, domain.IndexRunCompleted, result.Run.Status)
	require.Len(t, result.IndexedArtifacts, 2)
	require.Equal(t, "atom-1", result.IndexedArtifacts[0].ArtifactId, "stable iteration order: atoms sorted by id")

	second, err := indexbuild.Run(store, index, provider, clock, indexbuild.ScopeAtoms, "prov-1", "model-1", "v1", indexbuild.Inputs{Atoms: atoms})
	require.NoError(t, err)
	require.Empty(t, second.IndexedArtifacts, "unchanged canonical text is skipped on re-run")

	third, err := indexbuild.Run(store, index, provider, clock, indexbuild.ScopeAtoms, "prov-1", "model-2", "v1", indexbuild.Inputs{Atoms: atoms})
	require.NoError(t, err)
	require.Len(t, third.IndexedArtifacts, 2, "changing model_id invalidates drift lookup, forcing re-index")
}

func TestRun_NullProviderSkipsSilently(t *testing.T) {
	store := indexbuild.NewMemoryRunStore()
	index := embedding.NewMemoryIndex()
	provider := embedding.NewNullProvider()
	clock := ids.NewFixedClock(time.Unix(0, 0).UTC())

	atoms := []domain.ExperienceAtom{{AtomId: "atom-1", Claim: "claim", Verified: true}}

	result, err := indexbuild.Run(store, index, provider, clock, indexbuild.ScopeAtoms, "prov-1", "model-1", "v1", indexbuild.Inputs{Atoms: atoms})
	require.NoError(t, err)
	require.Empty(t, result.IndexedArtifacts)
}
