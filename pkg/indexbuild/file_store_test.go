package indexbuild_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/indexbuild"
)

func TestFileRunStore_DriftDetectionSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index-runs.json")

	first, err := indexbuild.NewFileRunStore(path)
	require.NoError(t, err)

	runId := first.NextIndexRunId()
	require.NoError(t, first.SaveEntry(domain.IndexEntry{
		RunId:        runId,
		ArtifactType: domain.ArtifactAtom,
		ArtifactId:   "atom-a",
		SourceHash:   "hash-v1",
	}, "acme", "embed-v2", "v1"))

	reopened, err := indexbuild.NewFileRunStore(path)
	require.NoError(t, err)

	hash, ok := reopened.LastSourceHash("atom-a", domain.ArtifactAtom, "acme", "embed-v2", "v1")
	require.True(t, ok)
	require.Equal(t, "hash-v1", hash)

	_, ok = reopened.LastSourceHash("atom-a", domain.ArtifactAtom, "acme", "embed-v3", "v1")
	require.False(t, ok)
}

func TestFileRunStore_RunIdCounterPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index-runs.json")

	first, err := indexbuild.NewFileRunStore(path)
	require.NoError(t, err)
	require.Equal(t, domain.RunId("run-1"), first.NextIndexRunId())

	reopened, err := indexbuild.NewFileRunStore(path)
	require.NoError(t, err)
	require.Equal(t, domain.RunId("run-2"), reopened.NextIndexRunId())
}
