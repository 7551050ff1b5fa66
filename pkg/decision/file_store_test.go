package decision_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atomledger/provenance-engine/pkg/decision"
	"github.com/atomledger/provenance-engine/pkg/domain"
)

func TestFileStore_PutGetSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	ctx := context.Background()

	first, err := decision.NewFileStore(path)
	require.NoError(t, err)

	record := domain.DecisionRecord{
		DecisionId:    "decision-1",
		TraceId:       "trace-1",
		ArtifactId:    "match-report-opp-1",
		OpportunityId: "opp-1",
		Version:       domain.DecisionRecordVersion,
	}
	require.NoError(t, first.Put(ctx, record))

	reopened, err := decision.NewFileStore(path)
	require.NoError(t, err)

	got, err := reopened.Get(ctx, "decision-1")
	require.NoError(t, err)
	require.Equal(t, record, got)

	byTrace, err := reopened.ListByTrace(ctx, "trace-1")
	require.NoError(t, err)
	require.Len(t, byTrace, 1)
}

func TestFileStore_GetMissingIsErrNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	store, err := decision.NewFileStore(path)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, decision.ErrNotFound)
}

func TestFileStore_LaterPutShadowsEarlierOnReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	ctx := context.Background()

	store, err := decision.NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, domain.DecisionRecord{DecisionId: "decision-1", TraceId: "trace-1", Version: "0.1"}))
	require.NoError(t, store.Put(ctx, domain.DecisionRecord{DecisionId: "decision-1", TraceId: "trace-1", Version: "0.2"}))

	reopened, err := decision.NewFileStore(path)
	require.NoError(t, err)

	got, err := reopened.Get(ctx, "decision-1")
	require.NoError(t, err)
	require.Equal(t, "0.2", got.Version)
}
