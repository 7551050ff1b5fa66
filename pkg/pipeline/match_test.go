package pipeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atomledger/provenance-engine/pkg/audit"
	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/ids"
	"github.com/atomledger/provenance-engine/pkg/matching"
	"github.com/atomledger/provenance-engine/pkg/pipeline"
	"github.com/atomledger/provenance-engine/pkg/storage/memory"
	"github.com/atomledger/provenance-engine/pkg/validation"
	"github.com/atomledger/provenance-engine/pkg/validation/rules"
)

func testConstitution() validation.Constitution {
	return validation.NewBuilder("core", "1.0").
		With(rules.Schema001()).
		With(rules.Evid001()).
		With(rules.Score001()).
		Build()
}

func fixedDeps() pipeline.Deps {
	fixed, _ := time.Parse(time.RFC3339, "2026-01-01T00:00:00Z")
	return pipeline.Deps{
		IdGen: ids.NewCounterGenerator(),
		Clock: ids.NewFixedClock(fixed),
		Audit: audit.NewMemoryAuditLog(),
	}
}

func TestRunMatch_HappyLexicalMatch(t *testing.T) {
	deps := fixedDeps()

	atoms := memory.NewAtomRepository()
	atoms.Upsert(domain.ExperienceAtom{AtomId: "atom-a", Title: "Governance lead", Claim: "led governance review", Tags: []string{"architecture", "governance"}, Verified: true})
	atoms.Upsert(domain.ExperienceAtom{AtomId: "atom-b", Title: "Systems engineer", Claim: "built systems in cpp20", Tags: []string{"cpp20", "systems"}, Verified: true})

	opportunities := memory.NewOpportunityRepository()
	opp := domain.Opportunity{
		OpportunityId: "opp-1",
		Requirements: []domain.Requirement{
			{Text: "C++20", Tags: []string{"cpp", "cpp20"}, Required: true},
			{Text: "Architecture experience", Tags: []string{"architecture"}, Required: true},
		},
	}
	opportunities.Upsert(opp)

	result, err := pipeline.RunMatch(deps, atoms, opportunities, testConstitution(), nil, nil, pipeline.MatchRequest{
		OpportunityId: "opp-1",
		Config:        matching.DefaultConfig,
	})
	require.NoError(t, err)
	require.Len(t, result.MatchReport.MatchedAtoms, 2)
	require.Greater(t, result.MatchReport.OverallScore, 0.0)
	require.Equal(t, validation.StatusAccepted, result.ValidationReport.Status)

	events, err := deps.Audit.Query(result.TraceId)
	require.NoError(t, err)
	require.Len(t, events, 4)

	wantTypes := []audit.EventType{audit.EventRunStarted, audit.EventMatchCompleted, audit.EventValidationCompleted, audit.EventRunCompleted}
	for i, ev := range events {
		require.Equal(t, wantTypes[i], ev.EventType)
		require.Equal(t, uint64(i), ev.Idx)
	}

	verify := audit.VerifyAuditChain(events)
	require.True(t, verify.Valid)
}

func TestRunMatch_OpportunityNotFound(t *testing.T) {
	deps := fixedDeps()
	atoms := memory.NewAtomRepository()
	opportunities := memory.NewOpportunityRepository()

	_, err := pipeline.RunMatch(deps, atoms, opportunities, testConstitution(), nil, nil, pipeline.MatchRequest{
		OpportunityId: "missing",
		Config:        matching.DefaultConfig,
	})
	require.Error(t, err)
}
