package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atomledger/provenance-engine/pkg/decision"
	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/pipeline"
	"github.com/atomledger/provenance-engine/pkg/validation"
)

func TestRecordMatchDecision_DerivesCountsAndTopRuleIds(t *testing.T) {
	deps := fixedDeps()
	store := decision.NewMemoryStore()

	report := domain.MatchReport{
		OpportunityId: "opp-1",
		MatchedAtoms:  []domain.AtomId{"atom-a"},
		RequirementMatches: []domain.RequirementMatch{
			{RequirementText: "req 1", Matched: true, ContributingAtomId: "atom-a", EvidenceTokens: []string{"go"}},
		},
		OverallScore: 0.9,
	}
	validationReport := validation.ValidationReport{
		Status: validation.StatusRejected,
		Findings: []validation.Finding{
			{RuleId: "EVID-001", Severity: validation.SeverityFail},
			{RuleId: "SCORE-001", Severity: validation.SeverityWarn},
		},
	}

	record, err := pipeline.RecordMatchDecision(context.Background(), deps, store, pipeline.RecordDecisionRequest{
		DecisionId:       "dec-1",
		TraceId:          "trace-1",
		ArtifactId:       pipeline.MatchReportArtifactId(report.OpportunityId),
		MatchReport:      report,
		ValidationReport: validationReport,
	})
	require.NoError(t, err)
	require.Equal(t, 1, record.ValidationSummary.FailCount)
	require.Equal(t, 1, record.ValidationSummary.WarnCount)
	require.Equal(t, []string{"EVID-001", "SCORE-001"}, record.ValidationSummary.TopRuleIds)

	stored, err := store.Get(context.Background(), "dec-1")
	require.NoError(t, err)
	require.Equal(t, record, stored)

	events, err := deps.Audit.Query("trace-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
}
