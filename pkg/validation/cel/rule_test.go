package cel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/validation"
)

func matchReportEnvelope(score float64) validation.ArtifactEnvelope {
	report := domain.MatchReport{
		OpportunityId: domain.OpportunityId("opp-1"),
		OverallScore:  score,
		RequirementMatches: []domain.RequirementMatch{
			{RequirementText: "Go experience", Matched: true, ContributingAtomId: domain.AtomId("atom-1"), EvidenceTokens: []string{"go"}},
		},
	}
	return validation.ArtifactEnvelope{
		ArtifactId: "match-report-opp-1",
		Artifact:   validation.ArtifactView{MatchReport: &validation.MatchReportView{Report: &report}},
	}
}

func TestRegistry_RuleSatisfiedProducesNoFinding(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	rule, err := reg.Rule(Spec{
		Id:         "CEL-SCORE-MIN",
		Version:    "1.0",
		Expression: `match_report != null && match_report.overall_score >= 0.5`,
		Severity:   validation.SeverityWarn,
		Message:    "overall_score below 0.5",
	})
	require.NoError(t, err)

	findings := rule.Evaluate(matchReportEnvelope(0.8), validation.Context{})
	require.Empty(t, findings)
}

func TestRegistry_RuleViolatedProducesFindingAtConfiguredSeverity(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	rule, err := reg.Rule(Spec{
		Id:         "CEL-SCORE-MIN",
		Version:    "1.0",
		Expression: `match_report != null && match_report.overall_score >= 0.5`,
		Severity:   validation.SeverityWarn,
		Message:    "overall_score below 0.5",
	})
	require.NoError(t, err)

	findings := rule.Evaluate(matchReportEnvelope(0.1), validation.Context{})
	require.Len(t, findings, 1)
	require.Equal(t, validation.SeverityWarn, findings[0].Severity)
	require.Equal(t, "CEL-SCORE-MIN", findings[0].RuleId)
}

func TestRegistry_InvalidExpressionFailsAtRegistration(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	_, err = reg.Rule(Spec{
		Id:         "CEL-BROKEN",
		Expression: `match_report.overall_score >=`,
	})
	require.Error(t, err)
}

func TestRegistry_ProgramsAreCached(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	expr := `match_report != null && match_report.overall_score > 0`
	_, err = reg.compile(expr)
	require.NoError(t, err)

	require.Len(t, reg.progs, 1)

	_, err = reg.compile(expr)
	require.NoError(t, err)
	require.Len(t, reg.progs, 1)
}

func TestRegistry_AbsentTokenIRViolatesNotNullCheck(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	rule, err := reg.Rule(Spec{
		Id:         "CEL-REQUIRES-TOKEN-IR",
		Expression: `token_ir != null`,
		Severity:   validation.SeverityFail,
		Message:    "token_ir missing",
	})
	require.NoError(t, err)

	findings := rule.Evaluate(matchReportEnvelope(0.5), validation.Context{})
	require.Len(t, findings, 1)
	require.Equal(t, validation.SeverityFail, findings[0].Severity)
}
