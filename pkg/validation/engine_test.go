package validation_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/hashing"
	"github.com/atomledger/provenance-engine/pkg/validation"
	"github.com/atomledger/provenance-engine/pkg/validation/rules"
)

func testConstitution() validation.Constitution {
	return validation.NewBuilder("core", "1.0").
		With(rules.Schema001()).
		With(rules.Evid001()).
		With(rules.Score001()).
		With(rules.Tok001()).
		With(rules.Tok002()).
		With(rules.Tok003()).
		With(rules.Tok004()).
		With(rules.Tok005()).
		Build()
}

func TestValidate_HappyMatchReport(t *testing.T) {
	report := &domain.MatchReport{
		OverallScore: 0.8,
		RequirementMatches: []domain.RequirementMatch{
			{RequirementText: "Go", Matched: true, BestScore: 0.9, ContributingAtomId: domain.AtomId("atom-1"), EvidenceTokens: []string{"go"}},
		},
	}
	envelope := validation.ArtifactEnvelope{
		ArtifactId: "report-1",
		Artifact:   validation.ArtifactView{MatchReport: &validation.MatchReportView{Report: report}},
	}
	out := validation.Validate(testConstitution(), envelope, validation.Context{ConstitutionId: "core", ConstitutionVersion: "1.0", TraceId: "trace-1"})
	require.Equal(t, validation.StatusAccepted, out.Status)
	require.Empty(t, out.Findings)
}

func TestValidate_SchemaBlock(t *testing.T) {
	envelope := validation.ArtifactEnvelope{
		ArtifactId: "report-2",
		Artifact:   validation.ArtifactView{MatchReport: nil},
	}
	out := validation.Validate(testConstitution(), envelope, validation.Context{TraceId: "trace-2"})
	require.Equal(t, validation.StatusBlocked, out.Status)
	require.Len(t, out.Findings, 1)
	require.Equal(t, "SCHEMA-001", out.Findings[0].RuleId)
}

func TestValidate_OverrideAccepted(t *testing.T) {
	envelope := validation.ArtifactEnvelope{
		ArtifactId: "report-3",
		Artifact:   validation.ArtifactView{MatchReport: nil},
	}
	override := &validation.ConstitutionOverrideRequest{
		RuleId:         "SCHEMA-001",
		OperatorId:     "op-1",
		Reason:         "manual review completed",
		PayloadHash:    hashing.SHA256HexString("report-3"),
		BindingHashAlg: "sha256",
	}
	base := validation.Validate(testConstitution(), envelope, validation.Context{TraceId: "trace-3"})
	out := validation.ApplyOverride(base, override)
	require.Equal(t, validation.StatusOverridden, out.Status)
	require.Len(t, out.Findings, 1, "override is additive, the Block finding stays")
}

func TestValidate_OverrideRejectedByBinding(t *testing.T) {
	envelope := validation.ArtifactEnvelope{
		ArtifactId: "report-4",
		Artifact:   validation.ArtifactView{MatchReport: nil},
	}
	override := &validation.ConstitutionOverrideRequest{
		RuleId:         "SCHEMA-001",
		OperatorId:     "op-1",
		Reason:         "wrong hash",
		PayloadHash:    hashing.SHA256HexString("not-the-artifact-id"),
		BindingHashAlg: "sha256",
	}
	base := validation.Validate(testConstitution(), envelope, validation.Context{TraceId: "trace-4"})
	out := validation.ApplyOverride(base, override)
	require.Equal(t, validation.StatusBlocked, out.Status, "override with non-binding hash is silently inert")
}

func TestValidate_FindingOrder(t *testing.T) {
	report := &domain.MatchReport{
		OverallScore: 0,
		RequirementMatches: []domain.RequirementMatch{
			{RequirementText: "Go", Matched: true, BestScore: 0.5, ContributingAtomId: domain.AtomId("atom-1"), EvidenceTokens: nil},
		},
	}
	envelope := validation.ArtifactEnvelope{
		ArtifactId: "report-5",
		Artifact:   validation.ArtifactView{MatchReport: &validation.MatchReportView{Report: report}},
	}
	out := validation.Validate(testConstitution(), envelope, validation.Context{TraceId: "trace-5"})
	require.Equal(t, validation.StatusRejected, out.Status)
	require.Len(t, out.Findings, 2)
	require.Equal(t, "EVID-001", out.Findings[0].RuleId)
	require.Equal(t, "SCORE-001", out.Findings[1].RuleId)
}
