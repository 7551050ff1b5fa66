package rules

import (
	"fmt"

	"github.com/atomledger/provenance-engine/pkg/validation"
)

// Evid001 is Fail/MatchReport: every matched requirement must carry a
// contributing atom and at least one evidence token.
func Evid001() validation.Rule {
	return validation.Rule{
		Id:          "EVID-001",
		Version:     "1.0",
		Description: "matched requirements must carry evidence",
		Evaluate: func(envelope validation.ArtifactEnvelope, ctx validation.Context) []validation.Finding {
			view := envelope.Artifact.MatchReport
			if view == nil || view.Report == nil {
				return nil
			}
			var findings []validation.Finding
			for _, rm := range view.Report.RequirementMatches {
				if !rm.Matched {
					continue
				}
				if rm.ContributingAtomId.Value() == "" || len(rm.EvidenceTokens) == 0 {
					findings = append(findings, fail("EVID-001", fmt.Sprintf("matched requirement %q missing evidence", rm.RequirementText)))
				}
			}
			return findings
		},
	}
}

// Score001 is Warn/MatchReport: flags a zero overall score when there was
// at least one requirement to evaluate.
func Score001() validation.Rule {
	return validation.Rule{
		Id:          "SCORE-001",
		Version:     "1.0",
		Description: "zero overall score with at least one requirement",
		Evaluate: func(envelope validation.ArtifactEnvelope, ctx validation.Context) []validation.Finding {
			view := envelope.Artifact.MatchReport
			if view == nil || view.Report == nil {
				return nil
			}
			if view.Report.OverallScore == 0 && len(view.Report.RequirementMatches) > 0 {
				return []validation.Finding{warn("SCORE-001", "overall_score is zero with requirements present")}
			}
			return nil
		},
	}
}
