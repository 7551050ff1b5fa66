// Package rules implements the constitutional validation rule set of
// spec.md §4.5 as validation.Rule values.
package rules

import (
	"fmt"

	"github.com/atomledger/provenance-engine/pkg/validation"
)

// Schema001 is Block/MatchReport: flags a null view, a wrong view type, or
// an internally inconsistent MatchReport.
func Schema001() validation.Rule {
	return validation.Rule{
		Id:          "SCHEMA-001",
		Version:     "1.0",
		Description: "match report must be present, well-typed, and internally consistent",
		Evaluate: func(envelope validation.ArtifactEnvelope, ctx validation.Context) []validation.Finding {
			view := envelope.Artifact.MatchReport
			if view == nil {
				return []validation.Finding{block("SCHEMA-001", "expected MatchReportView, got nil")}
			}
			report := view.Report
			if report == nil {
				return []validation.Finding{block("SCHEMA-001", "MatchReportView.Report is nil")}
			}
			if report.OverallScore < 0 {
				return []validation.Finding{block("SCHEMA-001", fmt.Sprintf("overall_score %v < 0", report.OverallScore))}
			}
			for _, rm := range report.RequirementMatches {
				if rm.RequirementText == "" {
					return []validation.Finding{block("SCHEMA-001", "empty requirement_text")}
				}
				if rm.BestScore < 0 {
					return []validation.Finding{block("SCHEMA-001", fmt.Sprintf("best_score %v < 0 for %q", rm.BestScore, rm.RequirementText))}
				}
				hasAtom := rm.ContributingAtomId.Value() != ""
				if rm.Matched != hasAtom {
					return []validation.Finding{block("SCHEMA-001", fmt.Sprintf("matched=%v inconsistent with contributing_atom_id for %q", rm.Matched, rm.RequirementText))}
				}
			}
			return nil
		},
	}
}

func block(ruleId, msg string) validation.Finding {
	return validation.Finding{RuleId: ruleId, Severity: validation.SeverityBlock, Message: msg}
}

func fail(ruleId, msg string) validation.Finding {
	return validation.Finding{RuleId: ruleId, Severity: validation.SeverityFail, Message: msg}
}

func warn(ruleId, msg string) validation.Finding {
	return validation.Finding{RuleId: ruleId, Severity: validation.SeverityWarn, Message: msg}
}
