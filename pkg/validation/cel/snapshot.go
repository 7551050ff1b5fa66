package cel

import "github.com/atomledger/provenance-engine/pkg/validation"

// Snapshot projects an ArtifactEnvelope into the plain map[string]any a CEL
// program evaluates over — CEL has no notion of the engine's typed views,
// so a rule expression sees the same fields under "match_report"/
// "token_ir" that the native Go rules reach via envelope.Artifact directly.
func Snapshot(envelope validation.ArtifactEnvelope) map[string]any {
	snap := map[string]any{
		"artifact_id": envelope.ArtifactId,
	}

	if view := envelope.Artifact.MatchReport; view != nil && view.Report != nil {
		r := view.Report
		matched := 0
		var requirements []map[string]any
		for _, rm := range r.RequirementMatches {
			if rm.Matched {
				matched++
			}
			requirements = append(requirements, map[string]any{
				"requirement_text": rm.RequirementText,
				"matched":          rm.Matched,
				"contributing_atom_id": rm.ContributingAtomId.Value(),
				"evidence_token_count": len(rm.EvidenceTokens),
			})
		}
		snap["match_report"] = map[string]any{
			"opportunity_id":          r.OpportunityId.Value(),
			"overall_score":           r.OverallScore,
			"requirement_count":       len(r.RequirementMatches),
			"matched_requirement_count": matched,
			"requirements":            requirements,
		}
	}

	if view := envelope.Artifact.TokenIR; view != nil && view.IR != nil {
		tokenCount := 0
		for _, toks := range view.IR.Tokens {
			tokenCount += len(toks)
		}
		snap["token_ir"] = map[string]any{
			"schema_version":        view.IR.SchemaVersion,
			"section_count":         len(view.IR.Tokens),
			"token_count":           tokenCount,
			"canonical_resume_hash": view.CanonicalResumeHash,
			"ir_source_hash":        view.IR.SourceHash,
			"source_hash_matches":   view.CanonicalResumeHash == view.IR.SourceHash,
		}
	}

	return snap
}
