package pipeline

import (
	"github.com/atomledger/provenance-engine/pkg/apperr"
	"github.com/atomledger/provenance-engine/pkg/audit"
	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/embedding"
	"github.com/atomledger/provenance-engine/pkg/matching"
	"github.com/atomledger/provenance-engine/pkg/validation"
)

// AtomLister is the subset of AtomRepository the match pipeline needs.
type AtomLister interface {
	Get(id domain.AtomId) (domain.ExperienceAtom, bool)
	ListVerified() []domain.ExperienceAtom
}

// OpportunityGetter is the subset of OpportunityRepository the match
// pipeline needs.
type OpportunityGetter interface {
	Get(id domain.OpportunityId) (domain.Opportunity, bool)
}

// MatchRequest is run_match_pipeline's input (spec.md §4.9).
type MatchRequest struct {
	TraceId       string
	ResumeId      string
	OpportunityId domain.OpportunityId
	Opportunity   *domain.Opportunity // supplied directly, bypassing OpportunityGetter, when set
	AtomIds       []domain.AtomId
	Config        matching.Config
	Override      *validation.ConstitutionOverrideRequest
}

// MatchResult is run_match_pipeline's output.
type MatchResult struct {
	TraceId          string
	MatchReport       domain.MatchReport
	ValidationReport  validation.ValidationReport
}

// RunMatch implements run_match_pipeline: resolve opportunity, resolve
// atoms, evaluate, validate, and emit the bracketing audit events that
// share one trace_id.
func RunMatch(deps Deps, atoms AtomLister, opportunities OpportunityGetter, constitution validation.Constitution, embeddingProvider embedding.Provider, vectorIndex embedding.Index, req MatchRequest) (result MatchResult, err error) {
	traceId := resolveTraceId(deps.IdGen, req.TraceId)
	endSpan := deps.Telemetry.TrackPipeline(traceId, "run_match_pipeline")
	defer func() { endSpan(string(result.ValidationReport.Status), err) }()

	startedPayload := map[string]interface{}{"pipeline": "run_match_pipeline"}
	if req.ResumeId != "" {
		startedPayload["resume_id"] = req.ResumeId
	}
	if err := deps.emit(traceId, audit.EventRunStarted, startedPayload); err != nil {
		return MatchResult{}, err
	}

	opportunity, err := resolveOpportunity(opportunities, req)
	if err != nil {
		return MatchResult{}, err
	}

	candidateAtoms := resolveAtoms(atoms, req.AtomIds)

	report := matching.Evaluate(opportunity, candidateAtoms, embeddingProvider, vectorIndex, req.Config)

	if err := deps.emit(traceId, audit.EventMatchCompleted, map[string]interface{}{
		"opportunity_id": report.OpportunityId.Value(),
		"overall_score":  report.OverallScore,
	}); err != nil {
		return MatchResult{}, err
	}

	artifactId := MatchReportArtifactId(report.OpportunityId)
	validationReport, err := RunValidation(deps, traceId, constitution, validation.ArtifactEnvelope{
		ArtifactId: artifactId,
		Artifact:   validation.ArtifactView{MatchReport: &validation.MatchReportView{Report: &report}},
	}, req.Override)
	if err != nil {
		return MatchResult{}, err
	}

	if err := deps.emit(traceId, audit.EventRunCompleted, map[string]interface{}{"status": "success"}); err != nil {
		return MatchResult{}, err
	}

	return MatchResult{TraceId: traceId, MatchReport: report, ValidationReport: validationReport}, nil
}

// MatchReportArtifactId is the artifact_id a MatchReport's ValidationReport
// and DecisionRecord are both keyed on: "match-report-{opportunity_id}".
func MatchReportArtifactId(opportunityId domain.OpportunityId) string {
	return "match-report-" + opportunityId.Value()
}

func resolveOpportunity(opportunities OpportunityGetter, req MatchRequest) (domain.Opportunity, error) {
	if req.Opportunity != nil {
		return *req.Opportunity, nil
	}
	if req.OpportunityId == "" {
		return domain.Opportunity{}, apperr.InvalidArgument("opportunity_id or opportunity is required")
	}
	opp, ok := opportunities.Get(req.OpportunityId)
	if !ok {
		return domain.Opportunity{}, apperr.NotFound("opportunity " + req.OpportunityId.Value() + " not found")
	}
	return opp, nil
}

func resolveAtoms(atoms AtomLister, ids []domain.AtomId) []domain.ExperienceAtom {
	if len(ids) == 0 {
		return atoms.ListVerified()
	}
	out := make([]domain.ExperienceAtom, 0, len(ids))
	for _, id := range ids {
		if a, ok := atoms.Get(id); ok {
			out = append(out, a)
		}
	}
	return out
}
