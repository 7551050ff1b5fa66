package mcpserver

import (
	"context"
	"encoding/json"
	"os"

	"github.com/atomledger/provenance-engine/pkg/apperr"
	"github.com/atomledger/provenance-engine/pkg/audit"
	"github.com/atomledger/provenance-engine/pkg/decision"
	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/indexbuild"
	"github.com/atomledger/provenance-engine/pkg/pipeline"
	"github.com/atomledger/provenance-engine/pkg/validation"
)

type matchOpportunityParams struct {
	OpportunityId string   `json:"opportunity_id"`
	Strategy      string   `json:"strategy"`
	KLex          int      `json:"k_lex"`
	KEmb          int      `json:"k_emb"`
	TraceId       string   `json:"trace_id"`
	ResumeId      string   `json:"resume_id"`
	AtomIds       []string `json:"atom_ids"`
}

func (s *Server) handleMatchOpportunity(ctx context.Context, authHeader string, rawArgs json.RawMessage) (interface{}, error) {
	var p matchOpportunityParams
	if err := json.Unmarshal(rawArgs, &p); err != nil {
		return nil, apperr.InvalidArgument("match_opportunity: " + err.Error())
	}

	cfg, useHybrid := s.resolveMatchingConfig(p.Strategy, p.KLex, p.KEmb)

	atomIds := make([]domain.AtomId, 0, len(p.AtomIds))
	for _, id := range p.AtomIds {
		atomIds = append(atomIds, domain.AtomId(id))
	}

	embeddingProvider := s.EmbeddingProvider
	vectorIndex := s.VectorIndex
	if !useHybrid {
		embeddingProvider = nil
		vectorIndex = nil
	}

	result, err := pipeline.RunMatch(s.Deps, s.Atoms, s.Opportunities, s.Constitution, embeddingProvider, vectorIndex, pipeline.MatchRequest{
		TraceId:       p.TraceId,
		ResumeId:      p.ResumeId,
		OpportunityId: domain.OpportunityId(p.OpportunityId),
		AtomIds:       atomIds,
		Config:        cfg,
	})
	if err != nil {
		return nil, err
	}

	decisionId := domain.DecisionId(s.Deps.IdGen.Next("decision"))
	record, err := pipeline.RecordMatchDecision(ctx, s.Deps, s.Decisions, pipeline.RecordDecisionRequest{
		DecisionId:       decisionId,
		TraceId:          result.TraceId,
		ArtifactId:       pipeline.MatchReportArtifactId(result.MatchReport.OpportunityId),
		MatchReport:      result.MatchReport,
		ValidationReport: result.ValidationReport,
	})
	if err != nil {
		return nil, err
	}

	return matchOpportunityResult{MatchResult: result, Decision: record}, nil
}

type matchOpportunityResult struct {
	pipeline.MatchResult
	Decision domain.DecisionRecord `json:"decision"`
}

type validateMatchReportParams struct {
	MatchReport domain.MatchReport `json:"match_report"`
}

func (s *Server) handleValidateMatchReport(ctx context.Context, authHeader string, rawArgs json.RawMessage) (interface{}, error) {
	var p validateMatchReportParams
	if err := json.Unmarshal(rawArgs, &p); err != nil {
		return nil, apperr.InvalidArgument("validate_match_report: " + err.Error())
	}

	traceId := s.Deps.IdGen.Next("trace")
	report := p.MatchReport
	artifactId := pipeline.MatchReportArtifactId(report.OpportunityId)
	return pipeline.RunValidation(s.Deps, traceId, s.Constitution, validation.ArtifactEnvelope{
		ArtifactId: artifactId,
		Artifact:   validation.ArtifactView{MatchReport: &validation.MatchReportView{Report: &report}},
	}, nil)
}

type getAuditTraceParams struct {
	TraceId string `json:"trace_id"`
}

type auditTraceResult struct {
	Events []audit.Event    `json:"events"`
	Verify audit.VerifyResult `json:"verify"`
}

func (s *Server) handleGetAuditTrace(ctx context.Context, authHeader string, rawArgs json.RawMessage) (interface{}, error) {
	var p getAuditTraceParams
	if err := json.Unmarshal(rawArgs, &p); err != nil {
		return nil, apperr.InvalidArgument("get_audit_trace: " + err.Error())
	}
	events, err := s.Deps.Audit.Query(p.TraceId)
	if err != nil {
		return nil, apperr.BackendUnavailable("get_audit_trace: query failed", err)
	}
	return auditTraceResult{Events: events, Verify: audit.VerifyAuditChain(events)}, nil
}

type interactionApplyEventParams struct {
	InteractionId  string `json:"interaction_id"`
	Event          string `json:"event"`
	IdempotencyKey string `json:"idempotency_key"`
	TraceId        string `json:"trace_id"`
}

func (s *Server) handleInteractionApplyEvent(ctx context.Context, authHeader string, rawArgs json.RawMessage) (interface{}, error) {
	var p interactionApplyEventParams
	if err := json.Unmarshal(rawArgs, &p); err != nil {
		return nil, apperr.InvalidArgument("interaction_apply_event: " + err.Error())
	}
	return pipeline.RunInteractionTransition(ctx, s.Deps, s.Coordinator, pipeline.InteractionTransitionRequest{
		TraceId:        p.TraceId,
		InteractionId:  domain.InteractionId(p.InteractionId),
		Event:          domain.InteractionEvent(p.Event),
		IdempotencyKey: p.IdempotencyKey,
	})
}

type ingestResumeParams struct {
	InputPath string `json:"input_path"`
	Persist   *bool  `json:"persist"`
	TraceId   string `json:"trace_id"`
}

func (s *Server) handleIngestResume(ctx context.Context, authHeader string, rawArgs json.RawMessage) (interface{}, error) {
	var p ingestResumeParams
	if err := json.Unmarshal(rawArgs, &p); err != nil {
		return nil, apperr.InvalidArgument("ingest_resume: " + err.Error())
	}

	raw, err := os.ReadFile(p.InputPath)
	if err != nil {
		return nil, apperr.InvalidArgument("ingest_resume: read " + p.InputPath + ": " + err.Error())
	}

	persist := true
	if p.Persist != nil {
		persist = *p.Persist
	}

	return pipeline.RunIngestResume(s.Deps, s.Resumes, pipeline.IngestResumeRequest{
		TraceId:    p.TraceId,
		RawText:    string(raw),
		SourcePath: p.InputPath,
		Persist:    persist,
	})
}

type indexBuildParams struct {
	Scope   string `json:"scope"`
	TraceId string `json:"trace_id"`
}

func (s *Server) handleIndexBuild(ctx context.Context, authHeader string, rawArgs json.RawMessage) (interface{}, error) {
	var p indexBuildParams
	if err := json.Unmarshal(rawArgs, &p); err != nil {
		return nil, apperr.InvalidArgument("index_build: " + err.Error())
	}

	scope := scopeFromParam(p.Scope)

	inputs := indexbuild.Inputs{}
	if scope == indexbuild.ScopeAtoms || scope == indexbuild.ScopeAll {
		inputs.Atoms = s.Atoms.ListAll()
	}
	if scope == indexbuild.ScopeResumes || scope == indexbuild.ScopeAll {
		inputs.Resumes = s.Resumes.ListAll()
	}
	if scope == indexbuild.ScopeOpportunities || scope == indexbuild.ScopeAll {
		inputs.Opportunities = s.Opportunities.ListAll()
	}

	return pipeline.RunIndexBuild(s.Deps, s.IndexRuns, s.VectorIndex, s.EmbeddingProvider, pipeline.IndexBuildRequest{
		TraceId:       p.TraceId,
		Scope:         scope,
		ProviderId:    s.IndexProviderId,
		ModelId:       s.IndexModelId,
		PromptVersion: s.IndexPromptVersion,
		Inputs:        inputs,
	})
}

type getDecisionParams struct {
	DecisionId string `json:"decision_id"`
}

func (s *Server) handleGetDecision(ctx context.Context, authHeader string, rawArgs json.RawMessage) (interface{}, error) {
	var p getDecisionParams
	if err := json.Unmarshal(rawArgs, &p); err != nil {
		return nil, apperr.InvalidArgument("get_decision: " + err.Error())
	}
	record, err := s.Decisions.Get(ctx, domain.DecisionId(p.DecisionId))
	if err == decision.ErrNotFound {
		return nil, apperr.NotFound("decision " + p.DecisionId + " not found")
	}
	if err != nil {
		return nil, apperr.BackendUnavailable("get_decision: store failed", err)
	}
	return record, nil
}

type listDecisionsParams struct {
	TraceId string `json:"trace_id"`
}

func (s *Server) handleListDecisions(ctx context.Context, authHeader string, rawArgs json.RawMessage) (interface{}, error) {
	var p listDecisionsParams
	if err := json.Unmarshal(rawArgs, &p); err != nil {
		return nil, apperr.InvalidArgument("list_decisions: " + err.Error())
	}
	records, err := s.Decisions.ListByTrace(ctx, domain.TraceId(p.TraceId))
	if err != nil {
		return nil, apperr.BackendUnavailable("list_decisions: store failed", err)
	}
	return records, nil
}
