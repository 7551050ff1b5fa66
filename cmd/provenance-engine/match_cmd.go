package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/atomledger/provenance-engine/pkg/config"
	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/embedding"
	"github.com/atomledger/provenance-engine/pkg/matching"
	"github.com/atomledger/provenance-engine/pkg/pipeline"
	"github.com/atomledger/provenance-engine/pkg/validation"
)

// runMatchCmd implements `provenance-engine match`: the CLI's
// run_match_pipeline entrypoint, exercising the exact pipeline.RunMatch
// contract the MCP match_opportunity tool dispatches onto (spec.md §9's
// intentional duplication note — one pipeline, two callers).
//
// Exit codes:
//
//	0 = match ran and the validation report status was Accepted or Overridden
//	1 = match ran but validation NeedsReview/Rejected/Blocked
//	2 = runtime error (bad flags, missing files, backend failure)
func runMatchCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("match", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		atomsPath         string
		opportunitiesPath string
		opportunityId     string
		resumeId          string
		strategy          string
		traceId           string
		auditLogPath      string
		decisionStorePath string
		overrideRuleId    string
		overrideOperator  string
		overrideReason    string
		overridePayload   string
		configPath        string
	)

	cmd.StringVar(&configPath, "config", "", "Path to a provenance-engine.yaml (for operator-declared CEL rules)")
	cmd.StringVar(&atomsPath, "atoms", "", "Path to a JSON array of ExperienceAtom (REQUIRED)")
	cmd.StringVar(&opportunitiesPath, "opportunities", "", "Path to a JSON array of Opportunity (REQUIRED)")
	cmd.StringVar(&opportunityId, "opportunity-id", "", "opportunity_id to match against (REQUIRED)")
	cmd.StringVar(&resumeId, "resume-id", "", "resume_id to record on the audit trail")
	cmd.StringVar(&strategy, "strategy", "lexical", "lexical|hybrid")
	cmd.StringVar(&traceId, "trace-id", "", "trace_id to continue, or empty to mint a new one")
	cmd.StringVar(&auditLogPath, "audit-log", "", "Path to a JSON-Lines audit log file (empty = in-memory only)")
	cmd.StringVar(&decisionStorePath, "decision-store", "", "Path to a JSON-Lines decision store file (empty = in-memory only)")
	cmd.StringVar(&overrideRuleId, "override-rule-id", "", "Escalate this Block finding's rule_id (requires the other --override-* flags)")
	cmd.StringVar(&overrideOperator, "override-operator-id", "", "Operator id authorizing the override")
	cmd.StringVar(&overrideReason, "override-reason", "", "Reason for the override")
	cmd.StringVar(&overridePayload, "override-payload-hash", "", "SHA-256 hex of the artifact payload the override is bound to")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if atomsPath == "" || opportunitiesPath == "" || opportunityId == "" {
		fmt.Fprintln(stderr, "Error: --atoms, --opportunities, and --opportunity-id are required")
		return 2
	}

	appConfig, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	atoms, err := openAtomStore(appConfig, atomsPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	opportunities, err := openOpportunityStore(appConfig, opportunitiesPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	deps, err := newDeps(auditLogPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	decisions, err := openDecisionStore(decisionStorePath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	constitution, err := buildConstitution(appConfig)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	cfg := matching.DefaultConfig
	var embeddingProvider embedding.Provider
	var vectorIndex embedding.Index
	if strategy == "hybrid" {
		embeddingProvider = embedding.NewDeterministicStubProvider(32)
		vectorIndex = embedding.NewMemoryIndex()
	}

	var override *validation.ConstitutionOverrideRequest
	if overrideRuleId != "" {
		override = &validation.ConstitutionOverrideRequest{
			RuleId:         overrideRuleId,
			OperatorId:     overrideOperator,
			Reason:         overrideReason,
			PayloadHash:    overridePayload,
			BindingHashAlg: "sha256",
		}
	}

	result, err := pipeline.RunMatch(deps, atoms, opportunities, constitution, embeddingProvider, vectorIndex, pipeline.MatchRequest{
		TraceId:       traceId,
		ResumeId:      resumeId,
		OpportunityId: domain.OpportunityId(opportunityId),
		Config:        cfg,
		Override:      override,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: match failed: %v\n", err)
		return 2
	}

	decisionId := domain.DecisionId(deps.IdGen.Next("decision"))
	record, err := pipeline.RecordMatchDecision(context.Background(), deps, decisions, pipeline.RecordDecisionRequest{
		DecisionId:       decisionId,
		TraceId:          result.TraceId,
		ArtifactId:       pipeline.MatchReportArtifactId(result.MatchReport.OpportunityId),
		MatchReport:      result.MatchReport,
		ValidationReport: result.ValidationReport,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: record decision failed: %v\n", err)
		return 2
	}

	if err := writeJSON(stdout, struct {
		TraceId          string                     `json:"trace_id"`
		MatchReport       domain.MatchReport         `json:"match_report"`
		ValidationReport  validation.ValidationReport `json:"validation_report"`
		Decision          domain.DecisionRecord      `json:"decision"`
	}{result.TraceId, result.MatchReport, result.ValidationReport, record}); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	switch result.ValidationReport.Status {
	case validation.StatusAccepted, validation.StatusOverridden:
		return 0
	default:
		return 1
	}
}
