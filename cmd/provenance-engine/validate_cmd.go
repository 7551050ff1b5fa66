package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/atomledger/provenance-engine/pkg/config"
	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/pipeline"
	"github.com/atomledger/provenance-engine/pkg/validation"
)

// runValidateCmd implements `provenance-engine validate`: runs
// run_validation_pipeline over a standalone MatchReport JSON document, the
// same contract the MCP validate_match_report tool dispatches onto.
//
// Exit codes:
//
//	0 = Accepted or Overridden
//	1 = NeedsReview/Rejected/Blocked
//	2 = runtime error
func runValidateCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("validate", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		matchReportPath string
		traceId         string
		auditLogPath    string
		configPath      string
	)
	cmd.StringVar(&matchReportPath, "match-report", "", "Path to a MatchReport JSON document (REQUIRED)")
	cmd.StringVar(&traceId, "trace-id", "", "trace_id to continue, or empty to mint a new one")
	cmd.StringVar(&auditLogPath, "audit-log", "", "Path to a JSON-Lines audit log file (empty = in-memory only)")
	cmd.StringVar(&configPath, "config", "", "Path to a provenance-engine.yaml (for operator-declared CEL rules)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if matchReportPath == "" {
		fmt.Fprintln(stderr, "Error: --match-report is required")
		return 2
	}

	data, err := os.ReadFile(matchReportPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	var report domain.MatchReport
	if err := json.Unmarshal(data, &report); err != nil {
		fmt.Fprintf(stderr, "Error: parse %s: %v\n", matchReportPath, err)
		return 2
	}

	deps, err := newDeps(auditLogPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	resolvedTraceId := traceId
	if resolvedTraceId == "" {
		resolvedTraceId = deps.IdGen.Next("trace")
	}

	appConfig, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	constitution, err := buildConstitution(appConfig)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	validationReport, err := pipeline.RunValidation(deps, resolvedTraceId, constitution, validation.ArtifactEnvelope{
		ArtifactId: pipeline.MatchReportArtifactId(report.OpportunityId),
		Artifact:   validation.ArtifactView{MatchReport: &validation.MatchReportView{Report: &report}},
	}, nil)
	if err != nil {
		fmt.Fprintf(stderr, "Error: validation failed: %v\n", err)
		return 2
	}

	if err := writeJSON(stdout, validationReport); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	switch validationReport.Status {
	case validation.StatusAccepted, validation.StatusOverridden:
		return 0
	default:
		return 1
	}
}
