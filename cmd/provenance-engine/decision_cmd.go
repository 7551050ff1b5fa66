package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/atomledger/provenance-engine/pkg/decision"
	"github.com/atomledger/provenance-engine/pkg/domain"
)

// runDecisionCmd implements `provenance-engine decision get` and
// `provenance-engine decision list`, both reading from the same JSON-Lines
// decision store file a prior `match` invocation wrote to via
// --decision-store.
//
// Exit codes:
//
//	0 = found / listed
//	1 = get: no such decision_id
//	2 = runtime error
func runDecisionCmd(sub string, args []string, stdout, stderr io.Writer) int {
	switch sub {
	case "get":
		return runDecisionGetCmd(args, stdout, stderr)
	case "list":
		return runDecisionListCmd(args, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown decision subcommand: %s\n", sub)
		fmt.Fprintln(stderr, "Usage: provenance-engine decision <get|list>")
		return 2
	}
}

func runDecisionGetCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("decision get", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var decisionStorePath, decisionId string
	cmd.StringVar(&decisionStorePath, "decision-store", "", "Path to a JSON-Lines decision store file (REQUIRED)")
	cmd.StringVar(&decisionId, "decision-id", "", "decision_id to fetch (REQUIRED)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if decisionStorePath == "" || decisionId == "" {
		fmt.Fprintln(stderr, "Error: --decision-store and --decision-id are required")
		return 2
	}

	store, err := decision.NewFileStore(decisionStorePath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	record, err := store.Get(context.Background(), domain.DecisionId(decisionId))
	if err != nil {
		if err == decision.ErrNotFound {
			fmt.Fprintf(stderr, "Error: no such decision_id: %s\n", decisionId)
			return 1
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if err := writeJSON(stdout, record); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func runDecisionListCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("decision list", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var decisionStorePath, traceId string
	var limit int
	cmd.StringVar(&decisionStorePath, "decision-store", "", "Path to a JSON-Lines decision store file (REQUIRED)")
	cmd.StringVar(&traceId, "trace-id", "", "Restrict to one trace_id (empty = list across all traces)")
	cmd.IntVar(&limit, "limit", 50, "Maximum number of records to return (ignored when --trace-id is set)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if decisionStorePath == "" {
		fmt.Fprintln(stderr, "Error: --decision-store is required")
		return 2
	}

	store, err := decision.NewFileStore(decisionStorePath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	var records []domain.DecisionRecord
	if traceId != "" {
		records, err = store.ListByTrace(context.Background(), domain.TraceId(traceId))
	} else {
		records, err = store.List(context.Background(), limit)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if err := writeJSON(stdout, records); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}
