package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/atomledger/provenance-engine/pkg/attestation"
	"github.com/atomledger/provenance-engine/pkg/audit"
	"github.com/atomledger/provenance-engine/pkg/verifier"
)

// runAuditCmd implements `provenance-engine audit trace`,
// `provenance-engine audit export` and `provenance-engine audit verify-pack`.
// trace and export read the JSON-Lines audit log file a prior
// `match`/`validate`/`index-build` invocation wrote to via --audit-log;
// verify-pack reads an evidence pack written by export.
//
// Exit codes:
//
//	0 = command ran, chain valid (trace) / pack written (export) / pack verified (verify-pack)
//	1 = chain verification failed (trace) / pack verification failed (verify-pack)
//	2 = runtime error
func runAuditCmd(sub string, args []string, stdout, stderr io.Writer) int {
	switch sub {
	case "trace":
		return runAuditTraceCmd(args, stdout, stderr)
	case "export":
		return runAuditExportCmd(args, stdout, stderr)
	case "verify-pack":
		return runAuditVerifyPackCmd(args, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown audit subcommand: %s\n", sub)
		fmt.Fprintln(stderr, "Usage: provenance-engine audit <trace|export|verify-pack>")
		return 2
	}
}

func runAuditTraceCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("audit trace", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var auditLogPath, traceId string
	cmd.StringVar(&auditLogPath, "audit-log", "", "Path to a JSON-Lines audit log file (REQUIRED)")
	cmd.StringVar(&traceId, "trace-id", "", "trace_id to inspect (REQUIRED)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if auditLogPath == "" || traceId == "" {
		fmt.Fprintln(stderr, "Error: --audit-log and --trace-id are required")
		return 2
	}

	log, err := audit.NewFileAuditLog(auditLogPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	events, err := log.Query(traceId)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	verification := audit.VerifyAuditChain(events)

	commitment, err := audit.BuildCommitment(traceId, events, time.Now().UTC())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if err := writeJSON(stdout, struct {
		TraceId      string             `json:"trace_id"`
		Events       []audit.Event      `json:"events"`
		Verification audit.VerifyResult `json:"verification"`
		Commitment   audit.Commitment   `json:"commitment"`
	}{traceId, events, verification, commitment}); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if !verification.Valid {
		return 1
	}
	return 0
}

func runAuditExportCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("audit export", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var auditLogPath, traceId, outPath, signKeyHex string
	cmd.StringVar(&auditLogPath, "audit-log", "", "Path to a JSON-Lines audit log file (REQUIRED)")
	cmd.StringVar(&traceId, "trace-id", "", "trace_id to export (REQUIRED)")
	cmd.StringVar(&outPath, "out", "", "Path to write the evidence pack zip (REQUIRED)")
	cmd.StringVar(&signKeyHex, "sign-key-hex", "", "32-byte hex Ed25519 seed; when set, the pack's Merkle commitment is signed")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if auditLogPath == "" || traceId == "" || outPath == "" {
		fmt.Fprintln(stderr, "Error: --audit-log, --trace-id, and --out are required")
		return 2
	}

	log, err := audit.NewFileAuditLog(auditLogPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	var exporter *audit.Exporter
	if signKeyHex != "" {
		signer, err := attestation.NewEd25519SignerFromSeed(signKeyHex, "audit-export")
		if err != nil {
			fmt.Fprintf(stderr, "Error: --sign-key-hex: %v\n", err)
			return 2
		}
		exporter = audit.NewSignedExporter(log, time.Now, signer)
	} else {
		exporter = audit.NewExporter(log, time.Now)
	}
	zipBytes, pack, err := exporter.GeneratePack(audit.ExportRequest{TraceId: traceId})
	if err != nil {
		fmt.Fprintf(stderr, "Error: export failed: %v\n", err)
		return 2
	}

	if err := os.WriteFile(outPath, zipBytes, 0o644); err != nil {
		fmt.Fprintf(stderr, "Error: write %s: %v\n", outPath, err)
		return 2
	}

	if err := writeJSON(stdout, pack); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

// runAuditVerifyPackCmd implements `provenance-engine audit verify-pack`, an
// offline check of an evidence pack zip written by `audit export`: it opens
// only the local file, never the network, recomputes the events' hash chain
// and verifies the commitment signature when the pack carries one; the
// Merkle root is checked for presence, not recomputed from the events.
func runAuditVerifyPackCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("audit verify-pack", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var packPath string
	cmd.StringVar(&packPath, "pack", "", "Path to an evidence pack zip written by `audit export` (REQUIRED)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if packPath == "" {
		fmt.Fprintln(stderr, "Error: --pack is required")
		return 2
	}

	report, err := verifier.VerifyPack(packPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if err := writeJSON(stdout, report); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if !report.Verified {
		return 1
	}
	return 0
}
