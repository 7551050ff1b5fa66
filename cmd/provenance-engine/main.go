// Command provenance-engine is the local/offline CLI surface over the
// engine's pipelines (pkg/pipeline): the same run_match_pipeline,
// run_validation_pipeline, and run_index_build_pipeline contracts the MCP
// JSON-RPC tool surface (pkg/mcpserver) dispatches onto, invoked directly
// from the shell instead of over stdio JSON-RPC.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the CLI entrypoint, exposed separately from main for testing.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	switch args[1] {
	case "match":
		return runMatchCmd(args[2:], stdout, stderr)
	case "validate":
		return runValidateCmd(args[2:], stdout, stderr)
	case "index-build":
		return runIndexBuildCmd(args[2:], stdout, stderr)
	case "mcp-serve":
		return runMCPServeCmd(args[2:], stdout, stderr)
	case "audit":
		if len(args) < 3 {
			fmt.Fprintln(stderr, "Usage: provenance-engine audit <trace|export|verify-pack>")
			return 2
		}
		return runAuditCmd(args[2], args[3:], stdout, stderr)
	case "decision":
		if len(args) < 3 {
			fmt.Fprintln(stderr, "Usage: provenance-engine decision <get|list>")
			return 2
		}
		return runDecisionCmd(args[2], args[3:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "provenance-engine — deterministic experience-to-opportunity matching")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  provenance-engine <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "COMMANDS:")
	fmt.Fprintln(w, "  match          Run run_match_pipeline against an opportunity")
	fmt.Fprintln(w, "  validate       Run run_validation_pipeline over a MatchReport")
	fmt.Fprintln(w, "  index-build    Run run_index_build_pipeline over a scope of artifacts")
	fmt.Fprintln(w, "  mcp-serve      Run the JSON-RPC 2.0 tool surface over stdio")
	fmt.Fprintln(w, "  audit trace    Print one trace's audit events and chain-verification result")
	fmt.Fprintln(w, "  audit export   Export a trace's audit events as an evidence pack (signed with --sign-key-hex)")
	fmt.Fprintln(w, "  audit verify-pack  Offline-verify an evidence pack written by `audit export`")
	fmt.Fprintln(w, "  decision get   Fetch one DecisionRecord by id")
	fmt.Fprintln(w, "  decision list  List DecisionRecords, optionally restricted to one trace")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run `provenance-engine <command> -h` for flag details.")
}
