package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/atomledger/provenance-engine/pkg/embedding"
	"github.com/atomledger/provenance-engine/pkg/indexbuild"
	"github.com/atomledger/provenance-engine/pkg/pipeline"
)

// runIndexBuildCmd implements `provenance-engine index-build`: runs
// run_index_build_pipeline over the requested scope, re-embedding only the
// artifacts whose canonical-text hash drifted since the last run matching
// the same (provider_id, model_id, prompt_version) tuple.
//
// Exit codes:
//
//	0 = build completed
//	2 = runtime error
func runIndexBuildCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("index-build", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		atomsPath         string
		opportunitiesPath string
		resumesPath       string
		scope             string
		traceId           string
		auditLogPath      string
		runStorePath      string
		providerId        string
		modelId           string
		promptVersion     string
	)
	cmd.StringVar(&atomsPath, "atoms", "", "Path to a JSON array of ExperienceAtom")
	cmd.StringVar(&opportunitiesPath, "opportunities", "", "Path to a JSON array of Opportunity")
	cmd.StringVar(&resumesPath, "resumes", "", "Path to a JSON array of IngestedResume")
	cmd.StringVar(&scope, "scope", "all", "atoms|resumes|opps|all")
	cmd.StringVar(&traceId, "trace-id", "", "trace_id to continue, or empty to mint a new one")
	cmd.StringVar(&auditLogPath, "audit-log", "", "Path to a JSON-Lines audit log file (empty = in-memory only)")
	cmd.StringVar(&runStorePath, "run-store", "", "Path to a JSON snapshot run store file (empty = in-memory only)")
	cmd.StringVar(&providerId, "provider-id", "local", "Embedding provider identity, part of the drift key")
	cmd.StringVar(&modelId, "model-id", "lexical-only", "Embedding model identity, part of the drift key")
	cmd.StringVar(&promptVersion, "prompt-version", "v1", "Embedding prompt version, part of the drift key")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	var inputs indexbuild.Inputs
	indexScope := scopeFromFlag(scope)

	if indexScope == indexbuild.ScopeAtoms || indexScope == indexbuild.ScopeAll {
		atoms, err := loadAtoms(atomsPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		inputs.Atoms = atoms.ListAll()
	}
	if indexScope == indexbuild.ScopeResumes || indexScope == indexbuild.ScopeAll {
		resumes, err := loadResumes(resumesPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		inputs.Resumes = resumes.ListAll()
	}
	if indexScope == indexbuild.ScopeOpportunities || indexScope == indexbuild.ScopeAll {
		opportunities, err := loadOpportunities(opportunitiesPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		inputs.Opportunities = opportunities.ListAll()
	}

	deps, err := newDeps(auditLogPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	runStore, err := openRunStore(runStorePath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	result, err := pipeline.RunIndexBuild(deps, runStore, embedding.NewMemoryIndex(), embedding.NewDeterministicStubProvider(32), pipeline.IndexBuildRequest{
		TraceId:       traceId,
		Scope:         indexScope,
		ProviderId:    providerId,
		ModelId:       modelId,
		PromptVersion: promptVersion,
		Inputs:        inputs,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: index-build failed: %v\n", err)
		return 2
	}

	if err := writeJSON(stdout, result); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func scopeFromFlag(scope string) indexbuild.Scope {
	switch scope {
	case "atoms":
		return indexbuild.ScopeAtoms
	case "resumes":
		return indexbuild.ScopeResumes
	case "opps":
		return indexbuild.ScopeOpportunities
	case "", "all":
		return indexbuild.ScopeAll
	default:
		return indexbuild.Scope(scope)
	}
}
