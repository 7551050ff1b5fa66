package pipeline

import (
	"github.com/atomledger/provenance-engine/pkg/audit"
	"github.com/atomledger/provenance-engine/pkg/embedding"
	"github.com/atomledger/provenance-engine/pkg/indexbuild"
)

// IndexBuildRequest is run_index_build_pipeline's input.
type IndexBuildRequest struct {
	TraceId       string
	Scope         indexbuild.Scope
	ProviderId    string
	ModelId       string
	PromptVersion string
	Inputs        indexbuild.Inputs
}

// IndexBuildResult is run_index_build_pipeline's output.
type IndexBuildResult struct {
	TraceId string
	Result  indexbuild.Result
}

// RunIndexBuild implements run_index_build_pipeline: emit IndexBuildStarted,
// delegate the scan to indexbuild.Run (which itself allocates the run_id
// and persists the IndexRun), emit one IndexedArtifact per non-skipped
// artifact, then IndexBuildCompleted with the summary.
func RunIndexBuild(deps Deps, store indexbuild.RunStore, index embedding.Index, provider embedding.Provider, req IndexBuildRequest) (out IndexBuildResult, err error) {
	traceId := resolveTraceId(deps.IdGen, req.TraceId)
	endSpan := deps.Telemetry.TrackPipeline(traceId, "run_index_build_pipeline")
	status := "completed"
	defer func() {
		if err != nil {
			status = "failed"
		}
		endSpan(status, err)
	}()

	if err := deps.emit(traceId, audit.EventIndexBuildStarted, map[string]interface{}{
		"scope": string(req.Scope),
	}); err != nil {
		return IndexBuildResult{}, err
	}

	result, err := indexbuild.Run(store, index, provider, deps.Clock, req.Scope, req.ProviderId, req.ModelId, req.PromptVersion, req.Inputs)
	if err != nil {
		return IndexBuildResult{}, err
	}

	for _, a := range result.IndexedArtifacts {
		if err := deps.emit(traceId, audit.EventIndexedArtifact, map[string]interface{}{
			"artifact_type": string(a.ArtifactType),
			"artifact_id":   a.ArtifactId,
			"source_hash":   a.SourceHash,
			"stale":         a.Stale,
		}); err != nil {
			return IndexBuildResult{}, err
		}
	}

	if err := deps.emit(traceId, audit.EventIndexBuildCompleted, map[string]interface{}{
		"run_id":  result.Run.RunId.Value(),
		"summary": result.Run.SummaryJSON,
	}); err != nil {
		return IndexBuildResult{}, err
	}

	return IndexBuildResult{TraceId: traceId, Result: result}, nil
}
