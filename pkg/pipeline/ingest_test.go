package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atomledger/provenance-engine/pkg/pipeline"
	"github.com/atomledger/provenance-engine/pkg/storage/memory"
)

func TestRunIngestResume_DedupsOnResumeHash(t *testing.T) {
	deps := fixedDeps()
	resumes := memory.NewResumeStore()

	first, err := pipeline.RunIngestResume(deps, resumes, pipeline.IngestResumeRequest{
		RawText:    "# Resume\n\nSome experience.\n",
		SourcePath: "a.md",
		Persist:    true,
	})
	require.NoError(t, err)
	require.False(t, first.Reused)

	second, err := pipeline.RunIngestResume(deps, resumes, pipeline.IngestResumeRequest{
		RawText:    "# Resume\n\nSome experience.\n",
		SourcePath: "b.md",
		Persist:    true,
	})
	require.NoError(t, err)
	require.True(t, second.Reused)
	require.Equal(t, first.Resume.ResumeId, second.Resume.ResumeId)
}
