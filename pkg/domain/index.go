package domain

import "time"

// ArtifactType is the kind of artifact an IndexEntry records provenance for.
type ArtifactType string

const (
	ArtifactAtom        ArtifactType = "atom"
	ArtifactResume      ArtifactType = "resume"
	ArtifactOpportunity ArtifactType = "opportunity"
)

// IndexRunStatus is the lifecycle state of an IndexRun.
type IndexRunStatus string

const (
	IndexRunPending   IndexRunStatus = "pending"
	IndexRunRunning   IndexRunStatus = "running"
	IndexRunCompleted IndexRunStatus = "completed"
	IndexRunFailed    IndexRunStatus = "failed"
)

// IndexRun is one invocation of the index-build pipeline.
type IndexRun struct {
	RunId         RunId          `json:"run_id"`
	StartedAt     *time.Time     `json:"started_at,omitempty"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	ProviderId    string         `json:"provider_id"`
	ModelId       string         `json:"model_id"`
	PromptVersion string         `json:"prompt_version"`
	Status        IndexRunStatus `json:"status"`
	SummaryJSON   string         `json:"summary_json"`
}

// IndexEntry records the provenance of one artifact's embedding within a
// single run.
type IndexEntry struct {
	RunId        RunId        `json:"run_id"`
	ArtifactType ArtifactType `json:"artifact_type"`
	ArtifactId   string       `json:"artifact_id"`
	SourceHash   string       `json:"source_hash"`
	VectorHash   string       `json:"vector_hash"`
	IndexedAt    *time.Time   `json:"indexed_at,omitempty"`
}
