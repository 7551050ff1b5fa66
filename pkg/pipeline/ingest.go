package pipeline

import (
	"github.com/atomledger/provenance-engine/pkg/audit"
	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/ingest"
)

// ResumeUpserter is the subset of ResumeStore the ingest pipeline needs.
type ResumeUpserter interface {
	Upsert(r domain.IngestedResume)
	GetByHash(hash string) (domain.IngestedResume, bool)
}

// IngestResumeRequest is run_ingest_resume_pipeline's input.
type IngestResumeRequest struct {
	TraceId    string
	RawText    string
	SourcePath string
	Persist    bool // default true at the caller
}

// IngestResumeResult is run_ingest_resume_pipeline's output.
type IngestResumeResult struct {
	TraceId string
	Resume  domain.IngestedResume
	Reused  bool // true if an existing resume with the same resume_hash was returned instead
}

// RunIngestResume implements run_ingest_resume_pipeline: emit IngestStarted,
// hash + hygiene-normalize the raw text, dedup on resume_hash, optionally
// persist, emit IngestCompleted.
func RunIngestResume(deps Deps, resumes ResumeUpserter, req IngestResumeRequest) (IngestResumeResult, error) {
	traceId := resolveTraceId(deps.IdGen, req.TraceId)

	if err := deps.emit(traceId, audit.EventIngestStarted, map[string]interface{}{
		"source_path": req.SourcePath,
	}); err != nil {
		return IngestResumeResult{}, err
	}

	resume, err := ingest.IngestText(req.RawText, ingest.Options{
		SourcePath:    req.SourcePath,
		EnableHygiene: true,
	}, deps.IdGen, deps.Clock)
	if err != nil {
		return IngestResumeResult{}, err
	}

	reused := false
	if existing, ok := resumes.GetByHash(resume.ResumeHash); ok {
		resume = existing
		reused = true
	} else if req.Persist {
		now := deps.Clock.Now()
		resume.CreatedAt = &now
		resumes.Upsert(resume)
	}

	if err := deps.emit(traceId, audit.EventIngestCompleted, map[string]interface{}{
		"resume_id":   resume.ResumeId.Value(),
		"resume_hash": resume.ResumeHash,
		"reused":      reused,
	}); err != nil {
		return IngestResumeResult{}, err
	}

	return IngestResumeResult{TraceId: traceId, Resume: resume, Reused: reused}, nil
}
