package ingest

import (
	"github.com/atomledger/provenance-engine/pkg/apperr"
	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/hashing"
	"github.com/atomledger/provenance-engine/pkg/ids"
)

// IngestionVersion is stamped on every IngestedResume.Meta.
const IngestionVersion = "0.3"

// Options configures one ingestion call; SourcePath is recorded for
// provenance only.
type Options struct {
	SourcePath    string
	EnableHygiene bool
}

// IngestText turns raw resume text into an IngestedResume: hash the raw
// bytes (source_hash), apply hygiene normalization when requested, hash the
// normalized markdown (resume_hash), and mint a resume_id.
func IngestText(raw string, opts Options, idGen ids.Generator, clock ids.Clock) (domain.IngestedResume, error) {
	if raw == "" {
		return domain.IngestedResume{}, apperr.InvalidArgument("ingest: empty input")
	}

	sourceHash := hashing.StableHash64HexString(raw)

	resumeMd := raw
	if opts.EnableHygiene {
		resumeMd = ApplyHygiene(resumeMd)
	}
	resumeHash := hashing.StableHash64HexString(resumeMd)

	now := clock.Now()
	resumeId := domain.ResumeId(idGen.Next("resume"))

	return domain.IngestedResume{
		ResumeId:   resumeId,
		ResumeMd:   resumeMd,
		ResumeHash: resumeHash,
		Meta: domain.ResumeMeta{
			SourcePath:       opts.SourcePath,
			SourceHash:       sourceHash,
			ExtractionMethod: "text",
			ExtractedAt:      &now,
			IngestionVersion: IngestionVersion,
		},
	}, nil
}
