package domain

import "time"

// ResumeMeta records ingestion provenance for an IngestedResume.
type ResumeMeta struct {
	SourcePath        string     `json:"source_path,omitempty"`
	SourceHash        string     `json:"source_hash"`
	ExtractionMethod  string     `json:"extraction_method"`
	ExtractedAt       *time.Time `json:"extracted_at,omitempty"`
	IngestionVersion  string     `json:"ingestion_version"`
}

// IngestedResume is the hygiene-applied, hashed result of ingesting a raw
// resume file. ResumeHash is the hash of ResumeMd (post-hygiene);
// Meta.SourceHash is the hash of the raw pre-hygiene bytes. ResumeHash is a
// secondary unique key.
type IngestedResume struct {
	ResumeId   ResumeId   `json:"resume_id"`
	ResumeMd   string     `json:"resume_md"`
	ResumeHash string     `json:"resume_hash"`
	Meta       ResumeMeta `json:"meta"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// CanonicalText for a resume is its markdown body, unmodified.
func (r IngestedResume) CanonicalText() string {
	return r.ResumeMd
}

// TokenizerKind names how a ResumeTokenIR's tokens were produced.
type TokenizerKind string

const (
	TokenizerDeterministicLexical TokenizerKind = "deterministic-lexical"
	TokenizerInferenceAssisted   TokenizerKind = "inference-assisted"
)

type TokenizerInfo struct {
	Type          TokenizerKind `json:"type"`
	ModelId       string        `json:"model_id,omitempty"`
	PromptVersion string        `json:"prompt_version,omitempty"`
}

// Span marks a line range in the canonical resume text that a token's
// evidence was drawn from.
type Span struct {
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// ResumeTokenIR is the intermediate representation produced by tokenizing a
// resume: SourceHash binds it to the exact resume it was computed from.
type ResumeTokenIR struct {
	SchemaVersion int                 `json:"schema_version"`
	SourceHash    string              `json:"source_hash"`
	Tokenizer     TokenizerInfo       `json:"tokenizer"`
	Tokens        map[string][]string `json:"tokens"`
	Spans         []Span              `json:"spans"`
}
