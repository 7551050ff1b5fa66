package domain

import "time"

// RequirementDecision captures only the "why" of one requirement's match —
// no scores — for inclusion in a DecisionRecord. Mirrors RequirementMatch
// but is a deliberately narrower projection
// (original_source/include/ccmcp/domain/decision_record.h).
type RequirementDecision struct {
	RequirementText string   `json:"requirement_text"`
	AtomId          AtomId   `json:"atom_id,omitempty"`
	EvidenceTokens  []string `json:"evidence_tokens"`
}

// RetrievalStatsSummary is a snapshot of MatchReport.RetrievalStats carried
// into the decision record.
type RetrievalStatsSummary struct {
	LexicalCandidates   int `json:"lexical_candidates"`
	EmbeddingCandidates int `json:"embedding_candidates"`
	MergedCandidates    int `json:"merged_candidates"`
}

// ValidationSummary is a compact summary of a ValidationReport, sufficient
// for a decision record without repeating every finding verbatim.
type ValidationSummary struct {
	Status      string   `json:"status"`
	FindingCount int      `json:"finding_count"`
	FailCount    int      `json:"fail_count"`
	WarnCount    int      `json:"warn_count"`
	TopRuleIds   []string `json:"top_rule_ids"`
}

// DecisionRecord captures the "why" of a match decision. It is a separate,
// append-only artifact; it never mutates the MatchReport it was derived
// from. ArtifactId is always "match-report-{opportunity_id}".
type DecisionRecord struct {
	DecisionId           DecisionId             `json:"decision_id"`
	TraceId              TraceId                `json:"trace_id"`
	ArtifactId           string                 `json:"artifact_id"`
	CreatedAt            *time.Time             `json:"created_at,omitempty"`
	OpportunityId        OpportunityId          `json:"opportunity_id"`
	RequirementDecisions []RequirementDecision  `json:"requirement_decisions"`
	RetrievalStats       RetrievalStatsSummary  `json:"retrieval_stats"`
	ValidationSummary    ValidationSummary      `json:"validation_summary"`
	Version              string                 `json:"version"`
}

// DecisionRecordVersion is the current DecisionRecord schema version.
const DecisionRecordVersion = "0.3"
