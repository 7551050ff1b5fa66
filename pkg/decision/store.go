// Package decision implements decision record projection and storage per
// spec.md §3/§4.9.
package decision

import (
	"context"
	"errors"
	"time"

	"github.com/atomledger/provenance-engine/pkg/domain"
)

// ErrNotFound is returned when a DecisionStore lookup misses.
var ErrNotFound = errors.New("decision: not found")

// Store persists and retrieves DecisionRecords.
type Store interface {
	Put(ctx context.Context, record domain.DecisionRecord) error
	Get(ctx context.Context, id domain.DecisionId) (domain.DecisionRecord, error)
	List(ctx context.Context, limit int) ([]domain.DecisionRecord, error)
	// ListByTrace returns every decision recorded under traceId, ordered by
	// decision_id ascending, per spec.md §6's list_by_trace contract.
	ListByTrace(ctx context.Context, traceId domain.TraceId) ([]domain.DecisionRecord, error)
}

// RecordMatchDecision projects a MatchReport and its ValidationReport
// summary into a DecisionRecord, per spec.md §3's DecisionRecord shape.
// validationStatus/findingCount/failCount/warnCount/topRuleIds are passed
// in rather than re-deriving them, since the validation package's types
// are a separate concern from decision projection.
func RecordMatchDecision(decisionId domain.DecisionId, traceId domain.TraceId, artifactId string, createdAt time.Time, report domain.MatchReport, validationStatus string, findingCount, failCount, warnCount int, topRuleIds []string) domain.DecisionRecord {
	var requirementDecisions []domain.RequirementDecision
	for _, rm := range report.RequirementMatches {
		if !rm.Matched {
			continue
		}
		requirementDecisions = append(requirementDecisions, domain.RequirementDecision{
			RequirementText: rm.RequirementText,
			AtomId:          rm.ContributingAtomId,
			EvidenceTokens:  rm.EvidenceTokens,
		})
	}

	return domain.DecisionRecord{
		DecisionId:    decisionId,
		TraceId:       traceId,
		ArtifactId:    artifactId,
		CreatedAt:     &createdAt,
		OpportunityId: report.OpportunityId,
		RequirementDecisions: requirementDecisions,
		RetrievalStats: domain.RetrievalStatsSummary{
			LexicalCandidates:   report.RetrievalStats.LexicalCandidates,
			EmbeddingCandidates: report.RetrievalStats.EmbeddingCandidates,
			MergedCandidates:    report.RetrievalStats.MergedCandidates,
		},
		ValidationSummary: domain.ValidationSummary{
			Status:       validationStatus,
			FindingCount: findingCount,
			FailCount:    failCount,
			WarnCount:    warnCount,
			TopRuleIds:   topRuleIds,
		},
		Version: domain.DecisionRecordVersion,
	}
}
