package pipeline

import (
	"context"
	"sort"

	"github.com/atomledger/provenance-engine/pkg/audit"
	"github.com/atomledger/provenance-engine/pkg/decision"
	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/validation"
)

// RecordDecisionRequest is record_match_decision's input.
type RecordDecisionRequest struct {
	DecisionId       domain.DecisionId
	TraceId          string
	ArtifactId       string
	MatchReport      domain.MatchReport
	ValidationReport validation.ValidationReport
}

// RecordMatchDecision implements record_match_decision: project the match +
// validation result into a DecisionRecord (deriving fail/warn counts and a
// sorted, deduplicated top_rule_ids from the findings), persist it, and
// emit DecisionRecorded.
func RecordMatchDecision(ctx context.Context, deps Deps, store decision.Store, req RecordDecisionRequest) (domain.DecisionRecord, error) {
	failCount, warnCount := 0, 0
	ruleIdSet := make(map[string]struct{})
	for _, f := range req.ValidationReport.Findings {
		switch f.Severity {
		case validation.SeverityFail, validation.SeverityBlock:
			failCount++
			ruleIdSet[f.RuleId] = struct{}{}
		case validation.SeverityWarn:
			warnCount++
			ruleIdSet[f.RuleId] = struct{}{}
		}
	}
	topRuleIds := make([]string, 0, len(ruleIdSet))
	for id := range ruleIdSet {
		topRuleIds = append(topRuleIds, id)
	}
	sort.Strings(topRuleIds)

	record := decision.RecordMatchDecision(
		req.DecisionId,
		domain.TraceId(req.TraceId),
		req.ArtifactId,
		deps.Clock.Now(),
		req.MatchReport,
		string(req.ValidationReport.Status),
		len(req.ValidationReport.Findings),
		failCount,
		warnCount,
		topRuleIds,
	)

	if err := store.Put(ctx, record); err != nil {
		return domain.DecisionRecord{}, err
	}

	if err := deps.emit(req.TraceId, audit.EventDecisionRecorded, map[string]interface{}{
		"decision_id":     record.DecisionId.Value(),
		"opportunity_id":  record.OpportunityId.Value(),
		"status":          record.ValidationSummary.Status,
	}); err != nil {
		return record, err
	}

	return record, nil
}
