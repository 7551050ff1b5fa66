//go:build property
// +build property

package domain_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/atomledger/provenance-engine/pkg/domain"
)

// TestDecisionRecord_JSONRoundTrips is spec.md §8's
// decision_record_from_json(decision_record_to_json(r)) == r law.
func TestDecisionRecord_JSONRoundTrips(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("DecisionRecord survives a JSON round trip", prop.ForAll(
		func(decisionId, traceId, artifactId, opportunityId string, findingCount, failCount, warnCount int, ruleIds []string) bool {
			record := domain.DecisionRecord{
				DecisionId:    domain.DecisionId(decisionId),
				TraceId:       domain.TraceId(traceId),
				ArtifactId:    artifactId,
				OpportunityId: domain.OpportunityId(opportunityId),
				Version:       domain.DecisionRecordVersion,
				RequirementDecisions: []domain.RequirementDecision{
					{RequirementText: artifactId, EvidenceTokens: ruleIds},
				},
				ValidationSummary: domain.ValidationSummary{
					Status:       "Accepted",
					FindingCount: findingCount,
					FailCount:    failCount,
					WarnCount:    warnCount,
					TopRuleIds:   ruleIds,
				},
			}

			data, err := json.Marshal(record)
			if err != nil {
				return false
			}
			var roundTripped domain.DecisionRecord
			if err := json.Unmarshal(data, &roundTripped); err != nil {
				return false
			}
			return reflect.DeepEqual(record, roundTripped)
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// TestResumeTokenIR_JSONRoundTrips is spec.md §8's ResumeTokenIR <-> JSON
// round-trip law.
func TestResumeTokenIR_JSONRoundTrips(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("ResumeTokenIR survives a JSON round trip", prop.ForAll(
		func(sourceHash, modelId string, startLine, endLine int, skillTokens, roleTokens []string) bool {
			ir := domain.ResumeTokenIR{
				SchemaVersion: 1,
				SourceHash:    sourceHash,
				Tokenizer:     domain.TokenizerInfo{Type: domain.TokenizerDeterministicLexical, ModelId: modelId},
				Tokens: map[string][]string{
					"skills": skillTokens,
					"roles":  roleTokens,
				},
				Spans: []domain.Span{{StartLine: startLine, EndLine: endLine}},
			}

			data, err := json.Marshal(ir)
			if err != nil {
				return false
			}
			var roundTripped domain.ResumeTokenIR
			if err := json.Unmarshal(data, &roundTripped); err != nil {
				return false
			}
			return reflect.DeepEqual(ir, roundTripped)
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.IntRange(0, 10000),
		gen.IntRange(0, 10000),
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
