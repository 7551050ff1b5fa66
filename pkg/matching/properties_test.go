//go:build property
// +build property

package matching_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/matching"
)

// buildCase turns two parallel slices of words into an Opportunity with one
// requirement per non-empty word (tagged with itself) and one atom per
// non-empty claim word (tagged with itself, always verified). Evaluate is
// pure given nil embedding collaborators, so this is enough surface to
// exercise the lexical scoring path's determinism and the requirement/atom
// overlap that drives matched vs. unmatched requirements.
func buildCase(requirementWords, atomWords []string) (domain.Opportunity, []domain.ExperienceAtom) {
	var requirements []domain.Requirement
	for i, w := range requirementWords {
		if w == "" {
			continue
		}
		requirements = append(requirements, domain.Requirement{
			Text:     w,
			Tags:     []string{w},
			Required: i%2 == 0,
		})
	}
	opp := domain.Opportunity{OpportunityId: "opp-prop", Requirements: requirements}

	var atoms []domain.ExperienceAtom
	for i, w := range atomWords {
		if w == "" {
			continue
		}
		atoms = append(atoms, domain.ExperienceAtom{
			AtomId:   domain.AtomId(w),
			Claim:    w,
			Tags:     []string{w},
			Verified: true,
			Domain:   "engineering",
		})
		_ = i
	}
	return opp, atoms
}

// TestEvaluate_IsDeterministic is spec.md §8's first universal invariant:
// same inputs under the deterministic-stub path produce byte-identical
// MatchReport on two runs.
func TestEvaluate_IsDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Evaluate is deterministic across repeated runs", prop.ForAll(
		func(requirementWords, atomWords []string) bool {
			opp, atoms := buildCase(requirementWords, atomWords)

			first := matching.Evaluate(opp, atoms, nil, nil, matching.DefaultConfig)
			second := matching.Evaluate(opp, atoms, nil, nil, matching.DefaultConfig)

			if first.OverallScore != second.OverallScore || first.Strategy != second.Strategy {
				return false
			}
			if len(first.RequirementMatches) != len(second.RequirementMatches) {
				return false
			}
			for i := range first.RequirementMatches {
				a, b := first.RequirementMatches[i], second.RequirementMatches[i]
				if a.Matched != b.Matched || a.BestScore != b.BestScore || a.ContributingAtomId != b.ContributingAtomId {
					return false
				}
				if len(a.EvidenceTokens) != len(b.EvidenceTokens) {
					return false
				}
				for j := range a.EvidenceTokens {
					if a.EvidenceTokens[j] != b.EvidenceTokens[j] {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// TestEvaluate_RequirementMatchInvariants checks spec.md §8's
// matched<->contributing_atom_id<->evidence_tokens biconditional and the
// strictly-increasing evidence token ordering, for every generated case.
func TestEvaluate_RequirementMatchInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("matched, contributing_atom_id, and evidence_tokens agree; tokens strictly increase", prop.ForAll(
		func(requirementWords, atomWords []string) bool {
			opp, atoms := buildCase(requirementWords, atomWords)
			report := matching.Evaluate(opp, atoms, nil, nil, matching.DefaultConfig)

			for _, rm := range report.RequirementMatches {
				hasAtom := rm.ContributingAtomId != ""
				hasEvidence := len(rm.EvidenceTokens) > 0
				if rm.Matched != hasAtom || hasAtom != hasEvidence {
					return false
				}
				for i := 1; i < len(rm.EvidenceTokens); i++ {
					if rm.EvidenceTokens[i-1] >= rm.EvidenceTokens[i] {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
