package matching

import (
	"sort"

	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/embedding"
	"github.com/atomledger/provenance-engine/pkg/textproc"
)

// Evaluate scores opportunity against candidateAtoms and returns a
// MatchReport. embeddingProvider and vectorIndex may be nil, in which case
// the matcher runs the lexical-only strategy regardless of cfg.
func Evaluate(opportunity domain.Opportunity, candidateAtoms []domain.ExperienceAtom, embeddingProvider embedding.Provider, vectorIndex embedding.Index, cfg Config) domain.MatchReport {
	verified := make([]domain.ExperienceAtom, 0, len(candidateAtoms))
	for _, a := range candidateAtoms {
		if a.Verified {
			verified = append(verified, a)
		}
	}

	hybrid := embeddingProvider != nil && vectorIndex != nil && embeddingProvider.Dimension() > 0

	var requirementMatches []domain.RequirementMatch
	var totalStats domain.RetrievalStats

	for _, req := range opportunity.Requirements {
		reqTokens := textproc.Union(textproc.TokenizeDefault(req.Text), textproc.NormalizeTags(req.Tags))

		candidates, stats := selectCandidates(reqTokens, verified, req, embeddingProvider, vectorIndex, cfg, hybrid)
		totalStats.LexicalCandidates += stats.LexicalCandidates
		totalStats.EmbeddingCandidates += stats.EmbeddingCandidates
		totalStats.MergedCandidates += stats.MergedCandidates

		rm := scoreRequirement(req, reqTokens, candidates, embeddingProvider, vectorIndex, cfg, hybrid)
		requirementMatches = append(requirementMatches, rm)
	}

	strategy := StrategyDeterministicLexical
	if hybrid {
		strategy = StrategyHybridLexicalEmbedding
	}

	return domain.MatchReport{
		OpportunityId:       opportunity.OpportunityId,
		MatchedAtoms:        matchedAtoms(requirementMatches),
		MissingRequirements: missingRequirements(requirementMatches),
		RequirementMatches:  requirementMatches,
		Breakdown:           breakdown(requirementMatches, cfg.Weights),
		OverallScore:        overallScore(requirementMatches),
		RetrievalStats:      totalStats,
		Strategy:            strategy,
	}
}

func selectCandidates(reqTokens []string, verified []domain.ExperienceAtom, req domain.Requirement, provider embedding.Provider, index embedding.Index, cfg Config, hybrid bool) ([]domain.ExperienceAtom, domain.RetrievalStats) {
	if !hybrid {
		return verified, domain.RetrievalStats{LexicalCandidates: len(verified), EmbeddingCandidates: 0, MergedCandidates: len(verified)}
	}

	type overlapCount struct {
		atom    domain.ExperienceAtom
		overlap int
	}
	var lexicalHits []overlapCount
	for _, a := range verified {
		n := len(textproc.Intersect(reqTokens, a.TokenSet()))
		if n > 0 {
			lexicalHits = append(lexicalHits, overlapCount{atom: a, overlap: n})
		}
	}
	sort.SliceStable(lexicalHits, func(i, j int) bool {
		if lexicalHits[i].overlap != lexicalHits[j].overlap {
			return lexicalHits[i].overlap > lexicalHits[j].overlap
		}
		return lexicalHits[i].atom.AtomId.Value() < lexicalHits[j].atom.AtomId.Value()
	})
	if len(lexicalHits) > cfg.KLexical {
		lexicalHits = lexicalHits[:cfg.KLexical]
	}

	merged := make(map[string]domain.ExperienceAtom)
	for _, h := range lexicalHits {
		merged[h.atom.AtomId.Value()] = h.atom
	}
	lexicalCount := len(merged)

	embeddingCount := 0
	reqEmbedding := provider.EmbedText(req.Text)
	if len(reqEmbedding) > 0 {
		results := index.Query(reqEmbedding, cfg.KEmbedding)
		byId := make(map[string]domain.ExperienceAtom, len(verified))
		for _, a := range verified {
			byId[a.AtomId.Value()] = a
		}
		embeddingCount = len(results)
		for _, r := range results {
			if a, ok := byId[r.Key]; ok {
				merged[a.AtomId.Value()] = a
			}
		}
	}

	out := make([]domain.ExperienceAtom, 0, len(merged))
	for _, a := range merged {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AtomId.Value() < out[j].AtomId.Value() })

	return out, domain.RetrievalStats{
		LexicalCandidates:   lexicalCount,
		EmbeddingCandidates: embeddingCount,
		MergedCandidates:    len(out),
	}
}

func scoreRequirement(req domain.Requirement, reqTokens []string, candidates []domain.ExperienceAtom, provider embedding.Provider, index embedding.Index, cfg Config, hybrid bool) domain.RequirementMatch {
	var reqEmbedding embedding.Vector
	if hybrid {
		reqEmbedding = provider.EmbedText(req.Text)
	}

	results := make([]scoredCandidate, 0, len(candidates))

	for _, atom := range candidates {
		evidence := textproc.Intersect(reqTokens, atom.TokenSet())
		lexical := 0.0
		if len(reqTokens) > 0 {
			lexical = float64(len(evidence)) / float64(len(reqTokens))
		}

		semantic := 0.0
		if hybrid && len(reqEmbedding) > 0 {
			if vec, ok := index.Get(atom.AtomId.Value()); ok {
				semantic = embedding.CosineSimilarity(reqEmbedding, vec)
			}
		}

		score := cfg.Weights.Lexical*lexical + cfg.Weights.Semantic*semantic
		results = append(results, scoredCandidate{atom: atom, score: score, evidence: evidence})
	}

	rm := domain.RequirementMatch{RequirementText: req.Text}
	best := pickBest(results)
	if best != nil {
		rm.BestScore = best.score
		rm.EvidenceTokens = sortedCopy(best.evidence)
		if best.score > 0 {
			rm.Matched = true
			rm.ContributingAtomId = best.atom.AtomId
		}
	}
	return rm
}

type scoredCandidate struct {
	atom     domain.ExperienceAtom
	score    float64
	evidence []string
}

// pickBest returns the candidate with the highest score, tie-broken by the
// lexicographically smallest atom_id among candidates within
// tieBreakTolerance of the maximum.
func pickBest(results []scoredCandidate) *scoredCandidate {
	if len(results) == 0 {
		return nil
	}
	maxScore := results[0].score
	for _, r := range results[1:] {
		if r.score > maxScore {
			maxScore = r.score
		}
	}
	var best *scoredCandidate
	for i, r := range results {
		if maxScore-r.score > tieBreakTolerance {
			continue
		}
		if best == nil || r.atom.AtomId.Value() < best.atom.AtomId.Value() {
			best = &results[i]
		}
	}
	return best
}

func sortedCopy(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}

func matchedAtoms(rms []domain.RequirementMatch) []domain.AtomId {
	seen := make(map[string]bool)
	var ids []string
	for _, rm := range rms {
		if rm.Matched && rm.ContributingAtomId.Value() != "" {
			v := rm.ContributingAtomId.Value()
			if !seen[v] {
				seen[v] = true
				ids = append(ids, v)
			}
		}
	}
	sort.Strings(ids)
	out := make([]domain.AtomId, len(ids))
	for i, id := range ids {
		out[i] = domain.AtomId(id)
	}
	return out
}

func missingRequirements(rms []domain.RequirementMatch) []string {
	var out []string
	for _, rm := range rms {
		if !rm.Matched {
			out = append(out, rm.RequirementText)
		}
	}
	return out
}

func overallScore(rms []domain.RequirementMatch) float64 {
	if len(rms) == 0 {
		return 0
	}
	var sum float64
	for _, rm := range rms {
		sum += rm.BestScore
	}
	return sum / float64(len(rms))
}

func breakdown(rms []domain.RequirementMatch, weights ScoreWeights) domain.ScoreBreakdown {
	return domain.ScoreBreakdown{
		Lexical:    weights.Lexical,
		Semantic:   weights.Semantic,
		Bonus:      weights.Bonus,
		FinalScore: overallScore(rms),
	}
}
