// Package matching implements the matching engine of spec.md §4.3: scoring
// experience atoms against opportunity requirements under a configurable
// lexical/hybrid strategy.
package matching

// ScoreWeights weights the three components of a requirement match score.
// Bonus is reserved and currently always 0.
type ScoreWeights struct {
	Lexical  float64
	Semantic float64
	Bonus    float64
}

// DefaultWeights is the configured weighting of spec.md §4.3.
var DefaultWeights = ScoreWeights{Lexical: 0.55, Semantic: 0.35, Bonus: 0.10}

// Config tunes candidate retrieval for the hybrid strategy.
type Config struct {
	KLexical  int
	KEmbedding int
	Weights   ScoreWeights
}

// DefaultConfig is k_lexical=25, k_embedding=25 with DefaultWeights.
var DefaultConfig = Config{KLexical: 25, KEmbedding: 25, Weights: DefaultWeights}

const (
	// StrategyDeterministicLexical is the lexical-only strategy name.
	StrategyDeterministicLexical = "DeterministicLexical_v0.1"
	// StrategyHybridLexicalEmbedding is the hybrid lexical+embedding strategy name.
	StrategyHybridLexicalEmbedding = "HybridLexicalEmbedding_v0.2"
)

// tieBreakTolerance is the absolute tolerance within which two candidate
// scores are considered tied for tie-break purposes.
const tieBreakTolerance = 1e-9

// JobMatchingPreset configures the matcher for resume-to-job matching: the
// default k's and weights, favoring lexical precision.
func JobMatchingPreset() Config { return DefaultConfig }

// CorpusPreset configures the matcher for bulk corpus retrieval, favoring
// semantic recall over lexical overlap.
func CorpusPreset() Config {
	return Config{KLexical: DefaultConfig.KLexical, KEmbedding: DefaultConfig.KEmbedding,
		Weights: ScoreWeights{Lexical: 0.35, Semantic: 0.55, Bonus: 0.10}}
}
