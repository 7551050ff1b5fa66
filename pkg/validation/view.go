// Package validation implements the constitutional validation engine: a
// pipeline of typed rules run over a typed ArtifactView, producing a
// ValidationReport and, optionally, applying an operator override to a
// single Block finding.
package validation

import "github.com/atomledger/provenance-engine/pkg/domain"

// ArtifactView is a closed sum type over the artifact kinds rules can
// inspect. Modeling it this way — rather than open subtyping with runtime
// downcasts — lets each rule pattern-match and silently skip variants it
// doesn't apply to, per spec.md §9's design note; the compiler enforces the
// shape instead of a runtime cast-failure Block finding (except SCHEMA-001,
// which intentionally still emits one for a type mismatch on MatchReport).
type ArtifactView struct {
	MatchReport *MatchReportView
	TokenIR     *TokenIRView
}

// MatchReportView wraps a MatchReport for rules that inspect match output.
type MatchReportView struct {
	Report *domain.MatchReport
}

// TokenIRView wraps a ResumeTokenIR together with the canonical resume hash
// and text it should have been derived from.
type TokenIRView struct {
	IR                  *domain.ResumeTokenIR
	CanonicalResumeHash string
	CanonicalResumeText string // empty means "not available"
}

// ArtifactEnvelope pairs an artifact identity with its typed view. The
// identity is what a ConstitutionOverrideRequest binds to.
type ArtifactEnvelope struct {
	ArtifactId string
	Artifact   ArtifactView
}
