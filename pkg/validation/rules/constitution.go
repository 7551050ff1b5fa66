package rules

import "github.com/atomledger/provenance-engine/pkg/validation"

// Default builds the "core" constitution: all eight named rules of
// spec.md §4.5, the MatchReport rules first and then the TokenIR rules,
// each group in Block/Fail/Warn severity order. Callers that need a
// different rule set (a test fixture, a tenant-specific override) build
// their own Constitution directly via validation.NewBuilder.
func Default() validation.Constitution {
	return validation.NewBuilder("core", "1.0").
		With(Schema001()).
		With(Evid001()).
		With(Score001()).
		With(Tok001()).
		With(Tok002()).
		With(Tok003()).
		With(Tok004()).
		With(Tok005()).
		Build()
}
