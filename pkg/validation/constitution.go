package validation

// Context accompanies a validation call: the identity of the constitution
// being applied, the correlating trace, and any ground-truth references
// rules may cite as evidence.
type Context struct {
	ConstitutionId      string
	ConstitutionVersion string
	TraceId             string
	GroundTruthRefs     []string
}

// Rule is a named, versioned, side-effect-free predicate over an
// ArtifactEnvelope. It returns zero or more findings; an empty slice means
// "not applicable" or "no issue found" — rules never panic and never
// mutate their inputs.
type Rule struct {
	Id          string
	Version     string
	Description string
	Evaluate    func(envelope ArtifactEnvelope, ctx Context) []Finding
}

// Constitution is an ordered, immutable list of rules identified by id and
// version. It is a value — built once with a builder, never mutated or
// dynamically loaded (spec.md §9).
type Constitution struct {
	Id      string
	Version string
	Rules   []Rule
}

// Builder assembles a Constitution one rule at a time.
type Builder struct {
	id      string
	version string
	rules   []Rule
}

// NewBuilder starts a Constitution builder identified by id/version.
func NewBuilder(id, version string) *Builder {
	return &Builder{id: id, version: version}
}

// With appends a rule to the constitution under construction and returns
// the builder for chaining.
func (b *Builder) With(r Rule) *Builder {
	b.rules = append(b.rules, r)
	return b
}

// Build finalizes the Constitution.
func (b *Builder) Build() Constitution {
	return Constitution{Id: b.id, Version: b.version, Rules: append([]Rule(nil), b.rules...)}
}
