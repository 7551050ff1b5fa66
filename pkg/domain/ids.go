// Package domain holds the engine's entity and value types: experience
// atoms, opportunities, resumes, match reports, decisions, index runs,
// interactions, and the typed identifiers that bind them together.
package domain

// Typed string-wrapper identifiers. IDs are opaque to every component
// except the generator that minted them; wrapping them in distinct types
// prevents accidentally passing an OpportunityId where an AtomId is
// expected.

type AtomId string
type OpportunityId string
type ResumeId string
type InteractionId string
type ContactId string
type TraceId string
type RunId string
type DecisionId string
type EventId string

func (id AtomId) Value() string        { return string(id) }
func (id OpportunityId) Value() string { return string(id) }
func (id ResumeId) Value() string      { return string(id) }
func (id InteractionId) Value() string { return string(id) }
func (id ContactId) Value() string     { return string(id) }
func (id TraceId) Value() string       { return string(id) }
func (id RunId) Value() string         { return string(id) }
func (id DecisionId) Value() string    { return string(id) }
func (id EventId) Value() string       { return string(id) }
