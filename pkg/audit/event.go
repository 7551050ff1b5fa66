// Package audit implements the append-only, per-trace hash-chained event
// log of spec.md §4.7.
package audit

import "time"

// EventType enumerates the event kinds pipelines emit. The set is fixed;
// new event kinds require a spec change, not ad-hoc strings at call sites.
type EventType string

const (
	EventRunStarted                      EventType = "RunStarted"
	EventMatchCompleted                  EventType = "MatchCompleted"
	EventValidationCompleted             EventType = "ValidationCompleted"
	EventConstitutionOverrideApplied     EventType = "ConstitutionOverrideApplied"
	EventRunCompleted                    EventType = "RunCompleted"
	EventIngestStarted                   EventType = "IngestStarted"
	EventIngestCompleted                 EventType = "IngestCompleted"
	EventIndexBuildStarted               EventType = "IndexBuildStarted"
	EventIndexBuildCompleted             EventType = "IndexBuildCompleted"
	EventIndexRunStarted                 EventType = "IndexRunStarted"
	EventIndexedArtifact                 EventType = "IndexedArtifact"
	EventIndexRunCompleted               EventType = "IndexRunCompleted"
	EventInteractionTransitionAttempted  EventType = "InteractionTransitionAttempted"
	EventInteractionTransitionCompleted  EventType = "InteractionTransitionCompleted"
	EventInteractionTransitionRejected   EventType = "InteractionTransitionRejected"
	EventDecisionRecorded                EventType = "DecisionRecorded"
)

// Event is one entry on a trace's hash chain. EventHash and PreviousHash
// are computed by AuditLog.Append and must never be set by callers.
type Event struct {
	EventId      string                 `json:"event_id"`
	TraceId      string                 `json:"trace_id"`
	EventType    EventType              `json:"event_type"`
	CreatedAt    time.Time              `json:"created_at"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
	Refs         []string               `json:"refs,omitempty"`
	Idx          uint64                 `json:"idx"`
	PreviousHash string                 `json:"previous_hash"`
	EventHash    string                 `json:"event_hash"`
}

// hashableFields is the subset of Event whose canonical JSON feeds
// event_hash (spec.md §4.7 step 3): created_at, event_id, event_type,
// payload, refs, trace_id — explicitly excluding idx and both hash fields.
type hashableFields struct {
	CreatedAt time.Time              `json:"created_at"`
	EventId   string                 `json:"event_id"`
	EventType EventType              `json:"event_type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Refs      []string               `json:"refs,omitempty"`
	TraceId   string                 `json:"trace_id"`
}

func (e Event) hashable() hashableFields {
	return hashableFields{
		CreatedAt: e.CreatedAt,
		EventId:   e.EventId,
		EventType: e.EventType,
		Payload:   e.Payload,
		Refs:      e.Refs,
		TraceId:   e.TraceId,
	}
}
