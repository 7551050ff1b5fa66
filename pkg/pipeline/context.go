// Package pipeline implements the orchestration pipelines of spec.md §4.9:
// each resolves or generates a trace_id, emits a Started audit event,
// performs its core work, and emits a terminal event carrying a summary —
// all events sharing one trace.
package pipeline

import (
	"github.com/atomledger/provenance-engine/pkg/audit"
	"github.com/atomledger/provenance-engine/pkg/ids"
	"github.com/atomledger/provenance-engine/pkg/telemetry"
)

// Deps bundles the collaborators every pipeline needs: the determinism
// seams, the audit log, and the telemetry provider. Individual pipelines
// take additional repository/engine dependencies as explicit parameters.
// Telemetry is a *telemetry.Provider rather than an interface since a nil
// Provider is itself a valid no-op value — Deps{} zero-values cleanly.
type Deps struct {
	IdGen     ids.Generator
	Clock     ids.Clock
	Audit     audit.AuditLog
	Telemetry *telemetry.Provider
}

func (d Deps) emit(traceId string, eventType audit.EventType, payload map[string]interface{}, refs ...string) error {
	_, err := d.Audit.Append(audit.Event{
		EventId:   d.IdGen.Next("evt"),
		TraceId:   traceId,
		EventType: eventType,
		CreatedAt: d.Clock.Now(),
		Payload:   payload,
		Refs:      refs,
	})
	return err
}

func resolveTraceId(idGen ids.Generator, requested string) string {
	if requested != "" {
		return requested
	}
	return idGen.Next("trace")
}
