package validation

import (
	"sort"

	"github.com/atomledger/provenance-engine/pkg/hashing"
)

// Validate runs constitution against envelope under ctx and returns the
// base report: one of Accepted, NeedsReview, Rejected, or Blocked. Override
// promotion to Overridden is the enclosing pipeline's responsibility via
// ApplyOverride (spec.md §9 design note) — Validate itself never sees a
// ConstitutionOverrideRequest. The returned report's findings are sorted by
// severity, then rule_id, then insertion order (spec.md §4.5).
func Validate(constitution Constitution, envelope ArtifactEnvelope, ctx Context) ValidationReport {
	var findings []Finding
	order := 0
	for _, rule := range constitution.Rules {
		for _, f := range rule.Evaluate(envelope, ctx) {
			f.insertionOrder = order
			order++
			findings = append(findings, f)
		}
	}

	status := deriveStatus(findings)

	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if severityRank[a.Severity] != severityRank[b.Severity] {
			return severityRank[a.Severity] < severityRank[b.Severity]
		}
		if a.RuleId != b.RuleId {
			return a.RuleId < b.RuleId
		}
		return a.insertionOrder < b.insertionOrder
	})

	return ValidationReport{
		ReportId:            "report-" + envelope.ArtifactId,
		TraceId:             ctx.TraceId,
		ArtifactId:          envelope.ArtifactId,
		ConstitutionId:      constitution.Id,
		ConstitutionVersion: constitution.Version,
		Status:              status,
		Findings:            findings,
	}
}

// ApplyOverride is the enclosing-pipeline wrapper spec.md §9 requires:
// Validate never sees a ConstitutionOverrideRequest, so a pipeline that
// wants to honor one calls this afterward. If report.Status is Blocked and
// some Block finding has RuleId == override.RuleId and
// override.PayloadHash == sha256_hex(report.ArtifactId), the status is
// promoted to Overridden. The Block finding is never removed — the
// override is an additive audit decision. A non-binding or non-matching
// override is silently inert.
func ApplyOverride(report ValidationReport, override *ConstitutionOverrideRequest) ValidationReport {
	if override == nil || report.Status != StatusBlocked {
		return report
	}
	expectedHash := hashing.SHA256HexString(report.ArtifactId)
	for _, f := range report.Findings {
		if f.Severity == SeverityBlock && f.RuleId == override.RuleId && override.PayloadHash == expectedHash {
			report.Status = StatusOverridden
			return report
		}
	}
	return report
}

// deriveStatus scans findings in rule order: a Block finding sets Blocked
// (sticky), a Fail finding promotes Accepted|NeedsReview -> Rejected but
// never overrides Blocked, and a Warn finding promotes Accepted ->
// NeedsReview only.
func deriveStatus(findings []Finding) Status {
	status := StatusAccepted
	for _, f := range findings {
		switch f.Severity {
		case SeverityBlock:
			status = StatusBlocked
		case SeverityFail:
			if status == StatusAccepted || status == StatusNeedsReview {
				status = StatusRejected
			}
		case SeverityWarn:
			if status == StatusAccepted {
				status = StatusNeedsReview
			}
		}
	}
	return status
}
