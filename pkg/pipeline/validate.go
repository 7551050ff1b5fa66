package pipeline

import (
	"github.com/atomledger/provenance-engine/pkg/audit"
	"github.com/atomledger/provenance-engine/pkg/validation"
)

// RunValidation implements run_validation_pipeline: call the engine's base
// Validate, emit ValidationCompleted, then — only if an override was
// supplied — apply it via validation.ApplyOverride and emit
// ConstitutionOverrideApplied when it actually promoted the status.
func RunValidation(deps Deps, traceId string, constitution validation.Constitution, envelope validation.ArtifactEnvelope, override *validation.ConstitutionOverrideRequest) (report validation.ValidationReport, err error) {
	endSpan := deps.Telemetry.TrackPipeline(traceId, "run_validation_pipeline")
	defer func() { endSpan(string(report.Status), err) }()

	report = validation.Validate(constitution, envelope, validation.Context{
		ConstitutionId:      constitution.Id,
		ConstitutionVersion: constitution.Version,
		TraceId:             traceId,
	})

	if err := deps.emit(traceId, audit.EventValidationCompleted, map[string]interface{}{
		"status":        string(report.Status),
		"finding_count": len(report.Findings),
	}); err != nil {
		return report, err
	}

	if override == nil {
		return report, nil
	}

	overridden := validation.ApplyOverride(report, override)
	if overridden.Status == validation.StatusOverridden && report.Status != validation.StatusOverridden {
		if err := deps.emit(traceId, audit.EventConstitutionOverrideApplied, map[string]interface{}{
			"rule_id":     override.RuleId,
			"operator_id": override.OperatorId,
			"reason":      override.Reason,
		}); err != nil {
			return overridden, err
		}
	}

	return overridden, nil
}
