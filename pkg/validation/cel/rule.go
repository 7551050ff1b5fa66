// Package cel lets an operator register supplementary Constitution rules
// as declarative CEL predicates over the same typed view projections the
// native Go rules inspect, instead of writing and redeploying Go, narrowed
// to this engine's closed ArtifactView sum type.
package cel

import (
	"fmt"
	"sync"

	celgo "github.com/google/cel-go/cel"

	"github.com/atomledger/provenance-engine/pkg/validation"
)

// Spec declares one CEL-backed rule. Expression must evaluate to a bool:
// true means the artifact satisfies the rule, false raises a Finding at
// Severity with Message. Expression sees "artifact_id", "match_report",
// and "token_ir" top-level variables, per Snapshot's projection — a
// variant that's absent from the envelope is simply `null` in CEL, so
// expressions should guard with `match_report != null` before
// dereferencing a field on it.
type Spec struct {
	Id          string
	Version     string
	Description string
	Expression  string
	Severity    validation.Severity
	Message     string
}

// Registry compiles and caches CEL programs for a fixed set of variable
// declarations, so registering many Specs against the same shape
// (artifact_id/match_report/token_ir) amortizes cel.NewEnv's cost.
type Registry struct {
	env *celgo.Env

	mu    sync.RWMutex
	progs map[string]celgo.Program
}

// NewRegistry builds a Registry with the standard snapshot variables.
func NewRegistry() (*Registry, error) {
	env, err := celgo.NewEnv(
		celgo.Variable("artifact_id", celgo.StringType),
		celgo.Variable("match_report", celgo.DynType),
		celgo.Variable("token_ir", celgo.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("cel: build environment: %w", err)
	}
	return &Registry{env: env, progs: make(map[string]celgo.Program)}, nil
}

// Rule compiles spec.Expression and returns a validation.Rule wrapping it.
// Compilation happens once, eagerly, at registration time — a malformed
// expression fails fast here rather than at first evaluation.
func (reg *Registry) Rule(spec Spec) (validation.Rule, error) {
	prog, err := reg.compile(spec.Expression)
	if err != nil {
		return validation.Rule{}, fmt.Errorf("cel: rule %s: %w", spec.Id, err)
	}

	return validation.Rule{
		Id:          spec.Id,
		Version:     spec.Version,
		Description: spec.Description,
		Evaluate: func(envelope validation.ArtifactEnvelope, _ validation.Context) []validation.Finding {
			snapshot := Snapshot(envelope)
			out, _, err := prog.Eval(map[string]any{
				"artifact_id":  snapshot["artifact_id"],
				"match_report": snapshot["match_report"],
				"token_ir":     snapshot["token_ir"],
			})
			if err != nil {
				return []validation.Finding{{
					RuleId:   spec.Id,
					Severity: validation.SeverityFail,
					Message:  fmt.Sprintf("cel rule %s: evaluation error: %v", spec.Id, err),
				}}
			}
			ok, isBool := out.Value().(bool)
			if !isBool {
				return []validation.Finding{{
					RuleId:   spec.Id,
					Severity: validation.SeverityFail,
					Message:  fmt.Sprintf("cel rule %s: expression did not evaluate to bool", spec.Id),
				}}
			}
			if ok {
				return nil
			}
			return []validation.Finding{{RuleId: spec.Id, Severity: spec.Severity, Message: spec.Message}}
		},
	}, nil
}

func (reg *Registry) compile(expr string) (celgo.Program, error) {
	reg.mu.RLock()
	prog, hit := reg.progs[expr]
	reg.mu.RUnlock()
	if hit {
		return prog, nil
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if prog, hit := reg.progs[expr]; hit {
		return prog, nil
	}

	ast, issues := reg.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile: %w", issues.Err())
	}

	prog, err := reg.env.Program(ast, celgo.InterruptCheckFrequency(100), celgo.CostLimit(10000))
	if err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	reg.progs[expr] = prog
	return prog, nil
}
