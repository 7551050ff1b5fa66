package mcpserver

import (
	"bytes"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ToolDef describes one tool's static metadata for the tools/list
// response and the compiled schema tools/call validates params against.
type ToolDef struct {
	Name        string
	Description string
	RawSchema   map[string]interface{}
	compiled    *jsonschema.Schema
}

func strSchema() map[string]interface{} {
	return map[string]interface{}{"type": "string"}
}

func toolSchemas() map[string]*ToolDef {
	tools := []*ToolDef{
		{
			Name:        "match_opportunity",
			Description: "Score an opportunity's requirements against a candidate atom set and validate the resulting match report.",
			RawSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"opportunity_id": strSchema(),
					"strategy":       map[string]interface{}{"type": "string", "enum": []interface{}{"lexical", "hybrid"}},
					"k_lex":          map[string]interface{}{"type": "integer", "minimum": 1},
					"k_emb":          map[string]interface{}{"type": "integer", "minimum": 1},
					"trace_id":       strSchema(),
					"resume_id":      strSchema(),
					"atom_ids":       map[string]interface{}{"type": "array", "items": strSchema()},
				},
				"required":             []interface{}{"opportunity_id"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "validate_match_report",
			Description: "Run the constitutional validation engine over a previously produced match report.",
			RawSchema: map[string]interface{}{
				"type":                 "object",
				"properties":           map[string]interface{}{"match_report": map[string]interface{}{"type": "object"}},
				"required":             []interface{}{"match_report"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "get_audit_trace",
			Description: "Fetch and verify the hash-chained audit events recorded under a trace_id.",
			RawSchema: map[string]interface{}{
				"type":                 "object",
				"properties":           map[string]interface{}{"trace_id": strSchema()},
				"required":             []interface{}{"trace_id"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "interaction_apply_event",
			Description: "Apply an idempotent state-transition event to an interaction.",
			RawSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"interaction_id":  strSchema(),
					"event":           map[string]interface{}{"type": "string", "enum": []interface{}{"Prepare", "Send", "ReceiveReply", "Close"}},
					"idempotency_key": strSchema(),
					"trace_id":        strSchema(),
				},
				"required":             []interface{}{"interaction_id", "event", "idempotency_key"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "ingest_resume",
			Description: "Ingest raw resume text from a source path, applying hygiene normalization and hash-based dedup.",
			RawSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"input_path": strSchema(),
					"persist":    map[string]interface{}{"type": "boolean"},
					"trace_id":   strSchema(),
				},
				"required":             []interface{}{"input_path"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "index_build",
			Description: "Scan atoms/resumes/opportunities for source-hash drift and refresh the embedding index.",
			RawSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"scope":    map[string]interface{}{"type": "string", "enum": []interface{}{"atoms", "resumes", "opps", "all"}},
					"trace_id": strSchema(),
				},
				"additionalProperties": false,
			},
		},
		{
			Name:        "get_decision",
			Description: "Fetch a recorded decision by decision_id.",
			RawSchema: map[string]interface{}{
				"type":                 "object",
				"properties":           map[string]interface{}{"decision_id": strSchema()},
				"required":             []interface{}{"decision_id"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "list_decisions",
			Description: "List every decision recorded under a trace_id, ordered by decision_id ascending.",
			RawSchema: map[string]interface{}{
				"type":                 "object",
				"properties":           map[string]interface{}{"trace_id": strSchema()},
				"required":             []interface{}{"trace_id"},
				"additionalProperties": false,
			},
		},
	}

	out := make(map[string]*ToolDef, len(tools))
	for _, t := range tools {
		out[t.Name] = t
	}
	return out
}

// compileSchemas compiles every tool's RawSchema with the jsonschema
// compiler, so tools/call can validate params before dispatch (spec.md
// §6: a schema mismatch yields -32602).
func compileSchemas(tools map[string]*ToolDef) error {
	compiler := jsonschema.NewCompiler()
	for name, t := range tools {
		raw, err := json.Marshal(t.RawSchema)
		if err != nil {
			return err
		}
		resourceURL := "mem://tool/" + name + ".json"
		if err := compiler.AddResource(resourceURL, bytes.NewReader(raw)); err != nil {
			return err
		}
	}
	for name, t := range tools {
		resourceURL := "mem://tool/" + name + ".json"
		schema, err := compiler.Compile(resourceURL)
		if err != nil {
			return err
		}
		t.compiled = schema
	}
	return nil
}
