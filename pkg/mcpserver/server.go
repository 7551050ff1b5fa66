package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/atomledger/provenance-engine/pkg/apperr"
	"github.com/atomledger/provenance-engine/pkg/decision"
	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/embedding"
	"github.com/atomledger/provenance-engine/pkg/indexbuild"
	"github.com/atomledger/provenance-engine/pkg/interaction"
	"github.com/atomledger/provenance-engine/pkg/matching"
	"github.com/atomledger/provenance-engine/pkg/mcpserver/auth"
	"github.com/atomledger/provenance-engine/pkg/pipeline"
	"github.com/atomledger/provenance-engine/pkg/storage/memory"
	"github.com/atomledger/provenance-engine/pkg/validation"
)

// AtomStore is what the server needs from an atom repository: the match
// pipeline's pipeline.AtomLister plus ListAll for the index_build
// tool's full-catalogue listing. pkg/storage/memory, pkg/storage/sqlite,
// and pkg/storage/postgres all satisfy it.
type AtomStore interface {
	pipeline.AtomLister
	ListAll() []domain.ExperienceAtom
}

// OpportunityStore is OpportunityGetter plus ListAll, the opportunity
// counterpart to AtomStore.
type OpportunityStore interface {
	pipeline.OpportunityGetter
	ListAll() []domain.Opportunity
}

// serverName/serverVersion are reported by the initialize method.
const (
	serverName    = "provenance-engine"
	serverVersion = "0.3"
)

// Server dispatches JSON-RPC 2.0 tool calls onto the engine's pipelines.
// It holds every collaborator a tool handler might need; individual
// handlers narrow to the subset interface they actually use.
type Server struct {
	Deps pipeline.Deps

	Atoms         AtomStore
	Opportunities OpportunityStore
	Resumes       *memory.ResumeStore

	Constitution validation.Constitution

	EmbeddingProvider embedding.Provider
	VectorIndex       embedding.Index

	IndexRuns   indexbuild.RunStore
	Decisions   decision.Store
	Coordinator interaction.Coordinator

	// IndexProviderId/IndexModelId/IndexPromptVersion are the drift-key
	// identity index_build stamps on every entry it writes. The MCP
	// index_build tool takes no provider/model/prompt params (spec.md
	// §6's table lists only scope/trace_id), so this triple is
	// deployment configuration, supplied once at construction.
	IndexProviderId    string
	IndexModelId       string
	IndexPromptVersion string

	Validator *auth.Validator

	tools map[string]*ToolDef
}

// NewServer wires the given collaborators into a dispatch-ready Server
// and compiles every tool's JSON Schema.
func NewServer(deps pipeline.Deps, atoms AtomStore, opportunities OpportunityStore, resumes *memory.ResumeStore, constitution validation.Constitution, embeddingProvider embedding.Provider, vectorIndex embedding.Index, indexRuns indexbuild.RunStore, decisions decision.Store, coordinator interaction.Coordinator, validator *auth.Validator, indexProviderId, indexModelId, indexPromptVersion string) (*Server, error) {
	tools := toolSchemas()
	if err := compileSchemas(tools); err != nil {
		return nil, fmt.Errorf("mcpserver: compile tool schemas: %w", err)
	}
	return &Server{
		Deps:               deps,
		Atoms:              atoms,
		Opportunities:      opportunities,
		Resumes:            resumes,
		Constitution:       constitution,
		EmbeddingProvider:  embeddingProvider,
		VectorIndex:        vectorIndex,
		IndexRuns:          indexRuns,
		Decisions:          decisions,
		Coordinator:        coordinator,
		IndexProviderId:    indexProviderId,
		IndexModelId:       indexModelId,
		IndexPromptVersion: indexPromptVersion,
		Validator:          validator,
		tools:              tools,
	}, nil
}

// HandleMessage decodes, dispatches, and encodes one JSON-RPC request.
// It never returns an error itself: every failure is expressed as a
// well-formed JSON-RPC error response, per spec.md §7's "User-visible
// behaviour" note.
func (s *Server) HandleMessage(ctx context.Context, authHeader string, raw []byte) []byte {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return mustMarshal(errorResponse(nil, CodeParseError, "parse error: "+err.Error()))
	}
	if req.JSONRPC != jsonRPCVersion || req.Method == "" {
		return mustMarshal(errorResponse(req.ID, CodeInvalidRequest, "invalid request"))
	}

	resp := s.dispatch(ctx, authHeader, req)
	return mustMarshal(resp)
}

func (s *Server) dispatch(ctx context.Context, authHeader string, req Request) Response {
	switch req.Method {
	case "initialize":
		return resultResponse(req.ID, map[string]interface{}{
			"server_name":    serverName,
			"server_version": serverVersion,
			"capabilities":   map[string]interface{}{"tools": true},
		})
	case "tools/list":
		return resultResponse(req.ID, s.listTools())
	case "tools/call":
		return s.dispatchToolCall(ctx, authHeader, req)
	default:
		return errorResponse(req.ID, CodeMethodNotFound, "method not found: "+req.Method)
	}
}

type toolListEntry struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	ParamSchema map[string]interface{} `json:"params_schema"`
}

func (s *Server) listTools() []toolListEntry {
	out := make([]toolListEntry, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, toolListEntry{Name: t.Name, Description: t.Description, ParamSchema: t.RawSchema})
	}
	return out
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (s *Server) dispatchToolCall(ctx context.Context, authHeader string, req Request) Response {
	var call toolCallParams
	if err := json.Unmarshal(req.Params, &call); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "invalid tools/call params: "+err.Error())
	}

	tool, ok := s.tools[call.Name]
	if !ok {
		return errorResponse(req.ID, CodeMethodNotFound, "unknown tool: "+call.Name)
	}

	if s.Validator != nil {
		if _, err := s.Validator.ExtractOperatorID(authHeader); err != nil {
			return errorResponse(req.ID, CodeInvalidRequest, "unauthenticated: "+err.Error())
		}
	}

	var argsDoc interface{}
	rawArgs := call.Arguments
	if len(rawArgs) == 0 {
		rawArgs = []byte("{}")
	}
	if err := json.Unmarshal(rawArgs, &argsDoc); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "invalid arguments for "+call.Name+": "+err.Error())
	}
	if err := tool.compiled.Validate(argsDoc); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "schema validation failed for "+call.Name+": "+err.Error())
	}

	handler, ok := s.handlers()[call.Name]
	if !ok {
		return errorResponse(req.ID, CodeMethodNotFound, "no handler registered for tool: "+call.Name)
	}

	result, err := handler(ctx, authHeader, rawArgs)
	if err != nil {
		return errorResponse(req.ID, codeFor(err), err.Error())
	}
	return resultResponse(req.ID, result)
}

// codeFor maps the apperr taxonomy onto JSON-RPC error codes: an
// invalid-argument surfaces as -32602 (the params were unusable), every
// other apperr.Kind and any unclassified error surfaces as -32603.
func codeFor(err error) int {
	if apperr.Is(err, apperr.KindInvalidArgument) {
		return CodeInvalidParams
	}
	return CodeInternalError
}

type toolHandler func(ctx context.Context, authHeader string, rawArgs json.RawMessage) (interface{}, error)

func (s *Server) handlers() map[string]toolHandler {
	return map[string]toolHandler{
		"match_opportunity":       s.handleMatchOpportunity,
		"validate_match_report":   s.handleValidateMatchReport,
		"get_audit_trace":         s.handleGetAuditTrace,
		"interaction_apply_event": s.handleInteractionApplyEvent,
		"ingest_resume":           s.handleIngestResume,
		"index_build":             s.handleIndexBuild,
		"get_decision":            s.handleGetDecision,
		"list_decisions":          s.handleListDecisions,
	}
}

func mustMarshal(v interface{}) []byte {
	out, err := json.Marshal(v)
	if err != nil {
		// Marshalling our own Response/RPCError types cannot fail; a
		// failure here is a programmer error, not a request error.
		panic(fmt.Sprintf("mcpserver: marshal response: %v", err))
	}
	return out
}

// resolveMatchingConfig maps the optional strategy/k_lex/k_emb params
// onto a matching.Config and whether the hybrid embedding path should be
// engaged at all.
func (s *Server) resolveMatchingConfig(strategy string, kLex, kEmb int) (matching.Config, bool) {
	cfg := matching.DefaultConfig
	if kLex > 0 {
		cfg.KLexical = kLex
	}
	if kEmb > 0 {
		cfg.KEmbedding = kEmb
	}
	useHybrid := strategy == "hybrid"
	return cfg, useHybrid
}

func scopeFromParam(scope string) indexbuild.Scope {
	switch scope {
	case "atoms":
		return indexbuild.ScopeAtoms
	case "resumes":
		return indexbuild.ScopeResumes
	case "opps":
		return indexbuild.ScopeOpportunities
	case "", "all":
		return indexbuild.ScopeAll
	default:
		return indexbuild.Scope(scope)
	}
}
