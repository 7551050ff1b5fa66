package mcpserver_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atomledger/provenance-engine/pkg/audit"
	"github.com/atomledger/provenance-engine/pkg/decision"
	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/ids"
	"github.com/atomledger/provenance-engine/pkg/indexbuild"
	"github.com/atomledger/provenance-engine/pkg/interaction"
	"github.com/atomledger/provenance-engine/pkg/mcpserver"
	"github.com/atomledger/provenance-engine/pkg/pipeline"
	"github.com/atomledger/provenance-engine/pkg/storage/memory"
	"github.com/atomledger/provenance-engine/pkg/validation/rules"
)

func newTestServer(t *testing.T) *mcpserver.Server {
	t.Helper()

	atoms := memory.NewAtomRepository()
	atoms.Upsert(domain.ExperienceAtom{AtomId: "atom-a", Title: "Backend", Claim: "built a go service", Tags: []string{"go"}, Verified: true})

	opportunities := memory.NewOpportunityRepository()
	opportunities.Upsert(domain.Opportunity{
		OpportunityId: "opp-1",
		RoleTitle:     "Engineer",
		Requirements:  []domain.Requirement{{Text: "go service experience", Required: true}},
	})

	deps := pipeline.Deps{
		IdGen: ids.NewCounterGenerator(),
		Clock: ids.NewFixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		Audit: audit.NewMemoryAuditLog(),
	}

	srv, err := mcpserver.NewServer(
		deps,
		atoms,
		opportunities,
		memory.NewResumeStore(),
		rules.Default(),
		nil, nil,
		indexbuild.NewMemoryRunStore(),
		decision.NewMemoryStore(),
		interaction.NewMemoryCoordinator(),
		nil,
		"stub", "stub-v1", "v1",
	)
	require.NoError(t, err)
	return srv
}

func callTool(t *testing.T, srv *mcpserver.Server, name string, args interface{}) map[string]interface{} {
	t.Helper()
	argsJSON, err := json.Marshal(args)
	require.NoError(t, err)

	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      name,
			"arguments": json.RawMessage(argsJSON),
		},
	}
	reqJSON, err := json.Marshal(req)
	require.NoError(t, err)

	raw := srv.HandleMessage(context.Background(), "", reqJSON)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

func TestToolsList_ReturnsEightTools(t *testing.T) {
	srv := newTestServer(t)
	req := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	raw := srv.HandleMessage(context.Background(), "", req)

	var resp struct {
		Result []struct {
			Name string `json:"name"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.Len(t, resp.Result, 8)
}

func TestMatchOpportunity_HappyPath(t *testing.T) {
	srv := newTestServer(t)
	resp := callTool(t, srv, "match_opportunity", map[string]interface{}{"opportunity_id": "opp-1"})
	require.Nil(t, resp["error"])
	require.NotNil(t, resp["result"])
}

func TestMatchOpportunity_MissingRequiredParamIsInvalidParams(t *testing.T) {
	srv := newTestServer(t)
	resp := callTool(t, srv, "match_opportunity", map[string]interface{}{})
	require.NotNil(t, resp["error"])
	errObj := resp["error"].(map[string]interface{})
	require.Equal(t, float64(mcpserver.CodeInvalidParams), errObj["code"])
}

func TestToolsCall_UnknownMethodNotFound(t *testing.T) {
	srv := newTestServer(t)
	req := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/explode"}`)
	raw := srv.HandleMessage(context.Background(), "", req)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &resp))
	errObj := resp["error"].(map[string]interface{})
	require.Equal(t, float64(mcpserver.CodeMethodNotFound), errObj["code"])
}

func TestParseError_OnInvalidJSON(t *testing.T) {
	srv := newTestServer(t)
	raw := srv.HandleMessage(context.Background(), "", []byte("{not json"))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &resp))
	errObj := resp["error"].(map[string]interface{})
	require.Equal(t, float64(mcpserver.CodeParseError), errObj["code"])
}

func TestGetDecision_NotFoundSurfacesInternalError(t *testing.T) {
	srv := newTestServer(t)
	resp := callTool(t, srv, "get_decision", map[string]interface{}{"decision_id": "missing"})
	require.NotNil(t, resp["error"])
}
