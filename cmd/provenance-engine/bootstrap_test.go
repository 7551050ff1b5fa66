package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomledger/provenance-engine/pkg/config"
	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/validation/rules"
)

func TestBuildConstitution_NoCELRulesReturnsDefault(t *testing.T) {
	cfg := config.Default()

	got, err := buildConstitution(cfg)
	require.NoError(t, err)

	want := rules.Default()
	assert.Equal(t, want.Id, got.Id)
	assert.Equal(t, len(want.Rules), len(got.Rules))
}

func TestBuildConstitution_AppendsConfiguredCELRule(t *testing.T) {
	cfg := config.Default()
	cfg.Validation.CELRules = []config.CELRuleConfig{
		{
			Id:         "CEL-SCORE-MIN",
			Version:    "1.0",
			Expression: "match_report != null && match_report.overall_score >= 0.5",
			Severity:   "Warn",
			Message:    "overall_score below 0.5",
		},
	}

	got, err := buildConstitution(cfg)
	require.NoError(t, err)

	base := rules.Default()
	require.Len(t, got.Rules, len(base.Rules)+1)
	assert.Equal(t, "CEL-SCORE-MIN", got.Rules[len(got.Rules)-1].Id)
}

func TestBuildConstitution_InvalidCELExpressionErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Validation.CELRules = []config.CELRuleConfig{
		{Id: "CEL-BROKEN", Expression: "match_report.overall_score >="},
	}

	_, err := buildConstitution(cfg)
	require.Error(t, err)
}

func TestBuildConstitution_AppendsEnabledPolicyBundleRule(t *testing.T) {
	dir := t.TempDir()
	bundle := `{
		"version": "1.0",
		"name": "ops-overrides",
		"rules": [
			{"id": "BUNDLE-BLOCK-LOW-SCORE", "name": "block low score", "expression": "match_report != null && match_report.overall_score >= 0.2", "action": "BLOCK", "priority": 1, "enabled": true},
			{"id": "BUNDLE-DISABLED", "expression": "true", "action": "WARN", "priority": 5, "enabled": false}
		]
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ops.json"), []byte(bundle), 0o600))

	cfg := config.Default()
	cfg.Validation.PolicyBundleDir = dir

	got, err := buildConstitution(cfg)
	require.NoError(t, err)

	base := rules.Default()
	require.Len(t, got.Rules, len(base.Rules)+1)
	assert.Equal(t, "BUNDLE-BLOCK-LOW-SCORE", got.Rules[len(got.Rules)-1].Id)
}

func TestBuildConstitution_MissingPolicyBundleDirErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Validation.PolicyBundleDir = filepath.Join(t.TempDir(), "does-not-exist")

	_, err := buildConstitution(cfg)
	require.Error(t, err)
}

func writeSeedFile(t *testing.T, v interface{}) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.json")
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestOpenAtomStore_NilConfigDefaultsToMemory(t *testing.T) {
	path := writeSeedFile(t, []domain.ExperienceAtom{{AtomId: "atom-1", Verified: true}})

	store, err := openAtomStore(nil, path)
	require.NoError(t, err)

	got, ok := store.Get(domain.AtomId("atom-1"))
	require.True(t, ok)
	assert.True(t, got.Verified)
}

func TestOpenAtomStore_SQLiteBackendSeedsFromFile(t *testing.T) {
	path := writeSeedFile(t, []domain.ExperienceAtom{{AtomId: "atom-1", Domain: "engineering"}})

	cfg := config.Default()
	cfg.Storage.Backend = config.StorageSQLite
	cfg.Storage.DSN = ":memory:"

	store, err := openAtomStore(cfg, path)
	require.NoError(t, err)

	got, ok := store.Get(domain.AtomId("atom-1"))
	require.True(t, ok)
	assert.Equal(t, "engineering", got.Domain)
}

func TestOpenOpportunityStore_SQLiteBackendSeedsFromFile(t *testing.T) {
	path := writeSeedFile(t, []domain.Opportunity{{OpportunityId: "opp-1", Company: "Acme"}})

	cfg := config.Default()
	cfg.Storage.Backend = config.StorageSQLite
	cfg.Storage.DSN = ":memory:"

	store, err := openOpportunityStore(cfg, path)
	require.NoError(t, err)

	got, ok := store.Get(domain.OpportunityId("opp-1"))
	require.True(t, ok)
	assert.Equal(t, "Acme", got.Company)
}
