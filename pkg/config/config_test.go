package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/atomledger/provenance-engine/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefault verifies the engine boots into a fully in-memory, no-auth
// mode when no config file is supplied.
func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, config.StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, "local", cfg.IndexBuild.ProviderId)
	assert.False(t, cfg.MCP.RequireAuth)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_EmptyPathReturnsDefault(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.StorageMemory, cfg.Storage.Backend)
}

func TestLoad_ParsesYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "provenance-engine.yaml")
	contents := `
storage:
  backend: postgres
  dsn: "postgres://localhost/provenance"
embedding:
  provider: stub
  dimension: 64
  remote_url: "https://embed.example.com/v1/embeddings"
  remote_requests_per_sec: 4
index_build:
  provider_id: acme
  model_id: embed-v2
  prompt_version: v3
mcp:
  require_auth: true
telemetry:
  enabled: true
  otlp_endpoint: "collector:4317"
  sample_rate: 0.5
log_level: DEBUG
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.StoragePostgres, cfg.Storage.Backend)
	assert.Equal(t, "postgres://localhost/provenance", cfg.Storage.DSN)
	assert.Equal(t, 64, cfg.Embedding.Dimension)
	assert.Equal(t, "https://embed.example.com/v1/embeddings", cfg.Embedding.RemoteURL)
	assert.InDelta(t, 4, cfg.Embedding.RemoteRequestsPerSec, 0.0001)
	assert.Equal(t, "acme", cfg.IndexBuild.ProviderId)
	assert.True(t, cfg.MCP.RequireAuth)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "collector:4317", cfg.Telemetry.OTLPEndpoint)
	assert.InDelta(t, 0.5, cfg.Telemetry.SampleRate, 0.0001)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestLoad_ParsesValidationCELRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "provenance-engine.yaml")
	contents := `
validation:
  cel_rules:
    - id: CEL-SCORE-MIN
      version: "1.0"
      expression: "match_report != null && match_report.overall_score >= 0.5"
      severity: Warn
      message: "overall_score below 0.5"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Validation.CELRules, 1)
	assert.Equal(t, "CEL-SCORE-MIN", cfg.Validation.CELRules[0].Id)
	assert.Equal(t, "Warn", cfg.Validation.CELRules[0].Severity)
}

func TestLoad_ParsesValidationPolicyBundleDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "provenance-engine.yaml")
	contents := `
validation:
  policy_bundle_dir: "/etc/provenance-engine/policy-bundles"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/etc/provenance-engine/policy-bundles", cfg.Validation.PolicyBundleDir)
}

func TestLoad_ParsesCoordinatorConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "provenance-engine.yaml")
	contents := `
coordinator:
  backend: redis
  redis_url: "redis://localhost:6379/0"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Coordinator.Backend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Coordinator.RedisURL)
}

func TestLoad_DefaultCoordinatorIsMemory(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "memory", cfg.Coordinator.Backend)
}

func TestLoad_EnvOverridesStorageBackend(t *testing.T) {
	t.Setenv("PROVENANCE_STORAGE_BACKEND", "sqlite")
	t.Setenv("PROVENANCE_STORAGE_DSN", "file:test.db")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.StorageSQLite, cfg.Storage.Backend)
	assert.Equal(t, "file:test.db", cfg.Storage.DSN)
}

func TestLoad_EnvOverridesCoordinatorRedisURL(t *testing.T) {
	t.Setenv("PROVENANCE_COORDINATOR_REDIS_URL", "redis://cache:6379/0")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Coordinator.Backend)
	assert.Equal(t, "redis://cache:6379/0", cfg.Coordinator.RedisURL)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
