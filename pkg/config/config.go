// Package config loads the engine's deployment configuration: storage
// backend selection, embedding dimension, index-build defaults, and MCP
// transport settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/atomledger/provenance-engine/pkg/telemetry"
)

// StorageBackend selects which repository implementations the engine
// constructs at startup.
type StorageBackend string

const (
	StorageMemory   StorageBackend = "memory"
	StorageSQLite   StorageBackend = "sqlite"
	StoragePostgres StorageBackend = "postgres"
)

// StorageConfig selects the repository backend and its connection string.
// DSN is ignored for StorageMemory.
type StorageConfig struct {
	Backend StorageBackend `yaml:"backend" json:"backend"`
	DSN     string         `yaml:"dsn,omitempty" json:"dsn,omitempty"`
}

// EmbeddingConfig configures the hybrid matching embedding provider.
type EmbeddingConfig struct {
	Provider             string  `yaml:"provider" json:"provider"` // "null" | "stub" | "remote" | "wasm"
	Dimension            int     `yaml:"dimension" json:"dimension"`
	RemoteURL            string  `yaml:"remote_url,omitempty" json:"remote_url,omitempty"`
	RemoteModel          string  `yaml:"remote_model,omitempty" json:"remote_model,omitempty"`
	RemoteAPIKeyEnv      string  `yaml:"remote_api_key_env,omitempty" json:"remote_api_key_env,omitempty"`
	RemoteRequestsPerSec float64 `yaml:"remote_requests_per_sec,omitempty" json:"remote_requests_per_sec,omitempty"`
	RemoteBurst          int     `yaml:"remote_burst,omitempty" json:"remote_burst,omitempty"`
	WasmPath             string  `yaml:"wasm_path,omitempty" json:"wasm_path,omitempty"`
}

// IndexBuildConfig carries the drift-key identity index_build stamps on
// every entry, per spec.md §6's (provider_id, model_id, prompt_version)
// triple.
type IndexBuildConfig struct {
	ProviderId    string `yaml:"provider_id" json:"provider_id"`
	ModelId       string `yaml:"model_id" json:"model_id"`
	PromptVersion string `yaml:"prompt_version" json:"prompt_version"`
}

// MCPConfig configures the JSON-RPC tool surface's authentication.
type MCPConfig struct {
	JWTSigningKeyEnv string `yaml:"jwt_signing_key_env" json:"jwt_signing_key_env"`
	RequireAuth      bool   `yaml:"require_auth" json:"require_auth"`
}

// CoordinatorConfig selects the interaction.Coordinator backend mcp-serve
// constructs. "memory" (the default) loses all pending interaction state
// on restart; "redis" persists it, for a server redeployed or scaled
// across processes.
type CoordinatorConfig struct {
	Backend  string `yaml:"backend" json:"backend"` // "memory" | "redis"
	RedisURL string `yaml:"redis_url,omitempty" json:"redis_url,omitempty"`
}

// CELRuleConfig declares one supplementary declarative rule, compiled and
// appended to the base constitution at startup (see pkg/validation/cel).
type CELRuleConfig struct {
	Id          string `yaml:"id" json:"id"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Expression  string `yaml:"expression" json:"expression"`
	Severity    string `yaml:"severity" json:"severity"` // Warn | Fail | Block
	Message     string `yaml:"message" json:"message"`
}

// ValidationConfig configures the constitutional validation engine beyond
// its eight built-in rules.
type ValidationConfig struct {
	CELRules []CELRuleConfig `yaml:"cel_rules,omitempty" json:"cel_rules,omitempty"`

	// PolicyBundleDir, when set, is scanned at startup for *.json policy
	// bundle files (pkg/policyloader.PolicyBundle): each enabled rule in
	// each bundle is compiled and appended to the constitution the same
	// way a CELRules entry is, letting an operator add or change a rule
	// by dropping a file instead of redeploying.
	PolicyBundleDir string `yaml:"policy_bundle_dir,omitempty" json:"policy_bundle_dir,omitempty"`
}

// Config is the engine's top-level deployment configuration, loaded from
// a provenance-engine.yaml file.
type Config struct {
	Storage     StorageConfig     `yaml:"storage" json:"storage"`
	Embedding   EmbeddingConfig   `yaml:"embedding" json:"embedding"`
	IndexBuild  IndexBuildConfig  `yaml:"index_build" json:"index_build"`
	MCP         MCPConfig         `yaml:"mcp" json:"mcp"`
	Telemetry   telemetry.Config  `yaml:"telemetry" json:"telemetry"`
	Validation  ValidationConfig  `yaml:"validation" json:"validation"`
	Coordinator CoordinatorConfig `yaml:"coordinator" json:"coordinator"`
	LogLevel    string            `yaml:"log_level" json:"log_level"`
}

// Default returns the engine's safe, fully in-memory, non-networked
// configuration: the mode every CLI subcommand and test fixture falls
// back to when no config file is given.
func Default() *Config {
	return &Config{
		Storage:   StorageConfig{Backend: StorageMemory},
		Embedding: EmbeddingConfig{Provider: "null", Dimension: 0},
		IndexBuild: IndexBuildConfig{
			ProviderId:    "local",
			ModelId:       "lexical-only",
			PromptVersion: "v1",
		},
		MCP:         MCPConfig{RequireAuth: false},
		Telemetry:   telemetry.DefaultConfig(),
		Coordinator: CoordinatorConfig{Backend: "memory"},
		LogLevel:    "INFO",
	}
}

// Load reads and parses a provenance-engine.yaml file at path, then
// applies the PROVENANCE_ env-var overrides a deployment's init system
// would set. An empty path skips the file and returns Default() with the
// env-var overrides applied.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if backend := os.Getenv("PROVENANCE_STORAGE_BACKEND"); backend != "" {
		cfg.Storage.Backend = StorageBackend(backend)
	}
	if dsn := os.Getenv("PROVENANCE_STORAGE_DSN"); dsn != "" {
		cfg.Storage.DSN = dsn
	}
	if level := os.Getenv("PROVENANCE_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if endpoint := os.Getenv("PROVENANCE_TELEMETRY_OTLP_ENDPOINT"); endpoint != "" {
		cfg.Telemetry.Enabled = true
		cfg.Telemetry.OTLPEndpoint = endpoint
	}
	if url := os.Getenv("PROVENANCE_COORDINATOR_REDIS_URL"); url != "" {
		cfg.Coordinator.Backend = "redis"
		cfg.Coordinator.RedisURL = url
	}
}
