package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/atomledger/provenance-engine/pkg/config"
	"github.com/atomledger/provenance-engine/pkg/embedding"
	"github.com/atomledger/provenance-engine/pkg/embedding/remote"
	"github.com/atomledger/provenance-engine/pkg/embedding/wasmplugin"
	"github.com/atomledger/provenance-engine/pkg/interaction"
	"github.com/atomledger/provenance-engine/pkg/mcpserver"
	"github.com/atomledger/provenance-engine/pkg/mcpserver/auth"
	"github.com/atomledger/provenance-engine/pkg/telemetry"
)

// runMCPServeCmd implements `provenance-engine mcp-serve`: wires a
// pkg/mcpserver.Server per pkg/config.Config and runs its stdio loop
// against stdin/stdout until EOF or SIGINT/SIGTERM. The same atoms/
// opportunities/resumes/audit-log/decision-store/run-store flags as the
// one-shot subcommands seed the server's in-process state, since the
// server holds everything in memory (or file-backed stores) for the
// lifetime of the process rather than per invocation.
func runMCPServeCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("mcp-serve", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		configPath        string
		atomsPath         string
		opportunitiesPath string
		resumesPath       string
		auditLogPath      string
		decisionStorePath string
		runStorePath      string
		authHeader        string
	)
	cmd.StringVar(&configPath, "config", "", "Path to a YAML config file (empty = defaults + PROVENANCE_* env overrides)")
	cmd.StringVar(&atomsPath, "atoms", "", "Path to a JSON array of ExperienceAtom to seed")
	cmd.StringVar(&opportunitiesPath, "opportunities", "", "Path to a JSON array of Opportunity to seed")
	cmd.StringVar(&resumesPath, "resumes", "", "Path to a JSON array of IngestedResume to seed")
	cmd.StringVar(&auditLogPath, "audit-log", "", "Path to a JSON-Lines audit log file (empty = in-memory only)")
	cmd.StringVar(&decisionStorePath, "decision-store", "", "Path to a JSON-Lines decision store file (empty = in-memory only)")
	cmd.StringVar(&runStorePath, "run-store", "", "Path to a JSON snapshot run store file (empty = in-memory only)")
	cmd.StringVar(&authHeader, "auth-header", "", "Bearer token presented once for the whole stdio session")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	atoms, err := openAtomStore(cfg, atomsPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	opportunities, err := openOpportunityStore(cfg, opportunitiesPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	resumes, err := loadResumes(resumesPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telemetryProvider, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer telemetryProvider.Shutdown(context.Background())

	deps, err := newDeps(auditLogPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	deps.Telemetry = telemetryProvider

	decisions, err := openDecisionStore(decisionStorePath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	runStore, err := openRunStore(runStorePath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	var embeddingProvider embedding.Provider = embedding.NewNullProvider()
	switch cfg.Embedding.Provider {
	case "stub":
		embeddingProvider = embedding.NewDeterministicStubProvider(cfg.Embedding.Dimension)
	case "remote":
		if cfg.Embedding.RemoteURL == "" {
			fmt.Fprintln(stderr, "Error: embedding.provider is \"remote\" but embedding.remote_url is empty")
			return 2
		}
		embeddingProvider = remote.New(remote.Config{
			Endpoint:    cfg.Embedding.RemoteURL,
			APIKey:      os.Getenv(cfg.Embedding.RemoteAPIKeyEnv),
			Model:       cfg.Embedding.RemoteModel,
			Dimension:   cfg.Embedding.Dimension,
			RequestRate: rate.Limit(cfg.Embedding.RemoteRequestsPerSec),
			Burst:       cfg.Embedding.RemoteBurst,
		})
	case "wasm":
		if cfg.Embedding.WasmPath == "" {
			fmt.Fprintln(stderr, "Error: embedding.provider is \"wasm\" but embedding.wasm_path is empty")
			return 2
		}
		wasmBytes, err := os.ReadFile(cfg.Embedding.WasmPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		wasmProvider, err := wasmplugin.New(ctx, wasmBytes, wasmplugin.Config{Dimension: cfg.Embedding.Dimension})
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		defer func() { _ = wasmProvider.Close(context.Background()) }()
		embeddingProvider = wasmProvider
	}
	vectorIndex := embedding.NewMemoryIndex()

	var validator *auth.Validator
	if cfg.MCP.RequireAuth {
		key := os.Getenv(cfg.MCP.JWTSigningKeyEnv)
		if key == "" {
			fmt.Fprintf(stderr, "Error: mcp.require_auth is set but %s is empty\n", cfg.MCP.JWTSigningKeyEnv)
			return 2
		}
		validator = auth.NewValidator([]byte(key))
	}

	constitution, err := buildConstitution(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	var coordinator interaction.Coordinator = interaction.NewMemoryCoordinator()
	if cfg.Coordinator.Backend == "redis" {
		if cfg.Coordinator.RedisURL == "" {
			fmt.Fprintln(stderr, "Error: coordinator.backend is \"redis\" but coordinator.redis_url is empty")
			return 2
		}
		opts, err := redis.ParseURL(cfg.Coordinator.RedisURL)
		if err != nil {
			fmt.Fprintf(stderr, "Error: parse coordinator.redis_url: %v\n", err)
			return 2
		}
		redisClient := redis.NewClient(opts)
		defer func() { _ = redisClient.Close() }()
		coordinator = interaction.NewRedisCoordinator(redisClient)
	}

	server, err := mcpserver.NewServer(
		deps, atoms, opportunities, resumes,
		constitution,
		embeddingProvider, vectorIndex,
		runStore, decisions,
		coordinator,
		validator,
		cfg.IndexBuild.ProviderId, cfg.IndexBuild.ModelId, cfg.IndexBuild.PromptVersion,
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if err := server.Serve(ctx, os.Stdin, stdout, authHeader); err != nil && err != context.Canceled {
		fmt.Fprintf(stderr, "Error: serve: %v\n", err)
		return 2
	}
	return 0
}
