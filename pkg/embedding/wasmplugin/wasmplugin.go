// Package wasmplugin runs a third-party embedding model as a sandboxed
// WASI module instead of loading it into the host process. An operator
// supplies a compiled .wasm binary; the module reads UTF-8 text on stdin
// and must write a JSON array of float32 to stdout, a single text-to-vector
// call rather than an arbitrary byte-stream RPC.
//
// Deny-by-default: no filesystem, no network, no environment variables
// are wired into the guest module. Memory and wall-clock time are capped
// so a misbehaving or malicious module can't exhaust the host process.
package wasmplugin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/atomledger/provenance-engine/pkg/embedding"
)

// OutputMaxBytes bounds a single module invocation's stdout+stderr.
const OutputMaxBytes = 1024 * 1024

// Config bounds one Provider's resource usage.
type Config struct {
	MemoryLimitBytes int64         // wazero rounds up to 64KB pages; 0 means no explicit cap
	CallTimeout      time.Duration // 0 falls back to DefaultCallTimeout
	Dimension        int           // declared output dimension, for embedding.Provider.Dimension
}

// DefaultCallTimeout bounds a single embed_text call when Config.CallTimeout
// is unset.
const DefaultCallTimeout = 5 * time.Second

// Provider runs a compiled WASI module to embed text. It implements
// embedding.Provider; a module failure is swallowed into a zero vector,
// since that interface has no error return — EmbedContext exposes the
// underlying error for callers that want it.
type Provider struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	cfg      Config
}

// New compiles wasmBytes once and returns a Provider that can run it
// repeatedly. The caller must call Close when finished.
func New(ctx context.Context, wasmBytes []byte, cfg Config) (*Provider, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitBytes > 0 {
		pages := uint32(cfg.MemoryLimitBytes / 65536)
		if pages == 0 {
			pages = 1
		}
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(pages)
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}

	r := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("wasmplugin: instantiate WASI: %w", err)
	}

	compiled, err := r.CompileModule(ctx, wasmBytes)
	if err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("wasmplugin: compile module: %w", err)
	}

	return &Provider{runtime: r, compiled: compiled, cfg: cfg}, nil
}

// Close releases the wazero runtime and compiled module.
func (p *Provider) Close(ctx context.Context) error {
	if err := p.compiled.Close(ctx); err != nil {
		return err
	}
	return p.runtime.Close(ctx)
}

func (p *Provider) Dimension() int { return p.cfg.Dimension }

// EmbedText implements embedding.Provider, swallowing any guest error or
// malformed output into the zero vector of Dimension().
func (p *Provider) EmbedText(text string) embedding.Vector {
	vec, err := p.EmbedContext(context.Background(), text)
	if err != nil {
		return make(embedding.Vector, p.cfg.Dimension)
	}
	return vec
}

// EmbedContext instantiates a fresh module instance for this call (wazero
// modules are not safely reusable across concurrent invocations), feeds
// text on stdin, and decodes a JSON float32 array from stdout.
func (p *Provider) EmbedContext(ctx context.Context, text string) (embedding.Vector, error) {
	execCtx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	modCfg := wazero.NewModuleConfig().
		WithName("embedding-plugin").
		WithStdin(bytes.NewReader([]byte(text))).
		WithStdout(&stdout).
		WithStderr(&stderr)
	// Deny-by-default: no WithFSConfig, no WithSysNanotime, no WithRandSource,
	// no WithEnv — the guest sees nothing but stdin/stdout/stderr.

	mod, err := p.runtime.InstantiateModule(execCtx, p.compiled, modCfg)
	if err != nil {
		if execCtx.Err() != nil {
			return nil, fmt.Errorf("wasmplugin: execution exceeded %v", p.cfg.CallTimeout)
		}
		return nil, fmt.Errorf("wasmplugin: instantiate: %w", err)
	}
	defer func() { _ = mod.Close(execCtx) }()

	if stdout.Len()+stderr.Len() > OutputMaxBytes {
		return nil, fmt.Errorf("wasmplugin: output exceeds %d bytes", OutputMaxBytes)
	}
	if stderr.Len() > 0 {
		return nil, fmt.Errorf("wasmplugin: stderr: %s", stderr.String())
	}

	var vec embedding.Vector
	if err := json.Unmarshal(stdout.Bytes(), &vec); err != nil {
		return nil, fmt.Errorf("wasmplugin: decode stdout as float32 array: %w", err)
	}
	return vec, nil
}
