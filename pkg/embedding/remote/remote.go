// Package remote implements embedding.Provider against an HTTP embedding
// service, for deployments that want real model vectors instead of the
// deterministic stub. It is not on the determinism-critical path spec.md
// §9 describes for matching and index_build — those pipelines are tested
// against embedding.DeterministicStubProvider — but a deployment may wire
// this provider in when it wants genuine semantic vectors and accepts the
// non-determinism that comes with calling out to a network.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/atomledger/provenance-engine/pkg/embedding"
	"github.com/atomledger/provenance-engine/pkg/util/resiliency"
)

// Config configures Provider.
type Config struct {
	Endpoint    string        // POST target, e.g. "https://api.openai.com/v1/embeddings"
	APIKey      string        // sent as "Authorization: Bearer <APIKey>"
	Model       string        // model identifier sent in the request body
	Dimension   int           // declared output dimension, for embedding.Provider.Dimension
	RequestRate rate.Limit    // steady-state requests/sec the remote service allows
	Burst       int           // burst capacity above RequestRate
	Timeout     time.Duration // per-request HTTP timeout
}

// Provider calls a remote HTTP embedding endpoint, rate-limited so a
// misbehaving caller can't exceed the remote service's quota. It
// implements embedding.Provider for drop-in use in pipeline.Deps-style
// wiring, and additionally exposes EmbedContext for callers that want the
// underlying error instead of a silently zeroed vector.
type Provider struct {
	cfg     Config
	client  *resiliency.EnhancedClient
	limiter *rate.Limiter
}

// New builds a Provider. A zero cfg.Timeout defaults to 30s, matching the
// teacher's OpenAIEmbedder client. The underlying HTTP call goes through
// resiliency.EnhancedClient, so a transient 5xx from the embedding service
// is retried with backoff, and a service that keeps failing trips the
// circuit breaker instead of being hammered.
func New(cfg Config) *Provider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestRate <= 0 {
		cfg.RequestRate = rate.Every(time.Second / 2) // 2 req/s default
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	return &Provider{
		cfg:     cfg,
		client:  resiliency.NewEnhancedClientWithTimeout(cfg.Timeout),
		limiter: rate.NewLimiter(cfg.RequestRate, cfg.Burst),
	}
}

func (p *Provider) Dimension() int { return p.cfg.Dimension }

// EmbedText implements embedding.Provider. Errors are swallowed into the
// zero vector of Dimension() — the Provider interface has no error
// return, so a caller needing failure visibility should call EmbedContext
// directly instead.
func (p *Provider) EmbedText(text string) embedding.Vector {
	vec, err := p.EmbedContext(context.Background(), text)
	if err != nil {
		return make(embedding.Vector, p.cfg.Dimension)
	}
	return vec
}

// EmbedContext waits for rate-limiter admission, then POSTs text to
// cfg.Endpoint and decodes a single embedding vector from the response.
func (p *Provider) EmbedContext(ctx context.Context, text string) (embedding.Vector, error) {
	if p.cfg.Endpoint == "" {
		return nil, errors.New("remote: empty endpoint")
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("remote: rate limiter: %w", err)
	}

	body, err := json.Marshal(map[string]any{"input": text, "model": p.cfg.Model})
	if err != nil {
		return nil, fmt.Errorf("remote: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote: embedding service returned %d", resp.StatusCode)
	}

	var decoded struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("remote: decode response: %w", err)
	}
	if len(decoded.Data) == 0 {
		return nil, errors.New("remote: no embedding returned")
	}
	return embedding.Vector(decoded.Data[0].Embedding), nil
}
