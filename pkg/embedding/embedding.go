// Package embedding implements the deterministic embedding providers and
// vector indexes of spec.md §4.4.
package embedding

import (
	"math"

	"github.com/atomledger/provenance-engine/pkg/hashing"
	"github.com/atomledger/provenance-engine/pkg/textproc"
)

// Vector is a dense float32 embedding.
type Vector []float32

// Provider converts text to a Vector. Implementations must be
// deterministic: identical input yields identical output byte-for-byte.
type Provider interface {
	EmbedText(text string) Vector
	Dimension() int
}

// NullProvider always returns the empty vector; Dimension is 0.
type NullProvider struct{}

func NewNullProvider() NullProvider { return NullProvider{} }

func (NullProvider) EmbedText(string) Vector { return Vector{} }
func (NullProvider) Dimension() int          { return 0 }

const defaultDimension = 128

// DeterministicStubProvider buckets token counts by stable hash into a
// fixed-width vector, spreads a fraction of each count into the
// neighbouring bucket, and L2-normalises. It never calls out to a network
// or a model; it exists so the matching and index-build pipelines can be
// exercised end-to-end without a real embedding backend.
type DeterministicStubProvider struct {
	dim int
}

// NewDeterministicStubProvider returns a provider with dimension dim. A
// dim of 0 falls back to defaultDimension.
func NewDeterministicStubProvider(dim int) DeterministicStubProvider {
	if dim <= 0 {
		dim = defaultDimension
	}
	return DeterministicStubProvider{dim: dim}
}

func (p DeterministicStubProvider) Dimension() int { return p.dim }

func (p DeterministicStubProvider) EmbedText(text string) Vector {
	tokens := textproc.TokenizeDefault(text)
	if len(tokens) == 0 {
		return make(Vector, p.dim)
	}
	buckets := make([]float64, p.dim)
	for _, tok := range tokens {
		bucket := bucketFor(tok, p.dim)
		buckets[bucket] += 1
		buckets[(bucket+1)%p.dim] += 0.3
	}
	var sumSq float64
	for _, v := range buckets {
		sumSq += v * v
	}
	norm := math.Sqrt(sumSq)
	out := make(Vector, p.dim)
	if norm == 0 {
		return out
	}
	for i, v := range buckets {
		out[i] = float32(v / norm)
	}
	return out
}

func bucketFor(token string, dim int) int {
	h := hashing.StableHash64HexString(token)
	var v uint64
	for i := 0; i < len(h); i++ {
		v = v*16 + uint64(hexDigit(h[i]))
	}
	return int(v % uint64(dim))
}

func hexDigit(b byte) uint64 {
	switch {
	case b >= '0' && b <= '9':
		return uint64(b - '0')
	case b >= 'a' && b <= 'f':
		return uint64(b-'a') + 10
	default:
		return 0
	}
}

// CosineSimilarity returns the cosine similarity of a and b clamped to
// [0,1]. Mismatched lengths or a zero vector yield 0.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// VectorHash returns stable_hash64_hex over the vector's raw float32 bytes.
func VectorHash(v Vector) string {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		bits := math.Float32bits(f)
		buf[4*i] = byte(bits)
		buf[4*i+1] = byte(bits >> 8)
		buf[4*i+2] = byte(bits >> 16)
		buf[4*i+3] = byte(bits >> 24)
	}
	return hashing.StableHash64Hex(buf)
}
