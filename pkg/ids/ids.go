// Package ids provides the injected identity and clock seams that all
// non-determinism in the engine flows through. Swapping the counter-based
// generator and fixed clock in for their production counterparts is what
// makes the rest of the system bit-reproducible.
package ids

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Generator issues opaque string identifiers with a given prefix.
// IDs are opaque to every component except the generator itself.
type Generator interface {
	Next(prefix string) string
}

// Clock returns the current wall-clock time.
type Clock interface {
	Now() time.Time
}

// CounterGenerator issues deterministic, monotonically increasing IDs of the
// form "{prefix}-{n}". It is the seam production tests and fixtures use to
// get byte-reproducible runs.
type CounterGenerator struct {
	mu      sync.Mutex
	counter uint64
}

// NewCounterGenerator returns a CounterGenerator starting at 0.
func NewCounterGenerator() *CounterGenerator {
	return &CounterGenerator{}
}

func (g *CounterGenerator) Next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", prefix, g.counter)
}

// UUIDGenerator issues RFC 4122 UUIDs prefixed by the caller-supplied label.
// This is the production generator; it is not deterministic and must not be
// used in any test asserting byte-reproducibility.
type UUIDGenerator struct{}

// NewUUIDGenerator returns a production-grade, non-deterministic Generator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Next(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// FixedClock always returns the same instant. Used to make pipeline output
// byte-reproducible in tests and offline demos.
type FixedClock struct {
	instant time.Time
}

// NewFixedClock returns a Clock pinned at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{instant: t}
}

func (c *FixedClock) Now() time.Time {
	return c.instant
}

// SystemClock delegates to time.Now, UTC-normalized.
type SystemClock struct{}

// NewSystemClock returns the production wall-clock Clock.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

func (c *SystemClock) Now() time.Time {
	return time.Now().UTC()
}
