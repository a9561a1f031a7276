// Package idgen produces the unique, sortable identifiers the builder and
// dispatcher need: millisecond-based int64 ids for tabs, sections and
// components, and ULID strings for trace numbers.
package idgen

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out ids. Int64 ids are derived from the wall clock in
// milliseconds and bumped when two requests land in the same millisecond,
// so ids stay unique and sort by creation order within one generator.
type Generator struct {
	mu      sync.Mutex
	last    int64
	now     func() time.Time
	entropy *ulid.MonotonicEntropy
}

// New creates a generator backed by the wall clock.
func New() *Generator {
	return &Generator{
		now:     time.Now,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// NewWithClock creates a generator with an injected clock, for tests.
func NewWithClock(now func() time.Time) *Generator {
	g := New()
	g.now = now
	return g
}

// NextID returns a unique, monotonically increasing int64 id.
func (g *Generator) NextID() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// TraceNo returns a lexically sortable unique trace number.
func (g *Generator) TraceNo() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}
