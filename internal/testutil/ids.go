package testutil

import (
	"fmt"
	"sync"
)

// FixedIDs hands out predetermined record IDs in order.
//
// Safe for concurrent use.
type FixedIDs struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDs creates a generator returning ids in order.
//
//	gen := NewFixedIDs("rec-a", "rec-b")
//	gen.Generate() // "rec-a"
//	gen.Generate() // "rec-b"
//	gen.Generate() // panic: all IDs consumed
func NewFixedIDs(ids ...string) *FixedIDs {
	return &FixedIDs{ids: ids}
}

// Generate returns the next ID. Panics once every ID was handed out, which
// flags a test that imports more layers than it planned for.
func (g *FixedIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic(fmt.Sprintf("FixedIDs: all %d IDs consumed", len(g.ids)))
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// Remaining returns how many IDs are left.
func (g *FixedIDs) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.ids) - g.idx
}
