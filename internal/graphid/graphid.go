// Package graphid names the graphs new triples are written to when the
// caller does not name one.
package graphid

import (
	"sync"

	"github.com/google/uuid"
)

// Generator produces graph names.
type Generator interface {
	Generate() string
}

// UUIDv7 generates time-sortable UUIDv7 graph names, so graphs imported later
// sort after earlier ones.
//
// UUIDv7 is stateless and safe for concurrent use.
type UUIDv7 struct{}

// Generate returns a new hyphenated UUIDv7. It panics if the random source
// fails.
func (UUIDv7) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Fixed returns predetermined graph names in order.
type Fixed struct {
	mu    sync.Mutex
	names []string
	idx   int
}

// NewFixed creates a generator that returns names in order.
//
//	gen := NewFixed("graph-1", "graph-2")
//	gen.Generate() // "graph-1"
//	gen.Generate() // "graph-2"
//	gen.Generate() // panic: all names used
func NewFixed(names ...string) *Fixed {
	return &Fixed{names: names}
}

// Generate returns the next name. It panics once every name has been used,
// which means a test wrote more graphs than it declared.
func (g *Fixed) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.names) {
		panic("graphid.Fixed: all names used")
	}
	name := g.names[g.idx]
	g.idx++
	return name
}
