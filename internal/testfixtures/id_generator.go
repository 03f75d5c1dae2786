package testfixtures

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// IDGenerator yields deterministic "prefix-N" identifiers, standing in for
// the UUID generator the server wires in production.
type IDGenerator struct {
	counter atomic.Uint64

	mu     sync.Mutex
	prefix string
}

// NewIDGenerator constructs a generator for the given prefix. When prefix is
// empty, "id" is used.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	gen := &IDGenerator{}
	gen.prefix = prefix
	return gen
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	n := g.counter.Add(1)
	g.mu.Lock()
	prefix := g.prefix
	g.mu.Unlock()
	return fmt.Sprintf("%s-%d", prefix, n)
}

// NextFunc exposes Next in the `func() string` shape the services accept.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// SetPrefix updates the generator prefix for subsequent identifiers.
func (g *IDGenerator) SetPrefix(prefix string) {
	g.mu.Lock()
	g.prefix = prefix
	g.mu.Unlock()
}

// SetCounter overrides the sequence position, enabling deterministic resets.
func (g *IDGenerator) SetCounter(counter uint64) {
	g.counter.Store(counter)
}
