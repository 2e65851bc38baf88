package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator generates entry ids "<prefix>-0001", "<prefix>-0002", ...
//
// This enables deterministic test execution and golden snapshot comparison.
// Implements history.IDGenerator.
//
// Thread-safety: SequenceGenerator is safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequenceGenerator creates a generator. If prefix is empty, "entry" is
// used.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "entry"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next id in sequence.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%04d", g.prefix, g.next)
}
