package testutil

import (
	"fmt"
	"sync"
)

// SequentialRunIDs generates predictable run ids: "<prefix>-0001",
// "<prefix>-0002", and so on.
//
// This enables golden snapshot comparison of run reports and ledger rows.
//
// Thread-safety: Generate is safe for concurrent use.
type SequentialRunIDs struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequentialRunIDs creates a generator. An empty prefix becomes "run".
func NewSequentialRunIDs(prefix string) *SequentialRunIDs {
	if prefix == "" {
		prefix = "run"
	}
	return &SequentialRunIDs{prefix: prefix}
}

// Generate returns the next id.
//
// Implements engine.RunIDGenerator.
func (g *SequentialRunIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%04d", g.prefix, g.next)
}
