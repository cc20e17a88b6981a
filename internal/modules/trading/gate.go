package trading

import (
	"sync"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
)

// MutationGate serializes mutations of one asset class. Different classes
// never wait on each other. A disabled gate never blocks.
type MutationGate struct {
	enabled bool

	mu    sync.Mutex
	locks map[domain.AssetClass]*sync.Mutex
}

// NewMutationGate creates a gate; enabled=false makes Lock a no-op
func NewMutationGate(enabled bool) *MutationGate {
	return &MutationGate{
		enabled: enabled,
		locks:   make(map[domain.AssetClass]*sync.Mutex),
	}
}

// Lock blocks until no other mutation of class is running and returns the
// release func. A nil gate behaves as disabled.
func (g *MutationGate) Lock(class domain.AssetClass) func() {
	if g == nil || !g.enabled {
		return func() {}
	}

	g.mu.Lock()
	l, ok := g.locks[class]
	if !ok {
		l = &sync.Mutex{}
		g.locks[class] = l
	}
	g.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Enabled reports whether the gate serializes anything
func (g *MutationGate) Enabled() bool {
	return g != nil && g.enabled
}
