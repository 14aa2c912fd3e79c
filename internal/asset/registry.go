package asset

import (
	"sort"
	"sync"
)

// Registry maps exchange-native symbols (e.g. "ETHBTC") to pairs.
type Registry struct {
	mu       sync.RWMutex
	bySymbol map[string]Pair
	byPair   map[Pair]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bySymbol: make(map[string]Pair),
		byPair:   make(map[Pair]string),
	}
}

// Register records symbol as the exchange name for p. Re-registering replaces the entry.
func (r *Registry) Register(symbol string, p Pair) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.bySymbol[symbol]; ok {
		delete(r.byPair, old)
	}
	r.bySymbol[symbol] = p
	r.byPair[p] = symbol
}

// Pair resolves an exchange symbol.
func (r *Registry) Pair(symbol string) (Pair, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.bySymbol[symbol]
	return p, ok
}

// Symbol resolves a pair to its exchange symbol.
func (r *Registry) Symbol(p Pair) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byPair[p]
	return s, ok
}

// Pairs returns all registered pairs sorted by their string form.
func (r *Registry) Pairs() []Pair {
	r.mu.RLock()
	out := make([]Pair, 0, len(r.byPair))
	for p := range r.byPair {
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Assets returns every symbol that appears in a registered pair, sorted.
func (r *Registry) Assets() []Symbol {
	r.mu.RLock()
	seen := make(map[Symbol]struct{}, len(r.byPair))
	for p := range r.byPair {
		seen[p.Base] = struct{}{}
		seen[p.Quote] = struct{}{}
	}
	r.mu.RUnlock()

	out := make([]Symbol, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Count returns the number of registered pairs.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySymbol)
}
