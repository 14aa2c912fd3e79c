package app

import (
	"context"
	"sort"
	"time"

	"github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/internal/apperror"
	"github.com/fd1az/triangular-arbitrage/internal/asset"
)

// Finder enumerates directed triangles over the pairs that currently have a
// two-sided ticker.
type Finder struct {
	tickers       TickerSource
	maxCandidates int
	now           func() time.Time
}

// NewFinder caps the output at maxCandidates; zero keeps every cycle.
func NewFinder(tickers TickerSource, maxCandidates int) *Finder {
	return &Finder{tickers: tickers, maxCandidates: maxCandidates, now: time.Now}
}

// Candidates returns every directed cycle sorted by rate, descending.
func (f *Finder) Candidates(ctx context.Context) ([]*domain.Cycle, error) {
	tickers, err := f.tickers.Tickers(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeTickersFetchFailed, "candidates")
	}

	g := newPairGraph(tickers)
	ts := f.now()
	var cycles []*domain.Cycle

	for _, x := range g.assets {
		for _, y := range g.neighbours(x) {
			for _, z := range g.neighbours(y) {
				if z == x {
					continue
				}
				if _, ok := g.links[z][x]; !ok {
					continue
				}
				c, err := g.cycle(x, y, z, ts)
				if err != nil {
					continue
				}
				cycles = append(cycles, c)
			}
		}
	}

	sort.SliceStable(cycles, func(i, j int) bool {
		if cmp := cycles[i].Rate.Cmp(cycles[j].Rate); cmp != 0 {
			return cmp > 0
		}
		return cycles[i].ID < cycles[j].ID
	})
	if f.maxCandidates > 0 && len(cycles) > f.maxCandidates {
		cycles = cycles[:f.maxCandidates]
	}
	return cycles, nil
}

type pairGraph struct {
	assets  []asset.Symbol
	links   map[asset.Symbol]map[asset.Symbol]domain.Ticker
	ordered map[asset.Symbol][]asset.Symbol
}

func newPairGraph(tickers []domain.Ticker) *pairGraph {
	g := &pairGraph{
		links:   make(map[asset.Symbol]map[asset.Symbol]domain.Ticker),
		ordered: make(map[asset.Symbol][]asset.Symbol),
	}
	link := func(u, v asset.Symbol, t domain.Ticker) {
		if g.links[u] == nil {
			g.links[u] = make(map[asset.Symbol]domain.Ticker)
		}
		g.links[u][v] = t
	}
	for _, t := range tickers {
		if !t.Usable() || t.Pair.Base == t.Pair.Quote {
			continue
		}
		link(t.Pair.Base, t.Pair.Quote, t)
		link(t.Pair.Quote, t.Pair.Base, t)
	}
	for u, vs := range g.links {
		g.assets = append(g.assets, u)
		for v := range vs {
			g.ordered[u] = append(g.ordered[u], v)
		}
		sort.Slice(g.ordered[u], func(i, j int) bool { return g.ordered[u][i] < g.ordered[u][j] })
	}
	sort.Slice(g.assets, func(i, j int) bool { return g.assets[i] < g.assets[j] })
	return g
}

func (g *pairGraph) neighbours(u asset.Symbol) []asset.Symbol {
	return g.ordered[u]
}

func (g *pairGraph) cycle(x, y, z asset.Symbol, ts time.Time) (*domain.Cycle, error) {
	a, err := g.edge(x, y)
	if err != nil {
		return nil, err
	}
	b, err := g.edge(y, z)
	if err != nil {
		return nil, err
	}
	c, err := g.edge(z, x)
	if err != nil {
		return nil, err
	}
	return domain.NewCycle(a, b, c, ts)
}

// edge converts u into v: buying at the ask when v is the base, selling at the
// bid when u is the base. Sizes are set only when the ticker carries them.
func (g *pairGraph) edge(u, v asset.Symbol) (*domain.Edge, error) {
	t := g.links[u][v]
	if t.Pair.Base == v {
		e, err := domain.NewEdge(t.Pair, domain.SideBuy, t.Ask)
		if err == nil && t.AskSize.IsPositive() {
			e.SetQuantity(t.AskSize)
		}
		return e, err
	}
	e, err := domain.NewEdge(t.Pair, domain.SideSell, t.Bid)
	if err == nil && t.BidSize.IsPositive() {
		e.SetQuantity(t.BidSize)
	}
	return e, err
}
