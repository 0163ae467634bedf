package router

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hxuan190/clmm-route-engine/internal/domain"
	"github.com/hxuan190/clmm-route-engine/internal/metrics"
)

const (
	ROUTER_SERVICE = "router.Graph"

	// MaxHops bounds path length; paths have at most one intermediate coin.
	MaxHops = 2
	// MaxCandidates caps how many candidates go into one oracle call.
	MaxCandidates = 16
)

// pairKey identifies an undirected edge; lo < hi.
type pairKey struct {
	lo, hi TokenID
}

func makePairKey(a, b TokenID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// edge holds every fee tier registered for one canonical pair.
type edge struct {
	base, quote string
	// pools sorted by fee rate ascending, one per fee rate
	pools []domain.PoolInfo
}

// graphSnapshot is an immutable view of the graph for lock-free reads
type graphSnapshot struct {
	registry  *TokenRegistry
	neighbors [][]TokenID // sorted ascending
	edges     map[pairKey]*edge
	pools     map[string]domain.PoolInfo
	loadedAt  time.Time
}

var emptySnapshot = &graphSnapshot{
	registry: newTokenRegistry(nil),
	edges:    map[pairKey]*edge{},
	pools:    map[string]domain.PoolInfo{},
}

// LoadStats summarizes one registry load.
type LoadStats struct {
	Accepted  int `json:"accepted"`
	Closed    int `json:"closed"`
	Invalid   int `json:"invalid"`
	Duplicate int `json:"duplicate"`
	Coins     int `json:"coins"`
}

// Graph is the coin routing graph. Reads go through an atomic snapshot;
// Load rebuilds the whole snapshot and swaps it under the write mutex.
type Graph struct {
	mu       sync.Mutex // Only for writes
	snapshot atomic.Pointer[graphSnapshot]
}

func NewGraph() *Graph {
	g := &Graph{}
	g.snapshot.Store(emptySnapshot)
	return g
}

func (g *Graph) ID() string {
	return ROUTER_SERVICE
}

func (g *Graph) getSnapshot() *graphSnapshot {
	if s := g.snapshot.Load(); s != nil {
		return s
	}
	return emptySnapshot
}

// Load replaces the graph with the pools of snap. Closed pools, pools with
// malformed addresses and pools whose coins are identical are discarded.
// For the same pair and fee rate only the pool with the highest TVL is kept.
func (g *Graph) Load(snap domain.RegistrySnapshot) LoadStats {
	g.mu.Lock()
	defer g.mu.Unlock()

	var stats LoadStats
	type tierKey struct {
		base, quote string
		fee         uint64
	}
	tiers := make(map[tierKey]domain.PoolInfo, len(snap.Pools))

	for _, p := range snap.Pools {
		if p.IsClosed {
			stats.Closed++
			continue
		}
		pool, ok := normalizePool(p)
		if !ok {
			stats.Invalid++
			continue
		}
		base, quote := CanonicalPair(pool.CoinA.Type, pool.CoinB.Type)
		k := tierKey{base: base, quote: quote, fee: pool.FeeRate}
		if prev, exists := tiers[k]; exists {
			stats.Duplicate++
			if !betterTVL(pool, prev) {
				continue
			}
		}
		tiers[k] = pool
	}

	coins := make(map[string]struct{})
	for k := range tiers {
		coins[k.base] = struct{}{}
		coins[k.quote] = struct{}{}
	}
	registry := newTokenRegistry(coins)

	s := &graphSnapshot{
		registry:  registry,
		neighbors: make([][]TokenID, registry.Size()),
		edges:     make(map[pairKey]*edge),
		pools:     make(map[string]domain.PoolInfo, len(tiers)),
		loadedAt:  snap.FetchedAt,
	}
	for k, pool := range tiers {
		b, _ := registry.GetID(k.base)
		q, _ := registry.GetID(k.quote)
		pk := makePairKey(b, q)
		e, ok := s.edges[pk]
		if !ok {
			e = &edge{base: k.base, quote: k.quote}
			s.edges[pk] = e
			s.neighbors[b] = append(s.neighbors[b], q)
			s.neighbors[q] = append(s.neighbors[q], b)
		}
		e.pools = append(e.pools, pool)
		s.pools[pool.Address] = pool
	}
	for _, e := range s.edges {
		sort.Slice(e.pools, func(i, j int) bool {
			return e.pools[i].FeeRate < e.pools[j].FeeRate
		})
	}
	for _, n := range s.neighbors {
		sort.Slice(n, func(i, j int) bool { return n[i] < n[j] })
	}

	stats.Accepted = len(s.pools)
	stats.Coins = registry.Size()
	g.snapshot.Store(s)

	metrics.GraphCoinCount.Set(float64(stats.Coins))
	metrics.GraphPoolCount.Set(float64(stats.Accepted))
	metrics.GraphDiscardedPools.Add(float64(stats.Closed + stats.Invalid + stats.Duplicate))
	return stats
}

func betterTVL(a, b domain.PoolInfo) bool {
	if a.TVLInUSD != b.TVLInUSD {
		return a.TVLInUSD > b.TVLInUSD
	}
	return a.Address < b.Address
}

func normalizePool(p domain.PoolInfo) (domain.PoolInfo, bool) {
	addr, err := domain.NormalizeAddress(p.Address)
	if err != nil {
		return p, false
	}
	a, err := domain.NormalizeCoinType(p.CoinA.Type)
	if err != nil {
		return p, false
	}
	b, err := domain.NormalizeCoinType(p.CoinB.Type)
	if err != nil || a == b {
		return p, false
	}
	p.Address = addr
	p.CoinA.Type = a
	p.CoinB.Type = b
	return p, true
}

// HasCoin reports whether a coin type is a vertex of the graph.
func (g *Graph) HasCoin(coin string) bool {
	_, ok := g.getSnapshot().registry.GetID(coin)
	return ok
}

// Pool returns a registered pool by normalized address.
func (g *Graph) Pool(address string) (domain.PoolInfo, bool) {
	p, ok := g.getSnapshot().pools[address]
	return p, ok
}

// Pools returns every registered pool sorted by address.
func (g *Graph) Pools() []domain.PoolInfo {
	s := g.getSnapshot()
	out := make([]domain.PoolInfo, 0, len(s.pools))
	for _, p := range s.pools {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Coins returns every coin type in the graph, sorted.
func (g *Graph) Coins() []string {
	return g.getSnapshot().registry.Coins()
}

func (g *Graph) Stats() (coins, pools int, loadedAt time.Time) {
	s := g.getSnapshot()
	return s.registry.Size(), len(s.pools), s.loadedAt
}

// FindPaths enumerates simple coin paths from one coin to another with at most
// MaxHops edges. Neighbors are visited in sorted order, so the result is
// deterministic for a given snapshot.
func (g *Graph) FindPaths(from, to string) ([][]string, error) {
	s := g.getSnapshot()
	return s.findPaths(from, to)
}

func (s *graphSnapshot) findPaths(from, to string) ([][]string, error) {
	src, ok := s.registry.GetID(from)
	if !ok {
		return nil, coinNotFound(from)
	}
	dst, ok := s.registry.GetID(to)
	if !ok {
		return nil, coinNotFound(to)
	}
	if src == dst {
		return nil, nil
	}

	var paths [][]string
	path := make([]TokenID, 0, MaxHops+1)
	var visit func(node TokenID)
	visit = func(node TokenID) {
		path = append(path, node)
		defer func() { path = path[:len(path)-1] }()

		if node == dst {
			coins := make([]string, len(path))
			for i, id := range path {
				coins[i] = s.registry.GetCoin(id)
			}
			paths = append(paths, coins)
			return
		}
		if len(path) > MaxHops {
			return
		}
		for _, next := range s.neighbors[node] {
			if onPath(path, next) {
				continue
			}
			visit(next)
		}
	}
	visit(src)
	return paths, nil
}

func onPath(path []TokenID, id TokenID) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}

// Candidates expands every path into one candidate per combination of fee
// tiers, capped at MaxCandidates.
func (g *Graph) Candidates(from, to string) ([]domain.RouteCandidate, error) {
	return g.CandidatesLimit(from, to, MaxCandidates)
}

// CandidatesLimit is Candidates with an explicit cap. One-hop candidates come
// first in fee order; two-hop candidates follow, ordered by the smaller TVL of
// their pools, highest first.
func (g *Graph) CandidatesLimit(from, to string, limit int) ([]domain.RouteCandidate, error) {
	s := g.getSnapshot()
	paths, err := s.findPaths(from, to)
	if err != nil {
		return nil, err
	}

	var direct, twoHop []domain.RouteCandidate
	for _, path := range paths {
		for _, c := range s.expand(path) {
			if c.HopCount() == 1 {
				direct = append(direct, c)
			} else {
				twoHop = append(twoHop, c)
			}
		}
	}
	sort.SliceStable(twoHop, func(i, j int) bool {
		return twoHop[i].MinTVL > twoHop[j].MinTVL
	})

	out := append(direct, twoHop...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// expand returns the cartesian product of fee tiers along a coin path.
func (s *graphSnapshot) expand(path []string) []domain.RouteCandidate {
	candidates := []domain.RouteCandidate{{}}
	for i := 0; i+1 < len(path); i++ {
		in, out := path[i], path[i+1]
		a, _ := s.registry.GetID(in)
		b, _ := s.registry.GetID(out)
		e := s.edges[makePairKey(a, b)]
		if e == nil {
			return nil
		}

		next := make([]domain.RouteCandidate, 0, len(candidates)*len(e.pools))
		for _, c := range candidates {
			for _, p := range e.pools {
				hops := make([]domain.Hop, len(c.Hops), len(c.Hops)+1)
				copy(hops, c.Hops)
				hops = append(hops, hopThrough(p, in, out))
				minTVL := p.TVLInUSD
				if len(c.Hops) > 0 && c.MinTVL < minTVL {
					minTVL = c.MinTVL
				}
				next = append(next, domain.RouteCandidate{Hops: hops, MinTVL: minTVL})
			}
		}
		candidates = next
	}
	return candidates
}

func hopThrough(p domain.PoolInfo, in, out string) domain.Hop {
	return domain.Hop{
		PoolAddress: p.Address,
		CoinIn:      in,
		CoinOut:     out,
		A2B:         p.CoinA.Type == in,
		FeeRate:     p.FeeRate,
		TVLInUSD:    p.TVLInUSD,
	}
}
