package router

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hxuan190/clmm-route-engine/internal/domain"
	"github.com/hxuan190/clmm-route-engine/internal/metrics"
)

// SwapOracle evaluates candidates against the on-chain calculator. It must
// return exactly one simulation per candidate, in order, or an error.
type SwapOracle interface {
	SimulateRoutes(ctx context.Context, candidates []domain.RouteCandidate, amount *big.Int, byAmountIn bool) ([]domain.RouteSimulation, error)
}

type Router struct {
	Graph         *Graph
	Oracle        SwapOracle
	cache         *QuoteCache
	maxCandidates int
}

type Option func(*Router)

// WithQuoteCache caches successful graph quotes. Fallback requests bypass it.
func WithQuoteCache(c *QuoteCache) Option {
	return func(r *Router) { r.cache = c }
}

func WithMaxCandidates(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.maxCandidates = n
		}
	}
}

func NewRouter(graph *Graph, oracle SwapOracle, opts ...Option) *Router {
	r := &Router{
		Graph:         graph,
		Oracle:        oracle,
		maxCandidates: MaxCandidates,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func swapMode(byAmountIn bool) string {
	if byAmountIn {
		return "by_amount_in"
	}
	return "by_amount_out"
}

// Price returns the best route from req.From to req.To.
//
// Every candidate is simulated in one oracle call. Candidates reporting
// IsExceed are skipped when picking the best. When the graph has no usable
// candidate the request's fallback pools are tried. Without a fallback, a
// request whose candidates all exceeded gets the best exceeded quote with
// IsExceed set.
func (r *Router) Price(ctx context.Context, req domain.PriceRequest) (quote *domain.RouteQuote, err error) {
	start := time.Now()
	mode := swapMode(req.ByAmountIn)
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		} else if quote.IsExceed {
			status = "exceed"
		}
		metrics.QuoteRequests.WithLabelValues(mode, status).Inc()
		metrics.QuoteDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	}()

	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	from, err := domain.NormalizeCoinType(req.From)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCoinNotFound, err)
	}
	to, err := domain.NormalizeCoinType(req.To)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCoinNotFound, err)
	}

	useCache := r.cache != nil && req.Fallback == nil
	if useCache {
		if cached := r.cache.Get(from, to, req.Amount, req.ByAmountIn); cached != nil {
			metrics.QuoteCacheHits.Inc()
			return cached, nil
		}
		metrics.QuoteCacheMisses.Inc()
	}

	candidates, err := r.Graph.CandidatesLimit(from, to, r.maxCandidates)
	if err != nil {
		return nil, err
	}

	var best, bestExceeded *domain.RouteQuote
	if len(candidates) > 0 {
		best, bestExceeded, err = r.evaluate(ctx, from, to, candidates, req.Amount, req.ByAmountIn)
		if err != nil {
			return nil, err
		}
	}
	if best != nil {
		if useCache {
			r.cache.Set(from, to, req.Amount, req.ByAmountIn, best)
		}
		return best, nil
	}

	if req.Fallback != nil {
		fb, err := r.fallbackCandidates(req.Fallback)
		if err != nil {
			return nil, err
		}
		if len(fb) > 0 {
			best, _, err = r.evaluate(ctx, from, to, fb, req.Amount, req.ByAmountIn)
			if err != nil {
				return nil, err
			}
			if best != nil {
				best.FromFallback = true
				return best, nil
			}
		}
		return nil, fmt.Errorf("%w: %s -> %s (fallback exhausted)", ErrNoPathFound, from, to)
	}

	if bestExceeded != nil {
		log.Debug().
			Str("from", from).
			Str("to", to).
			Int("candidates", len(candidates)).
			Msg("[router] every candidate exceeded, returning best partial quote")
		return bestExceeded, nil
	}
	return nil, fmt.Errorf("%w: %s -> %s", ErrNoPathFound, from, to)
}

// evaluate simulates candidates in one oracle call and returns the best
// non-exceeded quote and the best exceeded one.
func (r *Router) evaluate(ctx context.Context, from, to string, candidates []domain.RouteCandidate, amount *big.Int, byAmountIn bool) (best, bestExceeded *domain.RouteQuote, err error) {
	metrics.RouteCandidates.Observe(float64(len(candidates)))

	sims, err := r.Oracle.SimulateRoutes(ctx, candidates, amount, byAmountIn)
	if err != nil {
		return nil, nil, fmt.Errorf("simulate %d routes: %w", len(candidates), err)
	}
	if len(sims) != len(candidates) {
		return nil, nil, fmt.Errorf("%w: %d results for %d candidates", ErrInconsistentResponse, len(sims), len(candidates))
	}

	bestIdx, exceededIdx := -1, -1
	for i := range sims {
		if sims[i].AmountIn == nil || sims[i].AmountOut == nil {
			return nil, nil, fmt.Errorf("%w: candidate %d has no amounts", ErrInconsistentResponse, i)
		}
		if sims[i].IsExceed {
			if exceededIdx < 0 || isBetter(&sims[i], &sims[exceededIdx], byAmountIn) {
				exceededIdx = i
			}
			continue
		}
		if bestIdx < 0 || isBetter(&sims[i], &sims[bestIdx], byAmountIn) {
			bestIdx = i
		}
	}

	if bestIdx >= 0 {
		best = buildQuote(from, to, byAmountIn, candidates[bestIdx], &sims[bestIdx], len(candidates))
	}
	if exceededIdx >= 0 {
		bestExceeded = buildQuote(from, to, byAmountIn, candidates[exceededIdx], &sims[exceededIdx], len(candidates))
	}
	return best, bestExceeded, nil
}

// isBetter maximizes output for a fixed input and minimizes input for a fixed
// output. Ties keep the earlier candidate.
func isBetter(a, b *domain.RouteSimulation, byAmountIn bool) bool {
	if byAmountIn {
		return a.AmountOut.Cmp(b.AmountOut) > 0
	}
	return a.AmountIn.Cmp(b.AmountIn) < 0
}

func buildQuote(from, to string, byAmountIn bool, c domain.RouteCandidate, sim *domain.RouteSimulation, evaluated int) *domain.RouteQuote {
	return &domain.RouteQuote{
		From:            from,
		To:              to,
		ByAmountIn:      byAmountIn,
		Route:           c,
		AmountIn:        sim.AmountIn,
		AmountOut:       sim.AmountOut,
		FeeAmount:       sim.FeeAmount,
		AfterSqrtPrices: sim.AfterSqrtPrices,
		IsExceed:        sim.IsExceed,
		Evaluated:       evaluated,
	}
}

// fallbackCandidates turns the flat pool list into one single-hop candidate
// per pool, in the order given.
func (r *Router) fallbackCandidates(p *domain.FallbackParams) ([]domain.RouteCandidate, error) {
	coinA, err := domain.NormalizeCoinType(p.CoinTypeA)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	coinB, err := domain.NormalizeCoinType(p.CoinTypeB)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	in, out := coinA, coinB
	if !p.A2B {
		in, out = coinB, coinA
	}

	candidates := make([]domain.RouteCandidate, 0, len(p.PoolAddresses))
	for _, addr := range p.PoolAddresses {
		norm, err := domain.NormalizeAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("fallback: %w", err)
		}
		hop := domain.Hop{PoolAddress: norm, CoinIn: in, CoinOut: out, A2B: p.A2B}
		if info, ok := r.Graph.Pool(norm); ok {
			hop.FeeRate = info.FeeRate
			hop.TVLInUSD = info.TVLInUSD
		}
		candidates = append(candidates, domain.RouteCandidate{Hops: []domain.Hop{hop}, MinTVL: hop.TVLInUSD})
		if len(candidates) == r.maxCandidates {
			break
		}
	}
	return candidates, nil
}
