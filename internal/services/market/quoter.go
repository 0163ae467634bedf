package market

import (
	"context"
	"fmt"
	"math/big"

	"github.com/hxuan190/clmm-route-engine/internal/clmm/swapmath"
	"github.com/hxuan190/clmm-route-engine/internal/domain"
	"github.com/hxuan190/clmm-route-engine/internal/metrics"
	"github.com/hxuan190/clmm-route-engine/internal/services/router"
)

// QuoteRequest asks for a local single-pool quote.
type QuoteRequest struct {
	Pool       string
	Amount     *big.Int
	A2B        bool
	ByAmountIn bool
	// SqrtPriceLimit defaults to the protocol bound for the direction when nil.
	SqrtPriceLimit *big.Int
}

// Quote runs the swap simulator over the current snapshot and ticks of one
// pool. It never calls the chain beyond fetching state.
func (p *PoolProvider) Quote(ctx context.Context, req QuoteRequest) (*domain.PoolQuote, error) {
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", router.ErrInvalidAmount)
	}
	pool, err := p.GetPool(ctx, req.Pool)
	if err != nil {
		return nil, err
	}
	if pool.IsPaused {
		return nil, fmt.Errorf("%w: %s", ErrPoolPaused, pool.Address)
	}
	ticks, err := p.GetTicks(ctx, pool)
	if err != nil {
		return nil, err
	}
	return QuotePool(pool, ticks, req)
}

// QuotePool is Quote over already fetched state.
func QuotePool(pool *domain.PoolSnapshot, ticks []domain.TickData, req QuoteRequest) (*domain.PoolQuote, error) {
	limit := req.SqrtPriceLimit
	if limit == nil {
		limit = swapmath.DefaultSqrtPriceLimit(req.A2B)
	}
	sorted := swapmath.SortTicksForSwap(ticks, req.A2B)

	res, err := swapmath.ComputeSwap(swapmath.StateFromSnapshot(pool), sorted, req.A2B, req.ByAmountIn, req.Amount, limit)
	if err != nil {
		return nil, fmt.Errorf("simulate swap on %s: %w", pool.Address, err)
	}

	bps := router.PriceImpactBps(pool.CurrentSqrtPrice, res.NextSqrtPrice)
	metrics.PriceImpact.WithLabelValues(string(router.GetPriceImpactSeverity(bps))).Observe(float64(bps))

	return &domain.PoolQuote{
		Pool:           pool.Address,
		A2B:            req.A2B,
		ByAmountIn:     req.ByAmountIn,
		AmountIn:       res.AmountIn,
		AmountOut:      res.AmountOut,
		FeeAmount:      res.FeeAmount,
		NextSqrtPrice:  res.NextSqrtPrice,
		CrossTickNum:   res.CrossTickNum,
		IsExceed:       res.IsExceed,
		PriceImpactPct: swapmath.PriceImpactPct(pool.CurrentSqrtPrice, res.NextSqrtPrice),
		PriceImpactBps: bps,
	}, nil
}
