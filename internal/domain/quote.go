package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Hop is one pool traversal of a route.
type Hop struct {
	PoolAddress string  `json:"poolAddress"`
	CoinIn      string  `json:"coinIn"`
	CoinOut     string  `json:"coinOut"`
	A2B         bool    `json:"a2b"`
	FeeRate     uint64  `json:"feeRate"`
	TVLInUSD    float64 `json:"tvlInUsd"`
}

// RouteCandidate is a 1 or 2 hop path. Hops[i].CoinOut == Hops[i+1].CoinIn.
type RouteCandidate struct {
	Hops   []Hop   `json:"hops"`
	MinTVL float64 `json:"minTvl"`
}

func (c RouteCandidate) HopCount() int {
	return len(c.Hops)
}

// Coins returns the coin path, source first.
func (c RouteCandidate) Coins() []string {
	if len(c.Hops) == 0 {
		return nil
	}
	coins := make([]string, 0, len(c.Hops)+1)
	coins = append(coins, c.Hops[0].CoinIn)
	for _, h := range c.Hops {
		coins = append(coins, h.CoinOut)
	}
	return coins
}

// Pools returns the pool addresses in hop order.
func (c RouteCandidate) Pools() []string {
	pools := make([]string, len(c.Hops))
	for i, h := range c.Hops {
		pools[i] = h.PoolAddress
	}
	return pools
}

// RouteSimulation is the on-chain calculator's answer for one candidate.
type RouteSimulation struct {
	AmountIn     *big.Int
	AmountMedium *big.Int
	AmountOut    *big.Int
	FeeAmount    *big.Int
	// AfterSqrtPrices has one entry per hop.
	AfterSqrtPrices []*big.Int
	IsExceed        bool
}

// FallbackParams describes the flat single-pool search used when the graph gives nothing.
type FallbackParams struct {
	PoolAddresses []string `json:"poolAddresses"`
	CoinTypeA     string   `json:"coinTypeA"`
	CoinTypeB     string   `json:"coinTypeB"`
	A2B           bool     `json:"a2b"`
}

type PriceRequest struct {
	From       string
	To         string
	Amount     *big.Int
	ByAmountIn bool
	Fallback   *FallbackParams
}

type RouteQuote struct {
	From       string         `json:"from"`
	To         string         `json:"to"`
	ByAmountIn bool           `json:"byAmountIn"`
	Route      RouteCandidate `json:"route"`

	AmountIn        *big.Int   `json:"amountIn"`
	AmountOut       *big.Int   `json:"amountOut"`
	FeeAmount       *big.Int   `json:"feeAmount,omitempty"`
	AfterSqrtPrices []*big.Int `json:"afterSqrtPrices,omitempty"`

	IsExceed bool `json:"isExceed"`
	// FromFallback is set when the quote came from the flat pool search.
	FromFallback bool `json:"fromFallback"`
	Evaluated    int  `json:"evaluated"`
}

// PoolQuote is a single-pool quote computed locally by the swap simulator.
type PoolQuote struct {
	Pool       string `json:"pool"`
	A2B        bool   `json:"a2b"`
	ByAmountIn bool   `json:"byAmountIn"`

	AmountIn      *big.Int `json:"amountIn"`
	AmountOut     *big.Int `json:"amountOut"`
	FeeAmount     *big.Int `json:"feeAmount"`
	NextSqrtPrice *big.Int `json:"nextSqrtPrice"`
	CrossTickNum  int      `json:"crossTickNum"`
	IsExceed      bool     `json:"isExceed"`

	PriceImpactPct decimal.Decimal `json:"priceImpactPct"`
	PriceImpactBps uint16          `json:"priceImpactBps"`
}
