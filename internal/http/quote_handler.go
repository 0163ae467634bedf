package http

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/clmm-route-engine/internal/aggregator"
	"github.com/hxuan190/clmm-route-engine/internal/clmm/liquidity"
	"github.com/hxuan190/clmm-route-engine/internal/common"
	"github.com/hxuan190/clmm-route-engine/internal/domain"
	"github.com/hxuan190/clmm-route-engine/internal/http/httputil"
)

const (
	swapModeExactIn  = "ExactIn"
	swapModeExactOut = "ExactOut"
)

type QuoteHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewQuoteHandler(aggregatorSvc *aggregator.Service) *QuoteHandler {
	return &QuoteHandler{aggregatorSvc: aggregatorSvc}
}

func (h *QuoteHandler) SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getQuote)
}

func (h *QuoteHandler) Root() string {
	return "/quote"
}

// QuoteRequest are the query parameters of GET /quote.
type QuoteRequest struct {
	// Full Move coin types, e.g. 0x2::sui::SUI
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`

	// Amount in the coin's smallest unit. It is the input for ExactIn and
	// the wanted output for ExactOut.
	Amount string `form:"amount" binding:"required"`

	SwapMode    string  `form:"swapMode"`
	SlippageBps *uint16 `form:"slippageBps"`

	// Pools to try when the graph has no route. Comma separated.
	FallbackPools string `form:"fallbackPools"`
	FallbackCoinA string `form:"fallbackCoinA"`
	FallbackCoinB string `form:"fallbackCoinB"`
	FallbackA2B   bool   `form:"fallbackA2B"`
}

type RouteHop struct {
	PoolAddress string  `json:"poolAddress"`
	CoinIn      string  `json:"coinIn"`
	CoinOut     string  `json:"coinOut"`
	A2B         bool    `json:"a2b"`
	FeeRate     uint64  `json:"feeRate"`
	TVLInUSD    float64 `json:"tvlInUsd"`
	// Pool sqrt price after this hop, Q64.64
	AfterSqrtPrice string `json:"afterSqrtPrice,omitempty"`
}

type QuoteResponse struct {
	From      string `json:"from"`
	To        string `json:"to"`
	SwapMode  string `json:"swapMode"`
	AmountIn  string `json:"amountIn"`
	AmountOut string `json:"amountOut"`
	FeeAmount string `json:"feeAmount,omitempty"`

	// Minimum output for ExactIn, maximum input for ExactOut.
	OtherAmountThreshold string `json:"otherAmountThreshold"`
	SlippageBps          uint16 `json:"slippageBps"`

	Routes    []RouteHop `json:"routes"`
	RoutePath []string   `json:"routePath"`
	HopCount  int        `json:"hopCount"`

	IsExceed     bool `json:"isExceed"`
	FromFallback bool `json:"fromFallback"`
	Evaluated    int  `json:"evaluated"`
}

type parsedQuoteRequest struct {
	price       domain.PriceRequest
	slippageBps uint16
}

func (h *QuoteHandler) parseQuoteRequest(c *gin.Context) (*parsedQuoteRequest, bool) {
	var req QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.BadRequest(c, "invalid query parameters: "+err.Error())
		return nil, false
	}

	amount, ok := httputil.ParseAmount(req.Amount)
	if !ok {
		httputil.BadRequest(c, "invalid amount: must be a positive integer")
		return nil, false
	}

	var byAmountIn bool
	switch req.SwapMode {
	case "", swapModeExactIn:
		byAmountIn = true
	case swapModeExactOut:
		byAmountIn = false
	default:
		httputil.BadRequest(c, "invalid swapMode: must be ExactIn or ExactOut")
		return nil, false
	}

	slippageBps := uint16(common.DefaultSlippageBps)
	if req.SlippageBps != nil {
		slippageBps = *req.SlippageBps
	}
	if slippageBps >= 10000 {
		httputil.BadRequest(c, "invalid slippageBps: must be below 10000")
		return nil, false
	}

	parsed := &parsedQuoteRequest{
		price: domain.PriceRequest{
			From:       req.From,
			To:         req.To,
			Amount:     amount,
			ByAmountIn: byAmountIn,
		},
		slippageBps: slippageBps,
	}

	if req.FallbackPools != "" {
		if req.FallbackCoinA == "" || req.FallbackCoinB == "" {
			httputil.BadRequest(c, "fallbackPools needs fallbackCoinA and fallbackCoinB")
			return nil, false
		}
		var pools []string
		for _, p := range strings.Split(req.FallbackPools, ",") {
			if p = strings.TrimSpace(p); p != "" {
				pools = append(pools, p)
			}
		}
		parsed.price.Fallback = &domain.FallbackParams{
			PoolAddresses: pools,
			CoinTypeA:     req.FallbackCoinA,
			CoinTypeB:     req.FallbackCoinB,
			A2B:           req.FallbackA2B,
		}
	}
	return parsed, true
}

func buildQuoteResponse(q *domain.RouteQuote, slippageBps uint16) (QuoteResponse, error) {
	slippage := decimal.New(int64(slippageBps), -4)

	mode := swapModeExactIn
	var threshold string
	if q.ByAmountIn {
		minOut, err := liquidity.AdjustForSlippage(q.AmountOut, slippage, false)
		if err != nil {
			return QuoteResponse{}, err
		}
		threshold = minOut.String()
	} else {
		mode = swapModeExactOut
		maxIn, err := liquidity.AdjustForSlippage(q.AmountIn, slippage, true)
		if err != nil {
			return QuoteResponse{}, err
		}
		threshold = maxIn.String()
	}

	routes := make([]RouteHop, len(q.Route.Hops))
	for i, hop := range q.Route.Hops {
		routes[i] = RouteHop{
			PoolAddress: hop.PoolAddress,
			CoinIn:      hop.CoinIn,
			CoinOut:     hop.CoinOut,
			A2B:         hop.A2B,
			FeeRate:     hop.FeeRate,
			TVLInUSD:    hop.TVLInUSD,
		}
		if i < len(q.AfterSqrtPrices) {
			routes[i].AfterSqrtPrice = httputil.Amount(q.AfterSqrtPrices[i])
		}
	}

	return QuoteResponse{
		From:                 q.From,
		To:                   q.To,
		SwapMode:             mode,
		AmountIn:             httputil.Amount(q.AmountIn),
		AmountOut:            httputil.Amount(q.AmountOut),
		FeeAmount:            httputil.Amount(q.FeeAmount),
		OtherAmountThreshold: threshold,
		SlippageBps:          slippageBps,
		Routes:               routes,
		RoutePath:            q.Route.Coins(),
		HopCount:             q.Route.HopCount(),
		IsExceed:             q.IsExceed,
		FromFallback:         q.FromFallback,
		Evaluated:            q.Evaluated,
	}, nil
}

func (h *QuoteHandler) getQuote(c *gin.Context) {
	parsed, ok := h.parseQuoteRequest(c)
	if !ok {
		return
	}

	quote, err := h.aggregatorSvc.Quote(c.Request.Context(), parsed.price)
	if err != nil {
		writeError(c, err)
		return
	}

	resp, err := buildQuoteResponse(quote, parsed.slippageBps)
	if err != nil {
		writeError(c, err)
		return
	}
	httputil.Success(c, resp)
}
