package http

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/clmm-route-engine/internal/aggregator"
	"github.com/hxuan190/clmm-route-engine/internal/clmm/tickmath"
	"github.com/hxuan190/clmm-route-engine/internal/domain"
	"github.com/hxuan190/clmm-route-engine/internal/http/httputil"
	"github.com/hxuan190/clmm-route-engine/internal/services/market"
	"github.com/hxuan190/clmm-route-engine/internal/services/router"
)

const (
	defaultPoolPageSize = 50
	maxPoolPageSize     = 500
)

type PoolHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewPoolHandler(aggregatorSvc *aggregator.Service) *PoolHandler {
	return &PoolHandler{aggregatorSvc: aggregatorSvc}
}

func (h *PoolHandler) SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.listPools)
	pub.GET("/:address", h.getPool)
	pub.GET("/:address/quote", h.quotePool)
	pub.GET("/:address/positions/fees", h.positionFees)
	pub.GET("/:address/positions/rewards", h.positionRewards)
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

type PoolListResponse struct {
	Pools  []domain.PoolInfo `json:"pools"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

func (h *PoolHandler) listPools(c *gin.Context) {
	limit := defaultPoolPageSize
	if s := c.Query("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			httputil.BadRequest(c, "invalid limit")
			return
		}
		limit = min(v, maxPoolPageSize)
	}
	offset := 0
	if s := c.Query("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			httputil.BadRequest(c, "invalid offset")
			return
		}
		offset = v
	}

	pools, total, err := h.aggregatorSvc.ListPools(aggregator.PoolFilter{
		Coin:   c.Query("coin"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	httputil.Success(c, PoolListResponse{Pools: pools, Total: total, Limit: limit, Offset: offset})
}

type RewarderState struct {
	CoinType           string `json:"coinType"`
	EmissionsPerSecond string `json:"emissionsPerSecond"`
	GrowthGlobal       string `json:"growthGlobal"`
}

// PoolState is the live on-chain state of a pool with integers as strings.
type PoolState struct {
	CurrentSqrtPrice string `json:"currentSqrtPrice"`
	CurrentTickIndex int32  `json:"currentTickIndex"`
	// Price of coin A in coin B, decimals applied
	Price            string          `json:"price"`
	Liquidity        string          `json:"liquidity"`
	FeeRate          uint64          `json:"feeRate"`
	TickSpacing      int32           `json:"tickSpacing"`
	FeeGrowthGlobalA string          `json:"feeGrowthGlobalA"`
	FeeGrowthGlobalB string          `json:"feeGrowthGlobalB"`
	Rewarders        []RewarderState `json:"rewarders"`
	IsPaused         bool            `json:"isPaused"`
	FetchedAt        int64           `json:"fetchedAt"`
}

type PoolDetailResponse struct {
	domain.PoolInfo
	State PoolState `json:"state"`
}

func (h *PoolHandler) getPool(c *gin.Context) {
	detail, err := h.aggregatorSvc.GetPool(c.Request.Context(), c.Param("address"))
	if err != nil {
		writeError(c, err)
		return
	}

	s := detail.State
	rewarders := make([]RewarderState, len(s.Rewarders))
	for i, r := range s.Rewarders {
		rewarders[i] = RewarderState{
			CoinType:           r.CoinType,
			EmissionsPerSecond: httputil.Amount(r.EmissionsPerSecond),
			GrowthGlobal:       httputil.Amount(r.GrowthGlobal),
		}
	}
	var price string
	if s.CurrentSqrtPrice != nil {
		price = tickmath.SqrtPriceX64ToPrice(s.CurrentSqrtPrice, detail.Info.CoinA.Decimals, detail.Info.CoinB.Decimals).String()
	}

	httputil.Success(c, PoolDetailResponse{
		PoolInfo: detail.Info,
		State: PoolState{
			CurrentSqrtPrice: httputil.Amount(s.CurrentSqrtPrice),
			CurrentTickIndex: s.CurrentTickIndex,
			Price:            price,
			Liquidity:        httputil.Amount(s.Liquidity),
			FeeRate:          s.FeeRate,
			TickSpacing:      s.TickSpacing,
			FeeGrowthGlobalA: httputil.Amount(s.FeeGrowthGlobalA),
			FeeGrowthGlobalB: httputil.Amount(s.FeeGrowthGlobalB),
			Rewarders:        rewarders,
			IsPaused:         s.IsPaused,
			FetchedAt:        s.FetchedAt.UnixMilli(),
		},
	})
}

// PoolQuoteRequest are the query parameters of GET /pools/:address/quote.
type PoolQuoteRequest struct {
	Amount     string `form:"amount" binding:"required"`
	A2B        bool   `form:"a2b"`
	ByAmountIn *bool  `form:"byAmountIn"`
	// Optional Q64.64 bound the swap may not cross
	SqrtPriceLimit string `form:"sqrtPriceLimit"`
}

type PoolQuoteResponse struct {
	Pool          string `json:"pool"`
	A2B           bool   `json:"a2b"`
	ByAmountIn    bool   `json:"byAmountIn"`
	AmountIn      string `json:"amountIn"`
	AmountOut     string `json:"amountOut"`
	FeeAmount     string `json:"feeAmount"`
	NextSqrtPrice string `json:"nextSqrtPrice"`
	CrossTickNum  int    `json:"crossTickNum"`
	IsExceed      bool   `json:"isExceed"`

	PriceImpactPct      string `json:"priceImpactPct"`
	PriceImpactBps      uint16 `json:"priceImpactBps"`
	PriceImpactSeverity string `json:"priceImpactSeverity"`
	PriceImpactWarning  string `json:"priceImpactWarning,omitempty"`
}

func (h *PoolHandler) quotePool(c *gin.Context) {
	var req PoolQuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	amount, ok := httputil.ParseAmount(req.Amount)
	if !ok {
		httputil.BadRequest(c, "invalid amount: must be a positive integer")
		return
	}
	qr := market.QuoteRequest{
		Pool:       c.Param("address"),
		Amount:     amount,
		A2B:        req.A2B,
		ByAmountIn: req.ByAmountIn == nil || *req.ByAmountIn,
	}
	if req.SqrtPriceLimit != "" {
		limit, ok := httputil.ParseAmount(req.SqrtPriceLimit)
		if !ok {
			httputil.BadRequest(c, "invalid sqrtPriceLimit")
			return
		}
		qr.SqrtPriceLimit = limit
	}

	q, err := h.aggregatorSvc.QuotePool(c.Request.Context(), qr)
	if err != nil {
		writeError(c, err)
		return
	}
	httputil.Success(c, PoolQuoteResponse{
		Pool:                q.Pool,
		A2B:                 q.A2B,
		ByAmountIn:          q.ByAmountIn,
		AmountIn:            httputil.Amount(q.AmountIn),
		AmountOut:           httputil.Amount(q.AmountOut),
		FeeAmount:           httputil.Amount(q.FeeAmount),
		NextSqrtPrice:       httputil.Amount(q.NextSqrtPrice),
		CrossTickNum:        q.CrossTickNum,
		IsExceed:            q.IsExceed,
		PriceImpactPct:      q.PriceImpactPct.String(),
		PriceImpactBps:      q.PriceImpactBps,
		PriceImpactSeverity: string(router.GetPriceImpactSeverity(q.PriceImpactBps)),
		PriceImpactWarning:  router.GetPriceImpactWarning(q.PriceImpactBps),
	})
}

func positionIDs(c *gin.Context) ([]string, bool) {
	var ids []string
	for _, v := range c.QueryArray("ids") {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		httputil.BadRequest(c, "ids is required")
		return nil, false
	}
	return ids, true
}

type PositionFeesResponse struct {
	PositionID string `json:"positionId"`
	FeeOwedA   string `json:"feeOwedA"`
	FeeOwedB   string `json:"feeOwedB"`
}

func (h *PoolHandler) positionFees(c *gin.Context) {
	ids, ok := positionIDs(c)
	if !ok {
		return
	}
	fees, err := h.aggregatorSvc.PositionFees(c.Request.Context(), c.Param("address"), ids)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]PositionFeesResponse, len(fees))
	for i, f := range fees {
		out[i] = PositionFeesResponse{
			PositionID: f.PositionID,
			FeeOwedA:   httputil.Amount(f.FeeOwedA),
			FeeOwedB:   httputil.Amount(f.FeeOwedB),
		}
	}
	httputil.Success(c, out)
}

type PositionRewardsResponse struct {
	PositionID string   `json:"positionId"`
	Amounts    []string `json:"amounts"`
}

func (h *PoolHandler) positionRewards(c *gin.Context) {
	ids, ok := positionIDs(c)
	if !ok {
		return
	}
	rewards, err := h.aggregatorSvc.PositionRewards(c.Request.Context(), c.Param("address"), ids)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]PositionRewardsResponse, len(rewards))
	for i, r := range rewards {
		out[i] = PositionRewardsResponse{PositionID: r.PositionID, Amounts: httputil.Amounts(r.Amounts)}
	}
	httputil.Success(c, out)
}
