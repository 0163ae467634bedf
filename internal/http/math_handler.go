package http

import (
	"math/big"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/clmm-route-engine/internal/clmm/liquidity"
	"github.com/hxuan190/clmm-route-engine/internal/clmm/tickmath"
	"github.com/hxuan190/clmm-route-engine/internal/dlmm/binmath"
	"github.com/hxuan190/clmm-route-engine/internal/http/httputil"
)

// MathHandler exposes the pure CLMM math. Nothing here touches the chain.
type MathHandler struct{}

func NewMathHandler() *MathHandler {
	return &MathHandler{}
}

func (h *MathHandler) SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/tick", h.tick)
	pub.GET("/liquidity", h.liquidity)
	pub.GET("/bin", h.bin)
}

func (h *MathHandler) Root() string {
	return "/math"
}

type TickQuery struct {
	Tick      *int32 `form:"tick"`
	SqrtPrice string `form:"sqrtPrice"`
	DecimalsA int32  `form:"decimalsA"`
	DecimalsB int32  `form:"decimalsB"`
	Spacing   int32  `form:"spacing"`
}

type TickResponse struct {
	Tick      int32  `json:"tick"`
	SqrtPrice string `json:"sqrtPrice"`
	Price     string `json:"price"`

	// Only set when a spacing was given
	Initializable *int32 `json:"initializable,omitempty"`
	Prev          *int32 `json:"prev,omitempty"`
	Next          *int32 `json:"next,omitempty"`
	MinUsable     *int32 `json:"minUsable,omitempty"`
	MaxUsable     *int32 `json:"maxUsable,omitempty"`
}

// tick converts between a tick index and its sqrt price. Exactly one of tick
// and sqrtPrice must be given.
func (h *MathHandler) tick(c *gin.Context) {
	var q TickQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	if (q.Tick == nil) == (q.SqrtPrice == "") {
		httputil.BadRequest(c, "give exactly one of tick and sqrtPrice")
		return
	}

	var (
		tick      int32
		sqrtPrice *big.Int
		err       error
	)
	if q.Tick != nil {
		tick = *q.Tick
		sqrtPrice, err = tickmath.TickIndexToSqrtPriceX64(tick)
	} else {
		var ok bool
		sqrtPrice, ok = httputil.ParseAmount(q.SqrtPrice)
		if !ok {
			httputil.BadRequest(c, "invalid sqrtPrice")
			return
		}
		tick, err = tickmath.SqrtPriceX64ToTickIndex(sqrtPrice)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	resp := TickResponse{
		Tick:      tick,
		SqrtPrice: sqrtPrice.String(),
		Price:     tickmath.SqrtPriceX64ToPrice(sqrtPrice, q.DecimalsA, q.DecimalsB).String(),
	}
	if q.Spacing > 0 {
		init, err := tickmath.GetInitializableTickIndex(tick, q.Spacing)
		if err != nil {
			writeError(c, err)
			return
		}
		minUsable, maxUsable := tickmath.MinUsableTick(q.Spacing), tickmath.MaxUsableTick(q.Spacing)
		resp.Initializable, resp.MinUsable, resp.MaxUsable = &init, &minUsable, &maxUsable
		// out of range at the protocol bounds; left unset there
		if prev, err := tickmath.GetPrevInitializableTickIndex(tick, q.Spacing); err == nil {
			resp.Prev = &prev
		}
		if next, err := tickmath.GetNextInitializableTickIndex(tick, q.Spacing); err == nil {
			resp.Next = &next
		}
	}
	httputil.Success(c, resp)
}

type LiquidityQuery struct {
	Lower  int32  `form:"lower"`
	Upper  int32  `form:"upper"`
	Amount string `form:"amount" binding:"required"`
	IsA    bool   `form:"isA"`
	// Current pool price; one of sqrtPrice and tick
	SqrtPrice string `form:"sqrtPrice"`
	Tick      *int32 `form:"tick"`
	// Fraction, e.g. 0.01 for 1%
	Slippage string `form:"slippage"`
	RoundUp  *bool  `form:"roundUp"`
}

type LiquidityResponse struct {
	Liquidity  string `json:"liquidity"`
	AmountA    string `json:"amountA"`
	AmountB    string `json:"amountB"`
	TokenMaxA  string `json:"tokenMaxA"`
	TokenMaxB  string `json:"tokenMaxB"`
	FixAmountA bool   `json:"fixAmountA"`
}

// liquidity quotes a deposit into [lower, upper] fixed on one coin.
func (h *MathHandler) liquidity(c *gin.Context) {
	var q LiquidityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	amount, ok := httputil.ParseAmount(q.Amount)
	if !ok {
		httputil.BadRequest(c, "invalid amount: must be a positive integer")
		return
	}

	var curSqrt *big.Int
	switch {
	case q.SqrtPrice != "":
		if curSqrt, ok = httputil.ParseAmount(q.SqrtPrice); !ok {
			httputil.BadRequest(c, "invalid sqrtPrice")
			return
		}
	case q.Tick != nil:
		var err error
		if curSqrt, err = tickmath.TickIndexToSqrtPriceX64(*q.Tick); err != nil {
			writeError(c, err)
			return
		}
	default:
		httputil.BadRequest(c, "sqrtPrice or tick is required")
		return
	}

	slippage := decimal.Zero
	if q.Slippage != "" {
		var err error
		if slippage, err = decimal.NewFromString(q.Slippage); err != nil {
			httputil.BadRequest(c, "invalid slippage: "+strconv.Quote(q.Slippage))
			return
		}
	}
	roundUp := q.RoundUp == nil || *q.RoundUp

	res, err := liquidity.EstimateLiquidityAndCoinAmount(q.Lower, q.Upper, amount, q.IsA, roundUp, slippage, curSqrt)
	if err != nil {
		writeError(c, err)
		return
	}
	httputil.Success(c, LiquidityResponse{
		Liquidity:  httputil.Amount(res.Liquidity),
		AmountA:    httputil.Amount(res.AmountA),
		AmountB:    httputil.Amount(res.AmountB),
		TokenMaxA:  httputil.Amount(res.TokenMaxA),
		TokenMaxB:  httputil.Amount(res.TokenMaxB),
		FixAmountA: res.FixAmountA,
	})
}

type BinQuery struct {
	BinID   *int32 `form:"binId"`
	Price   string `form:"price"`
	BinStep uint16 `form:"binStep" binding:"required"`
	RoundUp bool   `form:"roundUp"`
}

type BinResponse struct {
	BinID int32  `json:"binId"`
	Price string `json:"price"`
}

// bin converts between a DLMM bin id and its price. Exactly one of binId and
// price must be given.
func (h *MathHandler) bin(c *gin.Context) {
	var q BinQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	if (q.BinID == nil) == (q.Price == "") {
		httputil.BadRequest(c, "give exactly one of binId and price")
		return
	}

	binID := int32(0)
	if q.BinID != nil {
		binID = *q.BinID
	} else {
		price, err := decimal.NewFromString(q.Price)
		if err != nil {
			httputil.BadRequest(c, "invalid price")
			return
		}
		if binID, err = binmath.PriceToBinID(price, q.BinStep, q.RoundUp); err != nil {
			writeError(c, err)
			return
		}
	}
	price, err := binmath.BinIDToPrice(binID, q.BinStep)
	if err != nil {
		writeError(c, err)
		return
	}
	httputil.Success(c, BinResponse{BinID: binID, Price: price.String()})
}
