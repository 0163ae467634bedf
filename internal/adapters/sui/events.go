package sui

import (
	"bytes"
	"fmt"
	"math/big"
	"strconv"

	"github.com/bytedance/sonic"

	"github.com/hxuan190/clmm-route-engine/internal/clmm/mathutil"
	"github.com/hxuan190/clmm-route-engine/internal/domain"
	"github.com/hxuan190/clmm-route-engine/internal/services/router"
)

// Move event names emitted by the fetcher and router scripts.
const (
	EventCalculatedSwapResult       = "CalculatedSwapResultEvent"
	EventCalculatedRouterSwapResult = "CalculatedRouterSwapResultEvent"
	EventFetchTicksResult           = "FetchTicksResultEvent"
	EventFetchPositionRewards       = "FetchPositionRewardsEvent"
	EventFetchPositionFees          = "FetchPositionFeesEvent"
)

// ErrEventDecode is returned when an event payload does not match its schema.
var ErrEventDecode = fmt.Errorf("%w: event decode", router.ErrInconsistentResponse)

// bigNum is an unsigned integer serialized as a JSON string or number.
type bigNum struct {
	v *big.Int
}

func (n *bigNum) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("null integer")
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		var err error
		if s, err = strconv.Unquote(s); err != nil {
			return err
		}
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return fmt.Errorf("invalid integer %q", s)
	}
	n.v = v
	return nil
}

func (n bigNum) big() *big.Int {
	if n.v == nil {
		return new(big.Int)
	}
	return n.v
}

// bitsField is a Move I32/I128 wrapper: {"bits": <two's complement>}.
type bitsField struct {
	Bits bigNum `json:"bits"`
}

type swapResultData struct {
	AmountIn       *bigNum `json:"amount_in"`
	AmountOut      *bigNum `json:"amount_out"`
	FeeAmount      *bigNum `json:"fee_amount"`
	AfterSqrtPrice *bigNum `json:"after_sqrt_price"`
	IsExceed       bool    `json:"is_exceed"`
}

type swapResultEvent struct {
	Data *swapResultData `json:"data"`
}

type routerSwapResultData struct {
	AmountIn           *bigNum `json:"amount_in"`
	AmountMedium       *bigNum `json:"amount_medium"`
	AmountOut          *bigNum `json:"amount_out"`
	IsExceed           bool    `json:"is_exceed"`
	TargetSqrtPriceAB  *bigNum `json:"target_sqrt_price_ab"`
	TargetSqrtPriceCD  *bigNum `json:"target_sqrt_price_cd"`
	CurrentSqrtPriceAB *bigNum `json:"current_sqrt_price_ab"`
	CurrentSqrtPriceCD *bigNum `json:"current_sqrt_price_cd"`
}

type routerSwapResultEvent struct {
	Data *routerSwapResultData `json:"data"`
}

type tickEntry struct {
	Index                bitsField `json:"index"`
	SqrtPrice            bigNum    `json:"sqrt_price"`
	LiquidityNet         bitsField `json:"liquidity_net"`
	LiquidityGross       bigNum    `json:"liquidity_gross"`
	FeeGrowthOutsideA    bigNum    `json:"fee_growth_outside_a"`
	FeeGrowthOutsideB    bigNum    `json:"fee_growth_outside_b"`
	RewardsGrowthOutside []bigNum  `json:"rewards_growth_outside"`
}

type fetchTicksEvent struct {
	Ticks *[]tickEntry `json:"ticks"`
}

type positionRewardsEvent struct {
	Data       *[]bigNum `json:"data"`
	PositionID string    `json:"position_id"`
}

type positionFeesEvent struct {
	PositionID string  `json:"position_id"`
	FeeOwnedA  *bigNum `json:"fee_owned_a"`
	FeeOwnedB  *bigNum `json:"fee_owned_b"`
}

func decodeEvent(e domain.SimulationEvent, out interface{}) error {
	if err := sonic.Unmarshal(e.ParsedJSON, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEventDecode, e.Type, err)
	}
	return nil
}

func missing(e domain.SimulationEvent, field string) error {
	return fmt.Errorf("%w: %s: missing %s", ErrEventDecode, e.Type, field)
}

// DecodeSwapResult decodes a single-pool CalculatedSwapResultEvent.
func DecodeSwapResult(e domain.SimulationEvent) (domain.RouteSimulation, error) {
	var ev swapResultEvent
	if err := decodeEvent(e, &ev); err != nil {
		return domain.RouteSimulation{}, err
	}
	d := ev.Data
	switch {
	case d == nil:
		return domain.RouteSimulation{}, missing(e, "data")
	case d.AmountIn == nil || d.AmountOut == nil:
		return domain.RouteSimulation{}, missing(e, "amounts")
	case d.AfterSqrtPrice == nil:
		return domain.RouteSimulation{}, missing(e, "after_sqrt_price")
	}
	sim := domain.RouteSimulation{
		AmountIn:        d.AmountIn.big(),
		AmountOut:       d.AmountOut.big(),
		AfterSqrtPrices: []*big.Int{d.AfterSqrtPrice.big()},
		IsExceed:        d.IsExceed,
	}
	if d.FeeAmount != nil {
		sim.FeeAmount = d.FeeAmount.big()
	}
	return sim, nil
}

// DecodeRouterSwapResult decodes a two-pool CalculatedRouterSwapResultEvent.
func DecodeRouterSwapResult(e domain.SimulationEvent) (domain.RouteSimulation, error) {
	var ev routerSwapResultEvent
	if err := decodeEvent(e, &ev); err != nil {
		return domain.RouteSimulation{}, err
	}
	d := ev.Data
	switch {
	case d == nil:
		return domain.RouteSimulation{}, missing(e, "data")
	case d.AmountIn == nil || d.AmountOut == nil:
		return domain.RouteSimulation{}, missing(e, "amounts")
	case d.TargetSqrtPriceAB == nil || d.TargetSqrtPriceCD == nil:
		return domain.RouteSimulation{}, missing(e, "target sqrt prices")
	}
	sim := domain.RouteSimulation{
		AmountIn:        d.AmountIn.big(),
		AmountOut:       d.AmountOut.big(),
		AfterSqrtPrices: []*big.Int{d.TargetSqrtPriceAB.big(), d.TargetSqrtPriceCD.big()},
		IsExceed:        d.IsExceed,
	}
	if d.AmountMedium != nil {
		sim.AmountMedium = d.AmountMedium.big()
	}
	return sim, nil
}

// DecodeTicks decodes one page of FetchTicksResultEvent.
func DecodeTicks(e domain.SimulationEvent) ([]domain.TickData, error) {
	var ev fetchTicksEvent
	if err := decodeEvent(e, &ev); err != nil {
		return nil, err
	}
	if ev.Ticks == nil {
		return nil, missing(e, "ticks")
	}
	out := make([]domain.TickData, 0, len(*ev.Ticks))
	for _, t := range *ev.Ticks {
		bits := t.Index.Bits.big()
		if !bits.IsUint64() || bits.Uint64() > 0xFFFFFFFF {
			return nil, fmt.Errorf("%w: %s: tick index bits %s", ErrEventDecode, e.Type, bits)
		}
		net, err := mathutil.U128ToI128(t.LiquidityNet.Bits.big())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrEventDecode, e.Type, err)
		}
		rewards := make([]*big.Int, len(t.RewardsGrowthOutside))
		for i := range t.RewardsGrowthOutside {
			rewards[i] = t.RewardsGrowthOutside[i].big()
		}
		out = append(out, domain.TickData{
			Index:                mathutil.U32ToTick(uint32(bits.Uint64())),
			SqrtPrice:            t.SqrtPrice.big(),
			LiquidityNet:         net,
			LiquidityGross:       t.LiquidityGross.big(),
			FeeGrowthOutsideA:    t.FeeGrowthOutsideA.big(),
			FeeGrowthOutsideB:    t.FeeGrowthOutsideB.big(),
			RewardGrowthsOutside: rewards,
		})
	}
	return out, nil
}

// DecodePositionRewards decodes FetchPositionRewardsEvent.
func DecodePositionRewards(e domain.SimulationEvent) (domain.RewardAmounts, error) {
	var ev positionRewardsEvent
	if err := decodeEvent(e, &ev); err != nil {
		return domain.RewardAmounts{}, err
	}
	if ev.Data == nil {
		return domain.RewardAmounts{}, missing(e, "data")
	}
	out := domain.RewardAmounts{PositionID: ev.PositionID, Amounts: make([]*big.Int, len(*ev.Data))}
	for i, v := range *ev.Data {
		out.Amounts[i] = v.big()
	}
	return out, nil
}

// DecodePositionFees decodes FetchPositionFeesEvent.
func DecodePositionFees(e domain.SimulationEvent) (domain.FeeAmounts, error) {
	var ev positionFeesEvent
	if err := decodeEvent(e, &ev); err != nil {
		return domain.FeeAmounts{}, err
	}
	if ev.FeeOwnedA == nil || ev.FeeOwnedB == nil {
		return domain.FeeAmounts{}, missing(e, "fee_owned")
	}
	return domain.FeeAmounts{
		PositionID: ev.PositionID,
		FeeOwedA:   ev.FeeOwnedA.big(),
		FeeOwedB:   ev.FeeOwnedB.big(),
	}, nil
}
