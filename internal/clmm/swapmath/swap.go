// Package swapmath replicates the pool's swap loop: segment by segment between
// initialized ticks, with the same rounding and fee order as the contract.
package swapmath

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/hxuan190/clmm-route-engine/internal/clmm/mathutil"
	"github.com/hxuan190/clmm-route-engine/internal/clmm/tickmath"
	"github.com/hxuan190/clmm-route-engine/internal/domain"
)

// MaxTickCrossings is the number of ticks a single swap may cross within the
// on-chain compute budget.
const MaxTickCrossings = 40

var (
	ErrInvalidPriceLimit  = errors.New("invalid sqrt price limit")
	ErrLiquidityUnderflow = fmt.Errorf("%w: liquidity below zero after tick cross", mathutil.ErrArithmeticOverflow)
	ErrLiquidityOverflow  = fmt.Errorf("%w: liquidity above u128 after tick cross", mathutil.ErrArithmeticOverflow)
)

// SwapState is the part of a pool the swap loop reads.
type SwapState struct {
	SqrtPrice *big.Int
	TickIndex int32
	Liquidity *big.Int
	FeeRate   uint64
}

// StateFromSnapshot extracts the swap inputs from a pool snapshot.
func StateFromSnapshot(p *domain.PoolSnapshot) SwapState {
	return SwapState{
		SqrtPrice: p.CurrentSqrtPrice,
		TickIndex: p.CurrentTickIndex,
		Liquidity: p.Liquidity,
		FeeRate:   p.FeeRate,
	}
}

type SwapResult struct {
	// AmountIn includes FeeAmount.
	AmountIn      *big.Int
	AmountOut     *big.Int
	FeeAmount     *big.Int
	NextSqrtPrice *big.Int
	NextTickIndex int32
	NextLiquidity *big.Int
	CrossTickNum  int
	// IsExceed is set when the requested amount could not be filled within the
	// tick-crossing budget, the price limit or the available liquidity.
	IsExceed bool
	Steps    []StepResult
}

// DefaultSqrtPriceLimit is the furthest price a swap in this direction may reach.
func DefaultSqrtPriceLimit(a2b bool) *big.Int {
	if a2b {
		return new(big.Int).Set(tickmath.MinSqrtPriceX64)
	}
	return new(big.Int).Set(tickmath.MaxSqrtPriceX64)
}

// SortTicksForSwap returns a copy of ticks ordered for the swap direction:
// descending for a2b, ascending otherwise.
func SortTicksForSwap(ticks []domain.TickData, a2b bool) []domain.TickData {
	out := make([]domain.TickData, len(ticks))
	copy(out, ticks)
	sort.SliceStable(out, func(i, j int) bool {
		if a2b {
			return out[i].Index > out[j].Index
		}
		return out[i].Index < out[j].Index
	})
	return out
}

func tickSqrtPrice(t *domain.TickData) (*big.Int, error) {
	if t.SqrtPrice != nil {
		return t.SqrtPrice, nil
	}
	return tickmath.TickIndexToSqrtPriceX64(t.Index)
}

func validatePriceLimit(current, limit *big.Int, a2b bool) error {
	if a2b {
		if limit.Cmp(current) >= 0 || limit.Cmp(tickmath.MinSqrtPriceX64) < 0 {
			return fmt.Errorf("%w: %s for a2b from %s", ErrInvalidPriceLimit, limit, current)
		}
		return nil
	}
	if limit.Cmp(current) <= 0 || limit.Cmp(tickmath.MaxSqrtPriceX64) > 0 {
		return fmt.Errorf("%w: %s for b2a from %s", ErrInvalidPriceLimit, limit, current)
	}
	return nil
}

// crossTick applies a tick's liquidity net in the swap direction.
func crossTick(liquidity, net *big.Int, a2b bool) (*big.Int, error) {
	next := new(big.Int)
	if a2b {
		next.Sub(liquidity, net)
	} else {
		next.Add(liquidity, net)
	}
	if next.Sign() < 0 {
		return nil, ErrLiquidityUnderflow
	}
	if mathutil.IsOverflow(next, 128) {
		return nil, ErrLiquidityOverflow
	}
	return next, nil
}

// checkTickOrder rejects ticks not sorted for the swap direction, which would
// otherwise skip the crossings in between.
func checkTickOrder(ticks []domain.TickData, a2b bool) error {
	for i := 1; i < len(ticks); i++ {
		prev, cur := ticks[i-1].Index, ticks[i].Index
		if (a2b && cur > prev) || (!a2b && cur < prev) {
			return fmt.Errorf("%w: tick %d after %d for a2b=%v", tickmath.ErrInvalidTickRange, cur, prev, a2b)
		}
	}
	return nil
}

func checkTotals(totals ...*big.Int) error {
	for _, v := range totals {
		if err := mathutil.CheckBits(v, 64); err != nil {
			return fmt.Errorf("swap total %s: %w", v, err)
		}
	}
	return nil
}

// ComputeSwap simulates a swap of amount against the pool state. ticks must be
// sorted for the direction (see SortTicksForSwap), otherwise ErrInvalidTickRange;
// ticks behind the current price are skipped. Amounts that leave u64 fail with
// mathutil.ErrIntegerDowncastOverflow. A nil sqrtPriceLimit means the protocol bound.
func ComputeSwap(state SwapState, ticks []domain.TickData, a2b, byAmountIn bool, amount, sqrtPriceLimit *big.Int) (*SwapResult, error) {
	if err := mathutil.CheckBits(amount, 64); err != nil {
		return nil, fmt.Errorf("swap amount: %w", err)
	}
	if state.SqrtPrice == nil || state.Liquidity == nil {
		return nil, fmt.Errorf("%w: incomplete pool state", tickmath.ErrInvalidSqrtPrice)
	}
	limit := sqrtPriceLimit
	if limit == nil {
		limit = DefaultSqrtPriceLimit(a2b)
	}

	res := &SwapResult{
		AmountIn:      new(big.Int),
		AmountOut:     new(big.Int),
		FeeAmount:     new(big.Int),
		NextSqrtPrice: new(big.Int).Set(state.SqrtPrice),
		NextTickIndex: state.TickIndex,
		NextLiquidity: new(big.Int).Set(state.Liquidity),
	}
	if amount.Sign() == 0 {
		return res, nil
	}
	if err := validatePriceLimit(state.SqrtPrice, limit, a2b); err != nil {
		return nil, err
	}
	if err := checkTickOrder(ticks, a2b); err != nil {
		return nil, err
	}

	remaining := new(big.Int).Set(amount)
	current := res.NextSqrtPrice
	liquidity := res.NextLiquidity
	currentTick := state.TickIndex
	stopped := false

	apply := func(step StepResult) error {
		if byAmountIn {
			remaining.Sub(remaining, step.AmountIn)
			remaining.Sub(remaining, step.FeeAmount)
		} else {
			remaining.Sub(remaining, step.AmountOut)
		}
		res.AmountIn.Add(res.AmountIn, step.AmountIn)
		res.AmountOut.Add(res.AmountOut, step.AmountOut)
		res.FeeAmount.Add(res.FeeAmount, step.FeeAmount)
		res.Steps = append(res.Steps, step)
		return checkTotals(res.AmountIn, res.AmountOut, res.FeeAmount)
	}

	for i := range ticks {
		if remaining.Sign() <= 0 || stopped {
			break
		}
		tick := &ticks[i]
		if a2b && tick.Index > currentTick {
			continue
		}
		if !a2b && tick.Index <= currentTick {
			continue
		}

		tickPrice, err := tickSqrtPrice(tick)
		if err != nil {
			return nil, err
		}

		target := tickPrice
		hitsLimit := (a2b && limit.Cmp(tickPrice) > 0) || (!a2b && limit.Cmp(tickPrice) < 0)
		if hitsLimit {
			target = limit
		}

		step, err := ComputeSwapStep(current, target, liquidity, remaining, state.FeeRate, byAmountIn)
		if err != nil {
			return nil, err
		}
		if err := apply(step); err != nil {
			return nil, err
		}

		if !hitsLimit && step.NextSqrtPrice.Cmp(tickPrice) == 0 {
			net := tick.LiquidityNet
			if net == nil {
				net = mathutil.Zero
			}
			liquidity, err = crossTick(liquidity, net, a2b)
			if err != nil {
				return nil, fmt.Errorf("cross tick %d: %w", tick.Index, err)
			}
			current = new(big.Int).Set(tickPrice)
			if a2b {
				currentTick = tick.Index - 1
			} else {
				currentTick = tick.Index
			}
			res.CrossTickNum++
			if res.CrossTickNum >= MaxTickCrossings && remaining.Sign() > 0 {
				stopped = true
			}
			continue
		}

		current = step.NextSqrtPrice
		stopped = true
	}

	// Past the last initialized tick: continue toward the limit while liquidity remains.
	if !stopped && remaining.Sign() > 0 && liquidity.Sign() > 0 && current.Cmp(limit) != 0 {
		step, err := ComputeSwapStep(current, limit, liquidity, remaining, state.FeeRate, byAmountIn)
		if err != nil {
			return nil, err
		}
		if err := apply(step); err != nil {
			return nil, err
		}
		current = step.NextSqrtPrice
	}

	if current.Cmp(res.NextSqrtPrice) != 0 || res.CrossTickNum > 0 {
		t, err := tickmath.SqrtPriceX64ToTickIndex(current)
		if err != nil {
			return nil, err
		}
		// A price sitting exactly on a crossed tick belongs to the tick below for a2b.
		if a2b && t > currentTick {
			t = currentTick
		}
		currentTick = t
	}

	res.AmountIn.Add(res.AmountIn, res.FeeAmount)
	if err := mathutil.CheckBits(res.AmountIn, 64); err != nil {
		return nil, fmt.Errorf("amount in with fee: %w", err)
	}
	res.NextSqrtPrice = current
	res.NextTickIndex = currentTick
	res.NextLiquidity = liquidity
	res.IsExceed = remaining.Sign() > 0
	return res, nil
}
