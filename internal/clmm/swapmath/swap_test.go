package swapmath

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clmm-route-engine/internal/clmm/mathutil"
	"github.com/hxuan190/clmm-route-engine/internal/clmm/tickmath"
	"github.com/hxuan190/clmm-route-engine/internal/domain"
)

func tick(index int32, net int64) domain.TickData {
	return domain.TickData{
		Index:        index,
		LiquidityNet: big.NewInt(net),
	}
}

func centeredPool(liquidity int64) (SwapState, []domain.TickData) {
	state := SwapState{
		SqrtPrice: tickmath.MustTickIndexToSqrtPriceX64(0),
		TickIndex: 0,
		Liquidity: big.NewInt(liquidity),
		FeeRate:   2500,
	}
	ticks := []domain.TickData{tick(-120, liquidity), tick(120, -liquidity)}
	return state, ticks
}

func TestComputeSwapStepWithinSegment(t *testing.T) {
	current := tickmath.MustTickIndexToSqrtPriceX64(0)
	target := tickmath.MustTickIndexToSqrtPriceX64(-60)

	step, err := ComputeSwapStep(current, target, big.NewInt(1_000_000_000_000), big.NewInt(1_000_000), 2500, true)
	require.NoError(t, err)
	assert.Equal(t, "997500", step.AmountIn.String())
	assert.Equal(t, "997499", step.AmountOut.String())
	assert.Equal(t, "2500", step.FeeAmount.String())
	assert.Equal(t, "18446725673100692699", step.NextSqrtPrice.String())

	up, err := ComputeSwapStep(current, tickmath.MustTickIndexToSqrtPriceX64(60), big.NewInt(1_000_000_000_000), big.NewInt(1_000_000), 2500, true)
	require.NoError(t, err)
	assert.Equal(t, "18446762474336765141", up.NextSqrtPrice.String())
}

func TestComputeSwapStepZeroLiquidity(t *testing.T) {
	current := tickmath.MustTickIndexToSqrtPriceX64(0)
	target := tickmath.MustTickIndexToSqrtPriceX64(-60)

	step, err := ComputeSwapStep(current, target, big.NewInt(0), big.NewInt(1000), 2500, true)
	require.NoError(t, err)
	assert.Zero(t, step.AmountIn.Sign())
	assert.Zero(t, step.AmountOut.Sign())
	assert.Equal(t, target.String(), step.NextSqrtPrice.String())
}

func TestComputeSwapStepRejectsFeeRate(t *testing.T) {
	p := tickmath.MustTickIndexToSqrtPriceX64(0)
	_, err := ComputeSwapStep(p, p, big.NewInt(1), big.NewInt(1), 1_000_000, true)
	require.ErrorIs(t, err, ErrInvalidFeeRate)
}

func TestComputeSwapExactInWithinRange(t *testing.T) {
	state, ticks := centeredPool(1_000_000_000_000)

	res, err := ComputeSwap(state, SortTicksForSwap(ticks, true), true, true, big.NewInt(1_000_000), nil)
	require.NoError(t, err)
	assert.Equal(t, "1000000", res.AmountIn.String())
	assert.Equal(t, "997499", res.AmountOut.String())
	assert.Equal(t, "2500", res.FeeAmount.String())
	assert.Equal(t, 0, res.CrossTickNum)
	assert.False(t, res.IsExceed)
	assert.Equal(t, int32(-1), res.NextTickIndex)
}

func TestComputeSwapExactOut(t *testing.T) {
	state, ticks := centeredPool(1_000_000_000_000)

	res, err := ComputeSwap(state, SortTicksForSwap(ticks, false), false, false, big.NewInt(500_000), nil)
	require.NoError(t, err)
	assert.Equal(t, "500000", res.AmountOut.String())
	assert.True(t, res.AmountIn.Cmp(res.AmountOut) > 0)
	assert.True(t, res.FeeAmount.Sign() > 0)
	assert.False(t, res.IsExceed)
}

func TestComputeSwapCrossesOutOfLiquidity(t *testing.T) {
	state, ticks := centeredPool(1_000_000_000_000)

	res, err := ComputeSwap(state, SortTicksForSwap(ticks, true), true, true, big.NewInt(1_000_000_000_000), nil)
	require.NoError(t, err)
	assert.True(t, res.IsExceed)
	assert.Equal(t, 1, res.CrossTickNum)
	assert.Zero(t, res.NextLiquidity.Sign())
	assert.Equal(t, tickmath.MustTickIndexToSqrtPriceX64(-120).String(), res.NextSqrtPrice.String())
	assert.Equal(t, int32(-121), res.NextTickIndex)
	assert.True(t, res.AmountIn.Cmp(big.NewInt(1_000_000_000_000)) < 0)
}

func TestComputeSwapZeroLiquidityBetweenTicks(t *testing.T) {
	state := SwapState{
		SqrtPrice: tickmath.MustTickIndexToSqrtPriceX64(0),
		TickIndex: 0,
		Liquidity: big.NewInt(0),
		FeeRate:   2500,
	}
	ticks := []domain.TickData{tick(-10, 0), tick(10, 0)}

	res, err := ComputeSwap(state, SortTicksForSwap(ticks, true), true, true, big.NewInt(1_000_000), nil)
	require.NoError(t, err)
	assert.True(t, res.IsExceed)
	assert.Zero(t, res.AmountOut.Sign())

	res, err = ComputeSwap(state, nil, false, true, big.NewInt(1_000_000), nil)
	require.NoError(t, err)
	assert.True(t, res.IsExceed)
	assert.Zero(t, res.AmountOut.Sign())
}

func TestComputeSwapTickCrossingBudget(t *testing.T) {
	const liquidity = 1_000_000_000_000
	ticks := []domain.TickData{tick(-6000, liquidity), tick(6000, -liquidity)}
	for i := int32(1); i <= 60; i++ {
		ticks = append(ticks, tick(-60*i, 0))
	}
	state := SwapState{
		SqrtPrice: tickmath.MustTickIndexToSqrtPriceX64(0),
		TickIndex: 0,
		Liquidity: big.NewInt(liquidity),
		FeeRate:   2500,
	}

	res, err := ComputeSwap(state, SortTicksForSwap(ticks, true), true, true, big.NewInt(1_000_000_000_000_000), nil)
	require.NoError(t, err)
	assert.Equal(t, MaxTickCrossings, res.CrossTickNum)
	assert.True(t, res.IsExceed)
	assert.True(t, res.AmountOut.Sign() > 0)
}

func TestComputeSwapPriceLimit(t *testing.T) {
	state, ticks := centeredPool(1_000_000_000_000)
	limit := tickmath.MustTickIndexToSqrtPriceX64(-10)

	res, err := ComputeSwap(state, SortTicksForSwap(ticks, true), true, true, big.NewInt(1_000_000_000_000), limit)
	require.NoError(t, err)
	assert.True(t, res.IsExceed)
	assert.Equal(t, limit.String(), res.NextSqrtPrice.String())

	_, err = ComputeSwap(state, ticks, true, true, big.NewInt(1000), tickmath.MustTickIndexToSqrtPriceX64(10))
	require.ErrorIs(t, err, ErrInvalidPriceLimit)
}

func TestComputeSwapLiquidityUnderflow(t *testing.T) {
	state := SwapState{
		SqrtPrice: tickmath.MustTickIndexToSqrtPriceX64(0),
		TickIndex: 0,
		Liquidity: big.NewInt(10),
		FeeRate:   2500,
	}
	_, err := ComputeSwap(state, []domain.TickData{tick(-60, 100)}, true, true, big.NewInt(1_000_000), nil)
	require.ErrorIs(t, err, ErrLiquidityUnderflow)
}

func deepPoolAtTick(tickIndex int32) SwapState {
	return SwapState{
		SqrtPrice: tickmath.MustTickIndexToSqrtPriceX64(tickIndex),
		TickIndex: tickIndex,
		Liquidity: new(big.Int).Lsh(big.NewInt(1), 80),
		FeeRate:   2500,
	}
}

func TestComputeSwapOutputOverflowsU64(t *testing.T) {
	state := deepPoolAtTick(400000)
	amount := new(big.Int).Lsh(big.NewInt(1), 40)

	_, err := ComputeSwap(state, nil, true, true, amount, nil)
	require.ErrorIs(t, err, mathutil.ErrIntegerDowncastOverflow)
	require.ErrorIs(t, err, mathutil.ErrArithmeticOverflow)

	// the same pool still quotes amounts whose output fits
	res, err := ComputeSwap(state, nil, true, true, big.NewInt(10), nil)
	require.NoError(t, err)
	assert.True(t, res.AmountOut.IsUint64())
}

func TestComputeSwapStepExactOutInputOverflowsU64(t *testing.T) {
	state := deepPoolAtTick(400000)
	out := new(big.Int).Lsh(big.NewInt(1), 40)

	_, err := ComputeSwapStep(state.SqrtPrice, tickmath.MaxSqrtPriceX64, state.Liquidity, out, state.FeeRate, false)
	require.ErrorIs(t, err, mathutil.ErrIntegerDowncastOverflow)

	_, err = ComputeSwap(state, nil, false, false, out, nil)
	require.ErrorIs(t, err, mathutil.ErrIntegerDowncastOverflow)
}

func TestComputeSwapRejectsMisorderedTicks(t *testing.T) {
	state, ticks := centeredPool(1_000_000_000_000)

	_, err := ComputeSwap(state, SortTicksForSwap(ticks, false), true, true, big.NewInt(1_000_000), nil)
	require.ErrorIs(t, err, tickmath.ErrInvalidTickRange)

	_, err = ComputeSwap(state, SortTicksForSwap(ticks, true), false, true, big.NewInt(1_000_000), nil)
	require.ErrorIs(t, err, tickmath.ErrInvalidTickRange)
}

func TestSwapOutputMonotonicInInput(t *testing.T) {
	state, ticks := centeredPool(1_000_000_000_000_000)
	ticks = SortTicksForSwap(ticks, true)

	prev := big.NewInt(-1)
	for amount := int64(1_000); amount <= 10_000_000; amount *= 3 {
		res, err := ComputeSwap(state, ticks, true, true, big.NewInt(amount), nil)
		require.NoError(t, err)
		require.Zero(t, res.CrossTickNum)
		require.True(t, res.AmountOut.Cmp(prev) > 0, "amount %d", amount)
		prev = res.AmountOut
	}
}

func TestSwapFeeBounds(t *testing.T) {
	state, ticks := centeredPool(1_000_000_000)
	for _, a2b := range []bool{true, false} {
		sorted := SortTicksForSwap(ticks, a2b)
		for _, amount := range []int64{1, 7, 399, 1_000, 123_456, 50_000_000, 9_000_000_000} {
			res, err := ComputeSwap(state, sorted, a2b, true, big.NewInt(amount), nil)
			require.NoError(t, err)
			assert.True(t, res.FeeAmount.Sign() >= 0)
			assert.True(t, res.FeeAmount.Cmp(res.AmountIn) <= 0)
			assert.True(t, res.AmountIn.Cmp(big.NewInt(amount)) <= 0)
		}
	}
}

func TestPriceImpactPct(t *testing.T) {
	before := tickmath.MustTickIndexToSqrtPriceX64(0)
	assert.True(t, PriceImpactPct(before, before).IsZero())

	after := tickmath.MustTickIndexToSqrtPriceX64(-6932)
	impact := PriceImpactPct(before, after)
	assert.True(t, impact.Sub(decimal.NewFromInt(50)).Abs().LessThan(decimal.RequireFromString("0.01")), impact.String())
}

func BenchmarkComputeSwap(b *testing.B) {
	state, ticks := centeredPool(1_000_000_000_000)
	ticks = SortTicksForSwap(ticks, true)
	amount := big.NewInt(1_000_000)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = ComputeSwap(state, ticks, true, true, amount, nil)
	}
}
