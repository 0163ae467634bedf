package liquidity

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSlippage          = errors.New("slippage must be in [0, 1)")
	ErrLiquidityExceedsPosition = errors.New("liquidity delta exceeds position liquidity")

	one = decimal.NewFromInt(1)
)

// AdjustForSlippage bounds amount by slippage. With roundUp it returns the
// maximum-in bound ceil(amount*(1+slippage)), otherwise the minimum-out bound
// floor(amount*(1-slippage)).
func AdjustForSlippage(amount *big.Int, slippage decimal.Decimal, roundUp bool) (*big.Int, error) {
	if slippage.IsNegative() || slippage.GreaterThanOrEqual(one) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSlippage, slippage.String())
	}
	d := decimal.NewFromBigInt(amount, 0)
	if roundUp {
		return d.Mul(one.Add(slippage)).Ceil().BigInt(), nil
	}
	return d.Mul(one.Sub(slippage)).Floor().BigInt(), nil
}

// EstimateResult is a deposit quote: the liquidity, the exact amounts it needs
// and the slippage-adjusted limits for both coins.
type EstimateResult struct {
	LiquidityResult
	TokenMaxA  *big.Int `json:"tokenMaxA"`
	TokenMaxB  *big.Int `json:"tokenMaxB"`
	FixAmountA bool     `json:"fixAmountA"`
}

// EstimateLiquidityAndCoinAmount quotes a deposit fixed on one coin and derives
// the limits for both. With roundUp the limits are maximums, otherwise minimums.
func EstimateLiquidityAndCoinAmount(lower, upper int32, amount *big.Int, isA, roundUp bool, slippage decimal.Decimal, curSqrtPrice *big.Int) (EstimateResult, error) {
	res, err := LiquidityFromTokenAmount(lower, upper, amount, isA, roundUp, curSqrtPrice)
	if err != nil {
		return EstimateResult{}, err
	}
	maxA, err := AdjustForSlippage(res.AmountA, slippage, roundUp)
	if err != nil {
		return EstimateResult{}, err
	}
	maxB, err := AdjustForSlippage(res.AmountB, slippage, roundUp)
	if err != nil {
		return EstimateResult{}, err
	}
	return EstimateResult{
		LiquidityResult: res,
		TokenMaxA:       maxA,
		TokenMaxB:       maxB,
		FixAmountA:      isA,
	}, nil
}

// RemoveQuote is what a withdrawal of liquidity pays out.
type RemoveQuote struct {
	Liquidity  *big.Int `json:"liquidity"`
	AmountA    *big.Int `json:"amountA"`
	AmountB    *big.Int `json:"amountB"`
	MinAmountA *big.Int `json:"minAmountA"`
	MinAmountB *big.Int `json:"minAmountB"`
}

// RemoveLiquidityAmounts quotes removing delta from a position holding
// positionLiquidity in [lower, upper]. Amounts are floored.
func RemoveLiquidityAmounts(delta, positionLiquidity *big.Int, lower, upper int32, curSqrtPrice *big.Int, slippage decimal.Decimal) (RemoveQuote, error) {
	if delta.Sign() <= 0 {
		return RemoveQuote{}, ErrZeroLiquidity
	}
	if delta.Cmp(positionLiquidity) > 0 {
		return RemoveQuote{}, fmt.Errorf("%w: %s > %s", ErrLiquidityExceedsPosition, delta, positionLiquidity)
	}
	lowerSqrt, upperSqrt, err := rangeSqrtPrices(lower, upper)
	if err != nil {
		return RemoveQuote{}, err
	}
	a, b, err := CoinAmountsFromLiquidity(delta, curSqrtPrice, lowerSqrt, upperSqrt, false)
	if err != nil {
		return RemoveQuote{}, err
	}
	minA, err := AdjustForSlippage(a, slippage, false)
	if err != nil {
		return RemoveQuote{}, err
	}
	minB, err := AdjustForSlippage(b, slippage, false)
	if err != nil {
		return RemoveQuote{}, err
	}
	return RemoveQuote{
		Liquidity:  new(big.Int).Set(delta),
		AmountA:    a,
		AmountB:    b,
		MinAmountA: minA,
		MinAmountB: minB,
	}, nil
}
