// Package liquidity converts between position liquidity and coin amounts.
//
// Amounts the user must supply are rounded up and amounts paid back to the
// user are rounded down, matching the pool contract.
package liquidity

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/hxuan190/clmm-route-engine/internal/clmm/mathutil"
	"github.com/hxuan190/clmm-route-engine/internal/clmm/swapmath"
	"github.com/hxuan190/clmm-route-engine/internal/clmm/tickmath"
)

var (
	// ErrInvalidAmountSide is returned when the fixed coin cannot be deposited at the current price.
	ErrInvalidAmountSide = errors.New("fixed coin not accepted for the position range at the current price")
	ErrZeroLiquidity     = errors.New("liquidity is zero")
)

// LiquidityResult is a liquidity figure together with the coin amounts it represents.
type LiquidityResult struct {
	Liquidity *big.Int `json:"liquidity"`
	AmountA   *big.Int `json:"amountA"`
	AmountB   *big.Int `json:"amountB"`
}

// rangeSqrtPrices resolves and validates the sqrt prices of a tick range.
func rangeSqrtPrices(lower, upper int32) (*big.Int, *big.Int, error) {
	if lower >= upper {
		return nil, nil, fmt.Errorf("%w: lower %d >= upper %d", tickmath.ErrInvalidTickRange, lower, upper)
	}
	lowerSqrt, err := tickmath.TickIndexToSqrtPriceX64(lower)
	if err != nil {
		return nil, nil, err
	}
	upperSqrt, err := tickmath.TickIndexToSqrtPriceX64(upper)
	if err != nil {
		return nil, nil, err
	}
	return lowerSqrt, upperSqrt, nil
}

// estimateForA is the liquidity provided by amount of coin A between two prices, floored.
func estimateForA(p0, p1, amount *big.Int) (*big.Int, error) {
	lo, hi := mathutil.MinBig(p0, p1), mathutil.MaxBig(p0, p1)
	diff := new(big.Int).Sub(hi, lo)
	if diff.Sign() == 0 {
		return nil, fmt.Errorf("liquidity for coin a: %w", mathutil.ErrDivideByZero)
	}
	num := new(big.Int).Mul(amount, hi)
	num.Mul(num, lo)
	num.Rsh(num, 64)
	return num.Quo(num, diff), nil
}

// estimateForB is the liquidity provided by amount of coin B between two prices, floored.
func estimateForB(p0, p1, amount *big.Int) (*big.Int, error) {
	diff := mathutil.AbsDiff(p0, p1)
	if diff.Sign() == 0 {
		return nil, fmt.Errorf("liquidity for coin b: %w", mathutil.ErrDivideByZero)
	}
	num := new(big.Int).Lsh(amount, 64)
	return num.Quo(num, diff), nil
}

// LiquidityFromTokenAmount computes the liquidity that amount of one coin buys in
// [lower, upper] at curSqrtPrice, and the amounts of both coins it corresponds to.
// Below the range only coin A is accepted, above it only coin B.
func LiquidityFromTokenAmount(lower, upper int32, amount *big.Int, isA, roundUp bool, curSqrtPrice *big.Int) (LiquidityResult, error) {
	if err := mathutil.CheckBits(amount, 64); err != nil {
		return LiquidityResult{}, fmt.Errorf("coin amount: %w", err)
	}
	lowerSqrt, upperSqrt, err := rangeSqrtPrices(lower, upper)
	if err != nil {
		return LiquidityResult{}, err
	}

	var liquidity *big.Int
	switch {
	case curSqrtPrice.Cmp(lowerSqrt) <= 0:
		if !isA {
			return LiquidityResult{}, fmt.Errorf("%w: price below range needs coin a", ErrInvalidAmountSide)
		}
		liquidity, err = estimateForA(lowerSqrt, upperSqrt, amount)
	case curSqrtPrice.Cmp(upperSqrt) >= 0:
		if isA {
			return LiquidityResult{}, fmt.Errorf("%w: price above range needs coin b", ErrInvalidAmountSide)
		}
		liquidity, err = estimateForB(lowerSqrt, upperSqrt, amount)
	case isA:
		liquidity, err = estimateForA(curSqrtPrice, upperSqrt, amount)
	default:
		liquidity, err = estimateForB(lowerSqrt, curSqrtPrice, amount)
	}
	if err != nil {
		return LiquidityResult{}, err
	}
	if mathutil.IsOverflow(liquidity, 128) {
		return LiquidityResult{}, fmt.Errorf("liquidity: %w", mathutil.ErrIntegerDowncastOverflow)
	}

	amountA, amountB, err := CoinAmountsFromLiquidity(liquidity, curSqrtPrice, lowerSqrt, upperSqrt, roundUp)
	if err != nil {
		return LiquidityResult{}, err
	}
	return LiquidityResult{Liquidity: liquidity, AmountA: amountA, AmountB: amountB}, nil
}

// CoinAmountsFromLiquidity returns the coin A and coin B amounts held by liquidity
// in [lowerSqrt, upperSqrt] at curSqrtPrice.
func CoinAmountsFromLiquidity(liquidity, curSqrtPrice, lowerSqrt, upperSqrt *big.Int, roundUp bool) (*big.Int, *big.Int, error) {
	if lowerSqrt.Cmp(upperSqrt) >= 0 {
		return nil, nil, fmt.Errorf("%w: lower sqrt price not below upper", tickmath.ErrInvalidTickRange)
	}
	switch {
	case curSqrtPrice.Cmp(lowerSqrt) < 0:
		a, err := swapmath.GetDeltaA(lowerSqrt, upperSqrt, liquidity, roundUp)
		if err != nil {
			return nil, nil, err
		}
		return a, new(big.Int), nil
	case curSqrtPrice.Cmp(upperSqrt) < 0:
		a, err := swapmath.GetDeltaA(curSqrtPrice, upperSqrt, liquidity, roundUp)
		if err != nil {
			return nil, nil, err
		}
		b, err := swapmath.GetDeltaB(lowerSqrt, curSqrtPrice, liquidity, roundUp)
		if err != nil {
			return nil, nil, err
		}
		return a, b, nil
	default:
		b, err := swapmath.GetDeltaB(lowerSqrt, upperSqrt, liquidity, roundUp)
		if err != nil {
			return nil, nil, err
		}
		return new(big.Int), b, nil
	}
}

// LiquidityFromAmounts is the largest liquidity both amounts can fund.
func LiquidityFromAmounts(curSqrtPrice, lowerSqrt, upperSqrt, amountA, amountB *big.Int) (*big.Int, error) {
	if lowerSqrt.Cmp(upperSqrt) >= 0 {
		return nil, fmt.Errorf("%w: lower sqrt price not below upper", tickmath.ErrInvalidTickRange)
	}
	switch {
	case curSqrtPrice.Cmp(lowerSqrt) <= 0:
		return estimateForA(lowerSqrt, upperSqrt, amountA)
	case curSqrtPrice.Cmp(upperSqrt) >= 0:
		return estimateForB(lowerSqrt, upperSqrt, amountB)
	}
	la, err := estimateForA(curSqrtPrice, upperSqrt, amountA)
	if err != nil {
		return nil, err
	}
	lb, err := estimateForB(lowerSqrt, curSqrtPrice, amountB)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(mathutil.MinBig(la, lb)), nil
}
