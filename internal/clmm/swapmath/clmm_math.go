package swapmath

import (
	"fmt"
	"math/big"

	"github.com/hxuan190/clmm-route-engine/internal/clmm/mathutil"
	"github.com/hxuan190/clmm-route-engine/internal/clmm/tickmath"
)

// GetDeltaA is the amount of coin A between two sqrt prices at a liquidity.
func GetDeltaA(sqrtPrice0, sqrtPrice1, liquidity *big.Int, roundUp bool) (*big.Int, error) {
	diff := mathutil.AbsDiff(sqrtPrice0, sqrtPrice1)
	if diff.Sign() == 0 || liquidity.Sign() == 0 {
		return new(big.Int), nil
	}
	numerator, err := mathutil.MulShiftLeft(liquidity, diff, 64, 256)
	if err != nil {
		return nil, err
	}
	denominator := new(big.Int).Mul(sqrtPrice0, sqrtPrice1)
	r, err := mathutil.DivRoundUpIf(numerator, denominator, roundUp)
	if err != nil {
		return nil, err
	}
	if mathutil.IsOverflow(r, 64) {
		return nil, fmt.Errorf("delta a: %w", mathutil.ErrIntegerDowncastOverflow)
	}
	return r, nil
}

// GetDeltaB is the amount of coin B between two sqrt prices at a liquidity.
func GetDeltaB(sqrtPrice0, sqrtPrice1, liquidity *big.Int, roundUp bool) (*big.Int, error) {
	diff := mathutil.AbsDiff(sqrtPrice0, sqrtPrice1)
	if diff.Sign() == 0 || liquidity.Sign() == 0 {
		return new(big.Int), nil
	}
	r, err := mathutil.MulShiftRight64RoundUpIf(liquidity, diff, 64, roundUp)
	if err != nil {
		return nil, fmt.Errorf("delta b: %w", err)
	}
	return r, nil
}

func checkSqrtPriceBounds(p *big.Int) error {
	if p.Cmp(tickmath.MinSqrtPriceX64) < 0 || p.Cmp(tickmath.MaxSqrtPriceX64) > 0 {
		return fmt.Errorf("%w: next sqrt price %s", tickmath.ErrInvalidSqrtPrice, p.String())
	}
	return nil
}

// GetNextSqrtPriceAUp moves the price after adding (byAmountIn) or removing coin A. Rounds up.
func GetNextSqrtPriceAUp(sqrtPrice, liquidity, amount *big.Int, byAmountIn bool) (*big.Int, error) {
	if amount.Sign() == 0 {
		return new(big.Int).Set(sqrtPrice), nil
	}
	numerator, err := mathutil.MulShiftLeft(sqrtPrice, liquidity, 64, 256)
	if err != nil {
		return nil, err
	}
	liquidityShl64 := new(big.Int).Lsh(liquidity, 64)
	product, err := mathutil.CheckedMul(sqrtPrice, amount, 256)
	if err != nil {
		return nil, err
	}

	var denominator *big.Int
	if byAmountIn {
		denominator = new(big.Int).Add(liquidityShl64, product)
	} else {
		if liquidityShl64.Cmp(product) <= 0 {
			return nil, fmt.Errorf("next sqrt price a: %w", mathutil.ErrDivideByZero)
		}
		denominator = new(big.Int).Sub(liquidityShl64, product)
	}

	next, err := mathutil.DivRoundUpIf(numerator, denominator, true)
	if err != nil {
		return nil, err
	}
	if err := checkSqrtPriceBounds(next); err != nil {
		return nil, err
	}
	return next, nil
}

// GetNextSqrtPriceBDown moves the price after adding (byAmountIn) or removing coin B. Rounds down.
func GetNextSqrtPriceBDown(sqrtPrice, liquidity, amount *big.Int, byAmountIn bool) (*big.Int, error) {
	delta, err := mathutil.DivRoundUpIf(new(big.Int).Lsh(amount, 64), liquidity, !byAmountIn)
	if err != nil {
		return nil, err
	}

	var next *big.Int
	if byAmountIn {
		next = new(big.Int).Add(sqrtPrice, delta)
	} else {
		next, err = mathutil.CheckedSub(sqrtPrice, delta)
		if err != nil {
			return nil, fmt.Errorf("next sqrt price b: %w", err)
		}
	}
	if err := checkSqrtPriceBounds(next); err != nil {
		return nil, err
	}
	return next, nil
}

// GetNextSqrtPriceFromInput is the price after amount of input coin is swapped in.
func GetNextSqrtPriceFromInput(sqrtPrice, liquidity, amount *big.Int, a2b bool) (*big.Int, error) {
	if a2b {
		return GetNextSqrtPriceAUp(sqrtPrice, liquidity, amount, true)
	}
	return GetNextSqrtPriceBDown(sqrtPrice, liquidity, amount, true)
}

// GetNextSqrtPriceFromOutput is the price after amount of output coin is swapped out.
func GetNextSqrtPriceFromOutput(sqrtPrice, liquidity, amount *big.Int, a2b bool) (*big.Int, error) {
	if a2b {
		return GetNextSqrtPriceBDown(sqrtPrice, liquidity, amount, false)
	}
	return GetNextSqrtPriceAUp(sqrtPrice, liquidity, amount, false)
}

// GetDeltaUpFromInput is the input needed to move from current to target, rounded up.
// Unlike GetDeltaA it is not narrowed: the step compares it against the remaining amount.
func GetDeltaUpFromInput(current, target, liquidity *big.Int, a2b bool) *big.Int {
	diff := mathutil.AbsDiff(current, target)
	if diff.Sign() == 0 || liquidity.Sign() == 0 {
		return new(big.Int)
	}
	product := new(big.Int).Mul(liquidity, diff)
	if a2b {
		numerator := product.Lsh(product, 64)
		denominator := new(big.Int).Mul(current, target)
		r, m := new(big.Int).QuoRem(numerator, denominator, new(big.Int))
		if m.Sign() > 0 {
			r.Add(r, mathutil.One)
		}
		return r
	}
	lowBits := new(big.Int).And(product, mathutil.U64Max)
	r := product.Rsh(product, 64)
	if lowBits.Sign() > 0 {
		r.Add(r, mathutil.One)
	}
	return r
}

// GetDeltaDownFromOutput is the output released moving from current to target, rounded down.
func GetDeltaDownFromOutput(current, target, liquidity *big.Int, a2b bool) *big.Int {
	diff := mathutil.AbsDiff(current, target)
	if diff.Sign() == 0 || liquidity.Sign() == 0 {
		return new(big.Int)
	}
	product := new(big.Int).Mul(liquidity, diff)
	if a2b {
		return product.Rsh(product, 64)
	}
	numerator := product.Lsh(product, 64)
	denominator := new(big.Int).Mul(current, target)
	return numerator.Quo(numerator, denominator)
}
