package tickmath

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/hxuan190/clmm-route-engine/internal/clmm/mathutil"
)

// PricePrecision is the number of fractional digits kept for display prices.
const PricePrecision int32 = 36

const sqrtFloatPrec = 256

var q128Decimal = decimal.NewFromBigInt(mathutil.Q128, 0)

// SqrtPriceX64ToPrice converts a Q64.64 sqrt price to a human price of coin A in coin B.
func SqrtPriceX64ToPrice(sqrtPrice *big.Int, decimalsA, decimalsB int32) decimal.Decimal {
	sq := new(big.Int).Mul(sqrtPrice, sqrtPrice)
	return decimal.NewFromBigInt(sq, 0).
		DivRound(q128Decimal, PricePrecision).
		Shift(decimalsA - decimalsB)
}

// PriceToSqrtPriceX64 converts a human price to the floor of its Q64.64 sqrt price.
func PriceToSqrtPriceX64(price decimal.Decimal, decimalsA, decimalsB int32) (*big.Int, error) {
	raw := price.Shift(decimalsB - decimalsA)
	if raw.Sign() <= 0 {
		return nil, fmt.Errorf("%w: non-positive price %s", ErrInvalidSqrtPrice, price.String())
	}

	f, ok := new(big.Float).SetPrec(sqrtFloatPrec).SetString(raw.String())
	if !ok {
		return nil, fmt.Errorf("%w: unparsable price %s", ErrInvalidSqrtPrice, price.String())
	}
	f.Sqrt(f)
	f.Mul(f, new(big.Float).SetPrec(sqrtFloatPrec).SetInt(mathutil.Q64))

	sqrtPrice, _ := f.Int(nil)
	if sqrtPrice.Cmp(MinSqrtPriceX64) < 0 || sqrtPrice.Cmp(MaxSqrtPriceX64) > 0 {
		return nil, fmt.Errorf("%w: price %s", ErrInvalidSqrtPrice, price.String())
	}
	return sqrtPrice, nil
}

// TickIndexToPrice returns the human price at a tick.
func TickIndexToPrice(tick int32, decimalsA, decimalsB int32) (decimal.Decimal, error) {
	sqrtPrice, err := TickIndexToSqrtPriceX64(tick)
	if err != nil {
		return decimal.Zero, err
	}
	return SqrtPriceX64ToPrice(sqrtPrice, decimalsA, decimalsB), nil
}

// PriceToTickIndex returns the greatest tick whose price does not exceed price.
func PriceToTickIndex(price decimal.Decimal, decimalsA, decimalsB int32) (int32, error) {
	sqrtPrice, err := PriceToSqrtPriceX64(price, decimalsA, decimalsB)
	if err != nil {
		return 0, err
	}
	return SqrtPriceX64ToTickIndex(sqrtPrice)
}

// PriceToInitializableTickIndex is PriceToTickIndex rounded down to spacing.
func PriceToInitializableTickIndex(price decimal.Decimal, decimalsA, decimalsB, spacing int32) (int32, error) {
	tick, err := PriceToTickIndex(price, decimalsA, decimalsB)
	if err != nil {
		return 0, err
	}
	return GetInitializableTickIndex(tick, spacing)
}
