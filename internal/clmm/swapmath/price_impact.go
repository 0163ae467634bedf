package swapmath

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const priceImpactPrecision int32 = 18

var hundred = decimal.NewFromInt(100)

// PriceImpactPct is |after - before| / before * 100 where each price is the
// square of the corresponding sqrt price. Decimals cancel, so raw Q64.64 values are used.
func PriceImpactPct(before, after *big.Int) decimal.Decimal {
	if before == nil || after == nil || before.Sign() == 0 {
		return decimal.Zero
	}
	b := new(big.Int).Mul(before, before)
	a := new(big.Int).Mul(after, after)
	diff := new(big.Int).Sub(a, b)
	diff.Abs(diff)

	return decimal.NewFromBigInt(diff, 0).
		Mul(hundred).
		DivRound(decimal.NewFromBigInt(b, 0), priceImpactPrecision)
}
