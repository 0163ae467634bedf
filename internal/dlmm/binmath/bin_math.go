// Package binmath converts between bin ids and display prices for pools that
// discretize liquidity into fixed-ratio bins. Prices are quote per base in
// raw units and are display-only.
package binmath

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Bin ids are stored on-chain in 24 bits.
const (
	MinBinID int32 = -(1 << 23)
	MaxBinID int32 = 1<<23 - 1

	BasisPointMax = 10_000
	Precision     = 36
)

var (
	ErrBinIDOutOfRange = errors.New("bin id outside 24-bit range")
	ErrInvalidBinStep  = errors.New("invalid bin step")
	ErrInvalidPrice    = errors.New("price must be positive")
)

var (
	one    = decimal.NewFromInt(1)
	bpsMax = decimal.NewFromInt(BasisPointMax)
)

func base(binStep uint16) decimal.Decimal {
	return one.Add(decimal.NewFromInt(int64(binStep)).Div(bpsMax))
}

// powTruncated is b^n by squaring, truncating every product to keep digit
// counts bounded for large n.
func powTruncated(b decimal.Decimal, n int64) decimal.Decimal {
	result := one
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(b).Truncate(Precision + 8)
		}
		b = b.Mul(b).Truncate(Precision + 8)
		n >>= 1
	}
	return result
}

func checkBinID(binID int32) error {
	if binID < MinBinID || binID > MaxBinID {
		return fmt.Errorf("%w: %d", ErrBinIDOutOfRange, binID)
	}
	return nil
}

// BinIDToPrice returns (1 + binStep/10000)^binID.
func BinIDToPrice(binID int32, binStep uint16) (decimal.Decimal, error) {
	if binStep == 0 || binStep >= BasisPointMax {
		return decimal.Zero, fmt.Errorf("%w: %d", ErrInvalidBinStep, binStep)
	}
	if err := checkBinID(binID); err != nil {
		return decimal.Zero, err
	}
	n := int64(binID)
	if n < 0 {
		return one.DivRound(powTruncated(base(binStep), -n), Precision), nil
	}
	return powTruncated(base(binStep), n).Round(Precision), nil
}

// PriceToBinID returns the bin whose price range contains price: the largest id
// with BinIDToPrice(id) <= price, or the smallest with BinIDToPrice(id) >= price
// when roundUp.
func PriceToBinID(price decimal.Decimal, binStep uint16, roundUp bool) (int32, error) {
	if !price.IsPositive() {
		return 0, ErrInvalidPrice
	}
	if binStep == 0 || binStep >= BasisPointMax {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBinStep, binStep)
	}

	f, _ := price.Float64()
	est := math.Log(f) / math.Log1p(float64(binStep)/BasisPointMax)
	if math.IsInf(est, 0) || math.IsNaN(est) || est > float64(MaxBinID)+1 || est < float64(MinBinID)-1 {
		return 0, fmt.Errorf("%w: price %s", ErrBinIDOutOfRange, price.String())
	}
	id := int32(math.Floor(est))
	if id < MinBinID {
		id = MinBinID
	}
	if id > MaxBinID {
		id = MaxBinID
	}

	// float estimate can be off by one near bin boundaries
	at := func(id int32) decimal.Decimal {
		p, _ := BinIDToPrice(id, binStep)
		return p
	}
	for id > MinBinID && at(id).GreaterThan(price) {
		id--
	}
	for id < MaxBinID && at(id+1).LessThanOrEqual(price) {
		id++
	}

	if roundUp && !at(id).Equal(price) {
		id++
	}
	if err := checkBinID(id); err != nil {
		return 0, err
	}
	return id, nil
}
