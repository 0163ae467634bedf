package mathutil

import "math/big"

var (
	i128Min = new(big.Int).Neg(new(big.Int).Lsh(One, 127))
	i128Max = new(big.Int).Sub(new(big.Int).Lsh(One, 127), One)
)

// TickToU32 is the on-chain encoding of a signed tick.
func TickToU32(tick int32) uint32 {
	return uint32(tick)
}

// U32ToTick decodes an on-chain tick.
func U32ToTick(bits uint32) int32 {
	return int32(bits)
}

// I128ToU128 encodes a signed 128-bit value as its two's complement.
func I128ToU128(v *big.Int) (*big.Int, error) {
	if v.Cmp(i128Min) < 0 || v.Cmp(i128Max) > 0 {
		return nil, ErrIntegerDowncastOverflow
	}
	if v.Sign() >= 0 {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int).Add(v, Q128), nil
}

// U128ToI128 decodes a two's-complement u128 into a signed value.
func U128ToI128(v *big.Int) (*big.Int, error) {
	if err := CheckBits(v, 128); err != nil {
		return nil, err
	}
	if v.Bit(127) == 0 {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int).Sub(v, Q128), nil
}
