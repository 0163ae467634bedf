// Package mathutil holds the fixed-width integer primitives the CLMM replica is
// built on. Every operation computes on math/big and narrows only at the end,
// failing instead of wrapping. WrappingSubU128 is the single exception.
package mathutil

import (
	"math/big"
)

const (
	// FeeRateDenominator is the fee rate scale: a fee of 2500 is 0.25%.
	FeeRateDenominator = 1_000_000
)

var (
	Zero = big.NewInt(0)
	One  = big.NewInt(1)

	Q64  = new(big.Int).Lsh(One, 64)
	Q128 = new(big.Int).Lsh(One, 128)

	U64Max  = new(big.Int).Sub(Q64, One)
	U128Max = new(big.Int).Sub(Q128, One)

	FeeRateDenom = big.NewInt(FeeRateDenominator)
)

// IsOverflow reports whether v does not fit in an unsigned integer of the given width.
func IsOverflow(v *big.Int, bits int) bool {
	return v.Sign() < 0 || v.BitLen() > bits
}

// CheckBits fails when v is negative or wider than bits.
func CheckBits(v *big.Int, bits int) error {
	if v.Sign() < 0 {
		return ErrNegativeValue
	}
	if v.BitLen() > bits {
		return ErrIntegerDowncastOverflow
	}
	return nil
}

// ToU64 narrows v to uint64.
func ToU64(v *big.Int) (uint64, error) {
	if err := CheckBits(v, 64); err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

// ToU128 returns a copy of v after checking it fits in 128 bits.
func ToU128(v *big.Int) (*big.Int, error) {
	if err := CheckBits(v, 128); err != nil {
		return nil, err
	}
	return new(big.Int).Set(v), nil
}

// CheckedMul returns a*b, failing if the product exceeds limitBits.
func CheckedMul(a, b *big.Int, limitBits int) (*big.Int, error) {
	p := new(big.Int).Mul(a, b)
	if IsOverflow(p, limitBits) {
		return nil, ErrMultiplicationOverflow
	}
	return p, nil
}

// CheckedSub returns a-b and fails instead of going negative.
func CheckedSub(a, b *big.Int) (*big.Int, error) {
	if a.Cmp(b) < 0 {
		return nil, ErrSubtractionUnderflow
	}
	return new(big.Int).Sub(a, b), nil
}

// WrappingSubU128 is unsigned u128 subtraction with wraparound, matching the
// on-chain growth accumulators.
func WrappingSubU128(a, b *big.Int) *big.Int {
	r := new(big.Int).Sub(a, b)
	if r.Sign() < 0 {
		r.Add(r, Q128)
	}
	return r.And(r, U128Max)
}

// MulShiftRight returns (a*b) >> shift, failing if the result exceeds limitBits.
func MulShiftRight(a, b *big.Int, shift uint, limitBits int) (*big.Int, error) {
	r := new(big.Int).Mul(a, b)
	r.Rsh(r, shift)
	if IsOverflow(r, limitBits) {
		return nil, ErrMultiplicationOverflow
	}
	return r, nil
}

// MulShiftRight64RoundUpIf returns (a*b) >> 64, adding one when roundUp is set
// and any of the low 64 bits were dropped.
func MulShiftRight64RoundUpIf(a, b *big.Int, limitBits int, roundUp bool) (*big.Int, error) {
	p := new(big.Int).Mul(a, b)
	lowBits := new(big.Int).And(p, U64Max)
	r := p.Rsh(p, 64)
	if roundUp && lowBits.Sign() > 0 {
		r.Add(r, One)
	}
	if IsOverflow(r, limitBits) {
		return nil, ErrMultiplicationOverflow
	}
	return r, nil
}

// MulShiftLeft returns (a*b) << shift, failing if the result exceeds limitBits.
func MulShiftLeft(a, b *big.Int, shift uint, limitBits int) (*big.Int, error) {
	r := new(big.Int).Mul(a, b)
	r.Lsh(r, shift)
	if IsOverflow(r, limitBits) {
		return nil, ErrMultiplicationOverflow
	}
	return r, nil
}

// MulDivFloor returns floor(a*b/denom).
func MulDivFloor(a, b, denom *big.Int, limitBits int) (*big.Int, error) {
	if denom.Sign() == 0 {
		return nil, ErrDivideByZero
	}
	r := new(big.Int).Mul(a, b)
	r.Quo(r, denom)
	if IsOverflow(r, limitBits) {
		return nil, ErrMultiplicationOverflow
	}
	return r, nil
}

// MulDivCeil returns ceil(a*b/denom).
func MulDivCeil(a, b, denom *big.Int, limitBits int) (*big.Int, error) {
	if denom.Sign() == 0 {
		return nil, ErrDivideByZero
	}
	r := new(big.Int).Mul(a, b)
	r.Add(r, denom)
	r.Sub(r, One)
	r.Quo(r, denom)
	if IsOverflow(r, limitBits) {
		return nil, ErrMultiplicationOverflow
	}
	return r, nil
}

// MulDivRound returns a*b/denom rounded half up.
func MulDivRound(a, b, denom *big.Int, limitBits int) (*big.Int, error) {
	if denom.Sign() == 0 {
		return nil, ErrDivideByZero
	}
	r := new(big.Int).Mul(a, b)
	r.Add(r, new(big.Int).Rsh(denom, 1))
	r.Quo(r, denom)
	if IsOverflow(r, limitBits) {
		return nil, ErrMultiplicationOverflow
	}
	return r, nil
}

// DivRoundUpIf returns n/d, rounded up when roundUp is set and the division is inexact.
func DivRoundUpIf(n, d *big.Int, roundUp bool) (*big.Int, error) {
	if d.Sign() == 0 {
		return nil, ErrDivideByZero
	}
	q, m := new(big.Int).QuoRem(n, d, new(big.Int))
	if roundUp && m.Sign() > 0 {
		q.Add(q, One)
	}
	return q, nil
}

// AbsDiff returns |a-b|.
func AbsDiff(a, b *big.Int) *big.Int {
	r := new(big.Int).Sub(a, b)
	return r.Abs(r)
}

// MinBig returns the smaller of a and b.
func MinBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// MaxBig returns the larger of a and b.
func MaxBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}
