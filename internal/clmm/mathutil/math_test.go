package mathutil

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bi(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad int " + s)
	}
	return v
}

func TestMulDivRounding(t *testing.T) {
	tests := []struct {
		name                string
		a, b, d             int64
		floor, ceil, rounds int64
	}{
		{"exact", 10, 10, 5, 20, 20, 20},
		{"below half", 10, 1, 3, 3, 4, 3},
		{"above half", 5, 1, 3, 1, 2, 2},
		{"half", 3, 1, 2, 1, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b, d := big.NewInt(tt.a), big.NewInt(tt.b), big.NewInt(tt.d)

			f, err := MulDivFloor(a, b, d, 64)
			require.NoError(t, err)
			assert.Equal(t, tt.floor, f.Int64())

			c, err := MulDivCeil(a, b, d, 64)
			require.NoError(t, err)
			assert.Equal(t, tt.ceil, c.Int64())

			r, err := MulDivRound(a, b, d, 64)
			require.NoError(t, err)
			assert.Equal(t, tt.rounds, r.Int64())
		})
	}
}

func TestMulDivOverflowAndZero(t *testing.T) {
	_, err := MulDivFloor(U64Max, big.NewInt(2), One, 64)
	require.ErrorIs(t, err, ErrMultiplicationOverflow)
	require.ErrorIs(t, err, ErrArithmeticOverflow)

	_, err = MulDivCeil(One, One, Zero, 64)
	require.ErrorIs(t, err, ErrDivideByZero)
}

func TestMulShiftRight(t *testing.T) {
	r, err := MulShiftRight(Q64, big.NewInt(7), 64, 64)
	require.NoError(t, err)
	assert.Equal(t, int64(7), r.Int64())

	_, err = MulShiftRight(U128Max, U128Max, 64, 128)
	require.ErrorIs(t, err, ErrMultiplicationOverflow)
}

func TestMulShiftRight64RoundUpIf(t *testing.T) {
	// 3 * 2^63 = 1.5 * 2^64
	a := new(big.Int).Lsh(One, 63)
	b := big.NewInt(3)

	down, err := MulShiftRight64RoundUpIf(a, b, 64, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), down.Int64())

	up, err := MulShiftRight64RoundUpIf(a, b, 64, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), up.Int64())

	exact, err := MulShiftRight64RoundUpIf(Q64, b, 64, true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), exact.Int64())
}

func TestWrappingSubU128(t *testing.T) {
	assert.Equal(t, "5", WrappingSubU128(big.NewInt(10), big.NewInt(5)).String())

	// 3 - 5 wraps to 2^128 - 2
	got := WrappingSubU128(big.NewInt(3), big.NewInt(5))
	want := new(big.Int).Sub(Q128, big.NewInt(2))
	assert.Equal(t, want.String(), got.String())

	// checkpoint taken just before the counter wrapped
	before := new(big.Int).Sub(Q128, big.NewInt(10))
	after := big.NewInt(15)
	assert.Equal(t, "25", WrappingSubU128(after, before).String())
}

func TestCheckedSub(t *testing.T) {
	_, err := CheckedSub(big.NewInt(1), big.NewInt(2))
	require.ErrorIs(t, err, ErrSubtractionUnderflow)

	r, err := CheckedSub(big.NewInt(2), big.NewInt(2))
	require.NoError(t, err)
	assert.Zero(t, r.Sign())
}

func TestDowncasts(t *testing.T) {
	_, err := ToU64(Q64)
	require.ErrorIs(t, err, ErrIntegerDowncastOverflow)

	v, err := ToU64(U64Max)
	require.NoError(t, err)
	assert.Equal(t, ^uint64(0), v)

	_, err = ToU128(Q128)
	require.ErrorIs(t, err, ErrIntegerDowncastOverflow)

	_, err = ToU64(big.NewInt(-1))
	require.ErrorIs(t, err, ErrNegativeValue)
}

func TestSignedEncodings(t *testing.T) {
	assert.Equal(t, uint32(4294967295), TickToU32(-1))
	assert.Equal(t, int32(-443636), U32ToTick(TickToU32(-443636)))

	enc, err := I128ToU128(big.NewInt(-1))
	require.NoError(t, err)
	assert.Equal(t, U128Max.String(), enc.String())

	dec, err := U128ToI128(enc)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), dec.Int64())

	_, err = I128ToU128(bi("170141183460469231731687303715884105728"))
	require.ErrorIs(t, err, ErrIntegerDowncastOverflow)
}

func BenchmarkMulDivFloor(b *testing.B) {
	x := bi("79226673515401279992447579055")
	y := bi("18446744073709551616")
	d := bi("4295048016")

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = MulDivFloor(x, y, d, 256)
	}
}
