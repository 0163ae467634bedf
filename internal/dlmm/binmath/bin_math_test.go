package binmath

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinIDToPrice(t *testing.T) {
	tests := []struct {
		id   int32
		step uint16
		want string
	}{
		{0, 25, "1"},
		{1, 25, "1.0025"},
		{2, 25, "1.00500625"},
		{3, 100, "1.030301"},
	}
	for _, tt := range tests {
		got, err := BinIDToPrice(tt.id, tt.step)
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "id %d: %s", tt.id, got)
	}

	inv, err := BinIDToPrice(-1, 25)
	require.NoError(t, err)
	assert.True(t, inv.Mul(decimal.RequireFromString("1.0025")).Sub(decimal.NewFromInt(1)).Abs().LessThan(decimal.New(1, -30)))
}

func TestBinIDToPriceErrors(t *testing.T) {
	_, err := BinIDToPrice(MaxBinID+1, 25)
	require.ErrorIs(t, err, ErrBinIDOutOfRange)
	_, err = BinIDToPrice(MinBinID-1, 25)
	require.ErrorIs(t, err, ErrBinIDOutOfRange)
	_, err = BinIDToPrice(0, 0)
	require.ErrorIs(t, err, ErrInvalidBinStep)
}

func TestPriceToBinID(t *testing.T) {
	tests := []struct {
		price   string
		roundUp bool
		want    int32
	}{
		{"1", false, 0},
		{"1", true, 0},
		{"1.0025", false, 1},
		{"1.003", false, 1},
		{"1.003", true, 2},
		{"0.999", false, -1},
		{"0.999", true, 0},
	}
	for _, tt := range tests {
		got, err := PriceToBinID(decimal.RequireFromString(tt.price), 25, tt.roundUp)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "price %s roundUp %v", tt.price, tt.roundUp)
	}

	_, err := PriceToBinID(decimal.Zero, 25, false)
	require.ErrorIs(t, err, ErrInvalidPrice)
}

func TestBinRoundTrip(t *testing.T) {
	for _, step := range []uint16{1, 10, 25, 100} {
		for id := int32(-2000); id <= 2000; id += 37 {
			p, err := BinIDToPrice(id, step)
			require.NoError(t, err)
			for _, up := range []bool{false, true} {
				got, err := PriceToBinID(p, step, up)
				require.NoError(t, err)
				require.Equal(t, id, got, "step %d id %d", step, id)
			}
		}
	}
}
