package main

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clmm-route-engine/internal/clmm/tickmath"
	"github.com/hxuan190/clmm-route-engine/internal/config"
)

func TestRender(t *testing.T) {
	v := struct {
		Tick int32 `json:"tick"`
	}{Tick: -60}

	cfg = config.CLIConfig{Output: "text"}
	var buf bytes.Buffer
	require.NoError(t, render(&buf, v, []field{{"tick", v.Tick}, {"sqrt_price", big.NewInt(42)}}))
	assert.Equal(t, "tick        -60\nsqrt_price  42\n", buf.String())

	cfg = config.CLIConfig{Output: "json"}
	buf.Reset()
	require.NoError(t, render(&buf, v, nil))
	assert.JSONEq(t, `{"tick":-60}`, buf.String())
}

func TestTickInfo(t *testing.T) {
	sqrt := tickmath.MustTickIndexToSqrtPriceX64(-61)
	out, fields, err := tickInfo(-61, sqrt, 6, 6, 60)
	require.NoError(t, err)
	assert.Equal(t, int32(-61), out.Tick)
	require.NotNil(t, out.Initializable)
	assert.Equal(t, int32(-120), *out.Initializable)
	assert.Equal(t, tickmath.MaxUsableTick(60), *out.MaxUsable)
	assert.Len(t, fields, 6)

	out, fields, err = tickInfo(0, tickmath.MustTickIndexToSqrtPriceX64(0), 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "1", out.Price)
	assert.Nil(t, out.Initializable)
	assert.Len(t, fields, 3)
}

func TestParseBig(t *testing.T) {
	v, err := parseBig("amount", "340282366920938463463374607431768211456")
	require.NoError(t, err)
	assert.Equal(t, 129, v.BitLen())

	for _, bad := range []string{"", "0", "-1", "1.5", "abc"} {
		_, err := parseBig("amount", bad)
		assert.Error(t, err, bad)
	}
}
