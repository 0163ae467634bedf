package common

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hxuan190/clmm-route-engine/internal/adapters/sui"
	"github.com/hxuan190/clmm-route-engine/internal/clmm/mathutil"
	"github.com/hxuan190/clmm-route-engine/internal/clmm/tickmath"
	"github.com/hxuan190/clmm-route-engine/internal/dlmm/binmath"
	"github.com/hxuan190/clmm-route-engine/internal/services/market"
	"github.com/hxuan190/clmm-route-engine/internal/services/router"
)

func TestHTTPErrorFromDomain(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("quote: %w", router.ErrInvalidAmount), http.StatusBadRequest},
		{tickmath.ErrInvalidTick, http.StatusBadRequest},
		{fmt.Errorf("bin: %w", binmath.ErrInvalidBinStep), http.StatusBadRequest},
		{fmt.Errorf("x: %w", router.ErrCoinNotFound), http.StatusNotFound},
		{router.ErrNoPathFound, http.StatusNotFound},
		{sui.ErrObjectNotFound, http.StatusNotFound},
		{market.ErrPoolPaused, http.StatusUnprocessableEntity},
		{mathutil.ErrMultiplicationOverflow, http.StatusUnprocessableEntity},
		{sui.ErrEventDecode, http.StatusBadGateway},
		{sui.ErrSimulationAbort, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{HTTPErrorNotFound("gone"), http.StatusNotFound},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPErrorFromDomain(tt.err).StatusCode)
		})
	}
	assert.Nil(t, HTTPErrorFromDomain(nil))
	assert.Equal(t, "Bad request", HTTPErrorBadRequest("").Message)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("CLMM_TEST_STR", "x")
	t.Setenv("CLMM_TEST_INT", "12")
	t.Setenv("CLMM_TEST_BAD_INT", "twelve")
	t.Setenv("CLMM_TEST_BOOL", "false")
	t.Setenv("CLMM_TEST_DUR", "750ms")
	t.Setenv("CLMM_TEST_SECS", "30")
	t.Setenv("CLMM_TEST_LIST", " a, ,b ,")

	assert.Equal(t, "x", GetEnvOrDefault("CLMM_TEST_STR", "d"))
	assert.Equal(t, "d", GetEnvOrDefault("CLMM_TEST_UNSET", "d"))
	assert.Equal(t, 12, GetEnvOrDefaultInt("CLMM_TEST_INT", 1))
	assert.Equal(t, 1, GetEnvOrDefaultInt("CLMM_TEST_BAD_INT", 1))
	assert.False(t, GetEnvOrDefaultBool("CLMM_TEST_BOOL", true))
	assert.True(t, GetEnvOrDefaultBool("CLMM_TEST_UNSET", true))
	assert.Equal(t, 750*time.Millisecond, GetEnvOrDefaultDuration("CLMM_TEST_DUR", time.Second))
	assert.Equal(t, 30*time.Second, GetEnvOrDefaultDuration("CLMM_TEST_SECS", time.Second))
	assert.Equal(t, time.Second, GetEnvOrDefaultDuration("CLMM_TEST_UNSET", time.Second))
	assert.Equal(t, []string{"a", "b"}, GetEnvList("CLMM_TEST_LIST"))
}

func TestDetectRuntimeProfile(t *testing.T) {
	assert.Equal(t, SmallServerGOGC, DetectRuntimeProfile(2).GOGC)
	assert.Equal(t, 8, DetectRuntimeProfile(8).MaxProcs)
	assert.Equal(t, 28, DetectRuntimeProfile(32).MaxProcs)
}
