package http

import (
	"context"
	"encoding/json"
	"math/big"
	gohttp "net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clmm-route-engine/internal/aggregator"
	"github.com/hxuan190/clmm-route-engine/internal/clmm/tickmath"
	"github.com/hxuan190/clmm-route-engine/internal/config"
	"github.com/hxuan190/clmm-route-engine/internal/domain"
	"github.com/hxuan190/clmm-route-engine/internal/services/market"
	"github.com/hxuan190/clmm-route-engine/internal/services/router"
)

const (
	coinSUI  = "0x2::sui::SUI"
	coinUSDC = "0xdba34672e30cb065b1f93e3ab55318768fd6fef66c15942c9f7cb846e2f900e7::usdc::USDC"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type echoOracle struct{}

// SimulateRoutes answers amount in, amount - 1% out for every candidate.
func (echoOracle) SimulateRoutes(_ context.Context, candidates []domain.RouteCandidate, amount *big.Int, byAmountIn bool) ([]domain.RouteSimulation, error) {
	sims := make([]domain.RouteSimulation, len(candidates))
	for i := range candidates {
		out := new(big.Int).Mul(amount, big.NewInt(99))
		out.Div(out, big.NewInt(100))
		sims[i] = domain.RouteSimulation{AmountIn: new(big.Int).Set(amount), AmountOut: out}
	}
	return sims, nil
}

type stubSource struct{}

func (stubSource) FetchPool(_ context.Context, address string) (*domain.PoolSnapshot, error) {
	return &domain.PoolSnapshot{
		Address:          address,
		CurrentSqrtPrice: tickmath.MustTickIndexToSqrtPriceX64(0),
		Liquidity:        big.NewInt(1_000_000_000_000),
		FeeRate:          2500,
		TickSpacing:      60,
		FetchedAt:        time.Now(),
	}, nil
}

func (stubSource) FetchTicks(context.Context, *domain.PoolSnapshot) ([]domain.TickData, error) {
	return []domain.TickData{
		{Index: -120, LiquidityNet: big.NewInt(1_000_000_000_000)},
		{Index: 120, LiquidityNet: big.NewInt(-1_000_000_000_000)},
	}, nil
}

func newTestEngine(t *testing.T, burst int) *gin.Engine {
	t.Helper()
	graph := router.NewGraph()
	graph.Load(domain.RegistrySnapshot{FetchedAt: time.Now(), Pools: []domain.PoolInfo{
		{Address: "0x1", CoinA: domain.Coin{Type: coinUSDC, Decimals: 6}, CoinB: domain.Coin{Type: coinSUI, Decimals: 9}, FeeRate: 2500, TVLInUSD: 100},
		{Address: "0x2", CoinA: domain.Coin{Type: coinUSDC, Decimals: 6}, CoinB: domain.Coin{Type: coinSUI, Decimals: 9}, FeeRate: 500, TVLInUSD: 50},
	}})

	agg, err := aggregator.NewService(aggregator.Deps{
		Graph:  graph,
		Router: router.NewRouter(graph, echoOracle{}),
		Pools:  market.NewPoolProvider(stubSource{}, time.Minute),
	})
	require.NoError(t, err)

	svc, err := NewHTTPService(&config.GeneralConfig{
		HTTPHost:  "localhost",
		HTTPPort:  "0",
		Env:       config.DevEnv,
		RateLimit: 1,
		RateBurst: burst,
	}, agg)
	require.NoError(t, err)
	return svc.Engine()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func do(t *testing.T, e *gin.Engine, method, path string, query url.Values) (int, envelope) {
	t.Helper()
	target := path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func TestHealth(t *testing.T) {
	e := newTestEngine(t, 100)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(gohttp.MethodGet, "/health", nil))
	assert.Equal(t, gohttp.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pools":2`)
}

func TestQuoteEndpoint(t *testing.T) {
	e := newTestEngine(t, 100)

	code, env := do(t, e, gohttp.MethodGet, "/api/v1/quote", url.Values{
		"from": {coinUSDC}, "to": {coinSUI}, "amount": {"10000"},
	})
	require.Equal(t, gohttp.StatusOK, code, env.Error)
	var q QuoteResponse
	require.NoError(t, json.Unmarshal(env.Data, &q))
	assert.Equal(t, "ExactIn", q.SwapMode)
	assert.Equal(t, "10000", q.AmountIn)
	assert.Equal(t, "9900", q.AmountOut)
	// floor(9900 * 0.995)
	assert.Equal(t, "9850", q.OtherAmountThreshold)
	assert.Equal(t, uint16(50), q.SlippageBps)
	assert.Equal(t, 1, q.HopCount)
	assert.Equal(t, 2, q.Evaluated)
	require.Len(t, q.RoutePath, 2)

	code, env = do(t, e, gohttp.MethodGet, "/api/v1/quote", url.Values{
		"from": {coinUSDC}, "to": {coinSUI}, "amount": {"10000"}, "swapMode": {"ExactOut"}, "slippageBps": {"100"},
	})
	require.Equal(t, gohttp.StatusOK, code, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, &q))
	assert.Equal(t, "ExactOut", q.SwapMode)
	// ceil(10000 * 1.01)
	assert.Equal(t, "10100", q.OtherAmountThreshold)
}

func TestQuoteEndpointErrors(t *testing.T) {
	e := newTestEngine(t, 100)

	cases := []struct {
		name  string
		query url.Values
		code  int
	}{
		{"missing amount", url.Values{"from": {coinUSDC}, "to": {coinSUI}}, gohttp.StatusBadRequest},
		{"zero amount", url.Values{"from": {coinUSDC}, "to": {coinSUI}, "amount": {"0"}}, gohttp.StatusBadRequest},
		{"bad mode", url.Values{"from": {coinUSDC}, "to": {coinSUI}, "amount": {"1"}, "swapMode": {"Both"}}, gohttp.StatusBadRequest},
		{"full slippage", url.Values{"from": {coinUSDC}, "to": {coinSUI}, "amount": {"1"}, "slippageBps": {"10000"}}, gohttp.StatusBadRequest},
		{"fallback without coins", url.Values{"from": {coinUSDC}, "to": {coinSUI}, "amount": {"1"}, "fallbackPools": {"0x9"}}, gohttp.StatusBadRequest},
		{"unknown coin", url.Values{"from": {coinUSDC}, "to": {"0xfff::no::NO"}, "amount": {"1"}}, gohttp.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, env := do(t, e, gohttp.MethodGet, "/api/v1/quote", tc.query)
			assert.Equal(t, tc.code, code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestPoolEndpoints(t *testing.T) {
	e := newTestEngine(t, 100)

	code, env := do(t, e, gohttp.MethodGet, "/api/v1/pools", url.Values{"limit": {"1"}})
	require.Equal(t, gohttp.StatusOK, code)
	var list PoolListResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Pools, 1)
	assert.Equal(t, float64(100), list.Pools[0].TVLInUSD)

	code, _ = do(t, e, gohttp.MethodGet, "/api/v1/pools", url.Values{"limit": {"-1"}})
	assert.Equal(t, gohttp.StatusBadRequest, code)

	code, env = do(t, e, gohttp.MethodGet, "/api/v1/pools/0x1", nil)
	require.Equal(t, gohttp.StatusOK, code, env.Error)
	var detail PoolDetailResponse
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "18446744073709551616", detail.State.CurrentSqrtPrice)
	assert.Equal(t, int32(60), detail.State.TickSpacing)
	assert.NotEmpty(t, detail.State.Price)

	code, _ = do(t, e, gohttp.MethodGet, "/api/v1/pools/0x77", nil)
	assert.Equal(t, gohttp.StatusNotFound, code)

	code, _ = do(t, e, gohttp.MethodGet, "/api/v1/pools/not-an-address", nil)
	assert.Equal(t, gohttp.StatusBadRequest, code)
}

func TestPoolQuoteEndpoint(t *testing.T) {
	e := newTestEngine(t, 100)

	code, env := do(t, e, gohttp.MethodGet, "/api/v1/pools/0x1/quote", url.Values{"amount": {"1000000"}, "a2b": {"true"}})
	require.Equal(t, gohttp.StatusOK, code, env.Error)
	var q PoolQuoteResponse
	require.NoError(t, json.Unmarshal(env.Data, &q))
	assert.True(t, q.A2B)
	assert.True(t, q.ByAmountIn)
	assert.Equal(t, "1000000", q.AmountIn)
	assert.False(t, q.IsExceed)
	assert.Equal(t, "none", q.PriceImpactSeverity)

	code, _ = do(t, e, gohttp.MethodGet, "/api/v1/pools/0x1/quote", url.Values{"amount": {"abc"}})
	assert.Equal(t, gohttp.StatusBadRequest, code)
}

func TestPositionEndpointsDisabled(t *testing.T) {
	e := newTestEngine(t, 100)

	code, _ := do(t, e, gohttp.MethodGet, "/api/v1/pools/0x1/positions/fees", url.Values{"ids": {"0xa,0xb"}})
	assert.Equal(t, gohttp.StatusNotImplemented, code)

	code, _ = do(t, e, gohttp.MethodGet, "/api/v1/pools/0x1/positions/rewards", nil)
	assert.Equal(t, gohttp.StatusBadRequest, code)
}

func TestMathTick(t *testing.T) {
	e := newTestEngine(t, 100)

	code, env := do(t, e, gohttp.MethodGet, "/api/v1/math/tick", url.Values{"tick": {"0"}})
	require.Equal(t, gohttp.StatusOK, code, env.Error)
	var r TickResponse
	require.NoError(t, json.Unmarshal(env.Data, &r))
	assert.Equal(t, "18446744073709551616", r.SqrtPrice)
	assert.Equal(t, "1", r.Price)
	assert.Nil(t, r.Initializable)

	code, env = do(t, e, gohttp.MethodGet, "/api/v1/math/tick", url.Values{"sqrtPrice": {"18446744073709551616"}, "spacing": {"60"}})
	require.Equal(t, gohttp.StatusOK, code, env.Error)
	r = TickResponse{}
	require.NoError(t, json.Unmarshal(env.Data, &r))
	assert.Equal(t, int32(0), r.Tick)
	require.NotNil(t, r.Prev)
	require.NotNil(t, r.Next)
	assert.Equal(t, int32(-60), *r.Prev)
	assert.Equal(t, int32(60), *r.Next)
	assert.Equal(t, int32(0), *r.Initializable)

	code, _ = do(t, e, gohttp.MethodGet, "/api/v1/math/tick", url.Values{"tick": {"0"}, "sqrtPrice": {"1"}})
	assert.Equal(t, gohttp.StatusBadRequest, code)

	code, _ = do(t, e, gohttp.MethodGet, "/api/v1/math/tick", url.Values{"tick": {"500000"}})
	assert.Equal(t, gohttp.StatusBadRequest, code)
}

func TestMathBin(t *testing.T) {
	e := newTestEngine(t, 100)

	code, env := do(t, e, gohttp.MethodGet, "/api/v1/math/bin", url.Values{"binId": {"2"}, "binStep": {"25"}})
	require.Equal(t, gohttp.StatusOK, code, env.Error)
	var r BinResponse
	require.NoError(t, json.Unmarshal(env.Data, &r))
	assert.Equal(t, int32(2), r.BinID)
	assert.Equal(t, "1.00500625", r.Price)

	code, env = do(t, e, gohttp.MethodGet, "/api/v1/math/bin", url.Values{"price": {"1.003"}, "binStep": {"25"}, "roundUp": {"true"}})
	require.Equal(t, gohttp.StatusOK, code, env.Error)
	r = BinResponse{}
	require.NoError(t, json.Unmarshal(env.Data, &r))
	assert.Equal(t, int32(2), r.BinID)

	code, _ = do(t, e, gohttp.MethodGet, "/api/v1/math/bin", url.Values{"price": {"0"}, "binStep": {"25"}})
	assert.Equal(t, gohttp.StatusBadRequest, code)

	code, _ = do(t, e, gohttp.MethodGet, "/api/v1/math/bin", url.Values{"binId": {"1"}})
	assert.Equal(t, gohttp.StatusBadRequest, code)
}

func TestMathLiquidity(t *testing.T) {
	e := newTestEngine(t, 100)

	code, env := do(t, e, gohttp.MethodGet, "/api/v1/math/liquidity", url.Values{
		"lower": {"-120"}, "upper": {"120"}, "amount": {"1000000"}, "isA": {"true"}, "tick": {"0"}, "slippage": {"0.01"},
	})
	require.Equal(t, gohttp.StatusOK, code, env.Error)
	var r LiquidityResponse
	require.NoError(t, json.Unmarshal(env.Data, &r))
	assert.True(t, r.FixAmountA)
	liq, ok := new(big.Int).SetString(r.Liquidity, 10)
	require.True(t, ok)
	assert.Positive(t, liq.Sign())
	maxA, _ := new(big.Int).SetString(r.TokenMaxA, 10)
	amtA, _ := new(big.Int).SetString(r.AmountA, 10)
	assert.GreaterOrEqual(t, maxA.Cmp(amtA), 0)

	code, _ = do(t, e, gohttp.MethodGet, "/api/v1/math/liquidity", url.Values{
		"lower": {"-120"}, "upper": {"120"}, "amount": {"1000000"}, "tick": {"0"}, "slippage": {"1"},
	})
	assert.Equal(t, gohttp.StatusBadRequest, code)

	code, _ = do(t, e, gohttp.MethodGet, "/api/v1/math/liquidity", url.Values{"lower": {"-120"}, "upper": {"120"}, "amount": {"1"}})
	assert.Equal(t, gohttp.StatusBadRequest, code)
}

func TestRegistryEndpoints(t *testing.T) {
	e := newTestEngine(t, 100)

	code, env := do(t, e, gohttp.MethodGet, "/api/v1/registry/stats", nil)
	require.Equal(t, gohttp.StatusOK, code)
	var s RegistryStatsResponse
	require.NoError(t, json.Unmarshal(env.Data, &s))
	assert.Equal(t, 2, s.Pools)
	assert.Equal(t, 2, s.Coins)

	// no registry feed wired
	code, _ = do(t, e, gohttp.MethodPost, "/api/v1/admin/registry/reload", nil)
	assert.Equal(t, gohttp.StatusInternalServerError, code)
}

func TestRateLimit(t *testing.T) {
	e := newTestEngine(t, 1)

	code, _ := do(t, e, gohttp.MethodGet, "/api/v1/registry/stats", nil)
	assert.Equal(t, gohttp.StatusOK, code)
	code, _ = do(t, e, gohttp.MethodGet, "/api/v1/registry/stats", nil)
	assert.Equal(t, gohttp.StatusTooManyRequests, code)

	// health is outside the limited group
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(gohttp.MethodGet, "/health", nil))
	assert.Equal(t, gohttp.StatusOK, w.Code)
}
