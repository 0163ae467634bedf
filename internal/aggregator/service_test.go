package aggregator

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clmm-route-engine/internal/clmm/tickmath"
	"github.com/hxuan190/clmm-route-engine/internal/domain"
	"github.com/hxuan190/clmm-route-engine/internal/services/market"
	"github.com/hxuan190/clmm-route-engine/internal/services/router"
)

const (
	coinSUI  = "0x2::sui::SUI"
	coinUSDC = "0xdba34672e30cb065b1f93e3ab55318768fd6fef66c15942c9f7cb846e2f900e7::usdc::USDC"
	coinX    = "0xaaa::x::X"
)

type fixedOracle struct {
	out *big.Int
}

func (o *fixedOracle) SimulateRoutes(_ context.Context, candidates []domain.RouteCandidate, amount *big.Int, byAmountIn bool) ([]domain.RouteSimulation, error) {
	sims := make([]domain.RouteSimulation, len(candidates))
	for i := range candidates {
		sims[i] = domain.RouteSimulation{AmountIn: new(big.Int).Set(amount), AmountOut: new(big.Int).Set(o.out)}
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
	}, nil
}

func (stubSource) FetchTicks(context.Context, *domain.PoolSnapshot) ([]domain.TickData, error) {
	return []domain.TickData{
		{Index: -120, LiquidityNet: big.NewInt(1_000_000_000_000)},
		{Index: 120, LiquidityNet: big.NewInt(-1_000_000_000_000)},
	}, nil
}

type memJournal struct {
	mu     sync.Mutex
	quotes []*domain.RouteQuote
}

func (j *memJournal) Record(q *domain.RouteQuote) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.quotes = append(j.quotes, q)
}

type stubPositions struct {
	ids []string
}

func (s *stubPositions) FetchPositionFees(_ context.Context, _ *domain.PoolSnapshot, ids []string) ([]domain.FeeAmounts, error) {
	s.ids = ids
	out := make([]domain.FeeAmounts, len(ids))
	for i, id := range ids {
		out[i] = domain.FeeAmounts{PositionID: id, FeeOwedA: big.NewInt(1), FeeOwedB: big.NewInt(2)}
	}
	return out, nil
}

func (s *stubPositions) FetchPositionRewards(_ context.Context, _ *domain.PoolSnapshot, ids []string) ([]domain.RewardAmounts, error) {
	s.ids = ids
	out := make([]domain.RewardAmounts, len(ids))
	for i, id := range ids {
		out[i] = domain.RewardAmounts{PositionID: id, Amounts: []*big.Int{big.NewInt(7)}}
	}
	return out, nil
}

func testPools() []domain.PoolInfo {
	return []domain.PoolInfo{
		{Address: "0x1", CoinA: domain.Coin{Type: coinUSDC, Decimals: 6}, CoinB: domain.Coin{Type: coinSUI, Decimals: 9}, FeeRate: 2500, TVLInUSD: 100},
		{Address: "0x2", CoinA: domain.Coin{Type: coinX, Decimals: 6}, CoinB: domain.Coin{Type: coinSUI, Decimals: 9}, FeeRate: 500, TVLInUSD: 300},
		{Address: "0x3", CoinA: domain.Coin{Type: coinX, Decimals: 6}, CoinB: domain.Coin{Type: coinUSDC, Decimals: 6}, FeeRate: 500, TVLInUSD: 200},
	}
}

func newTestService(t *testing.T, positions PositionSource, journal QuoteRecorder) *Service {
	t.Helper()
	graph := router.NewGraph()
	graph.Load(domain.RegistrySnapshot{Pools: testPools(), FetchedAt: time.Now()})
	cache := router.NewQuoteCache(time.Minute)
	t.Cleanup(cache.Stop)

	svc, err := NewService(Deps{
		Graph:      graph,
		Router:     router.NewRouter(graph, &fixedOracle{out: big.NewInt(990)}, router.WithQuoteCache(cache)),
		QuoteCache: cache,
		Pools:      market.NewPoolProvider(stubSource{}, time.Minute),
		Positions:  positions,
		Journal:    journal,
	})
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresCore(t *testing.T) {
	_, err := NewService(Deps{})
	assert.Error(t, err)
}

func TestQuoteRecordsJournal(t *testing.T) {
	journal := &memJournal{}
	svc := newTestService(t, nil, journal)

	q, err := svc.Quote(context.Background(), domain.PriceRequest{
		From: coinUSDC, To: coinSUI, Amount: big.NewInt(1000), ByAmountIn: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "990", q.AmountOut.String())
	require.Len(t, journal.quotes, 1)
	assert.Same(t, q, journal.quotes[0])

	_, err = svc.Quote(context.Background(), domain.PriceRequest{From: coinUSDC, To: "0xfff::no::NO", Amount: big.NewInt(1), ByAmountIn: true})
	assert.ErrorIs(t, err, ErrCoinNotFound)
	assert.Len(t, journal.quotes, 1, "failed quotes are not journaled")
}

func TestListPools(t *testing.T) {
	svc := newTestService(t, nil, nil)

	pools, total, err := svc.ListPools(PoolFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, pools, 3)
	assert.Equal(t, float64(300), pools[0].TVLInUSD)
	assert.Equal(t, float64(100), pools[2].TVLInUSD)

	pools, total, err = svc.ListPools(PoolFilter{Coin: coinUSDC, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, pools, 1)
	assert.Equal(t, float64(200), pools[0].TVLInUSD)

	pools, total, err = svc.ListPools(PoolFilter{Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, pools)

	_, _, err = svc.ListPools(PoolFilter{Coin: "usdc"})
	assert.ErrorIs(t, err, domain.ErrInvalidCoinType)
}

func TestGetPool(t *testing.T) {
	svc := newTestService(t, nil, nil)

	detail, err := svc.GetPool(context.Background(), "0x1")
	require.NoError(t, err)
	assert.Equal(t, uint64(2500), detail.Info.FeeRate)
	assert.Equal(t, int32(60), detail.State.TickSpacing)

	_, err = svc.GetPool(context.Background(), "0x99")
	assert.ErrorIs(t, err, ErrPoolNotRouted)

	_, err = svc.GetPool(context.Background(), "pool")
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)
}

func TestQuotePool(t *testing.T) {
	svc := newTestService(t, nil, nil)
	q, err := svc.QuotePool(context.Background(), market.QuoteRequest{
		Pool: "0x1", Amount: big.NewInt(1_000_000), A2B: true, ByAmountIn: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "1000000", q.AmountIn.String())
	assert.Positive(t, q.AmountOut.Sign())
}

func TestPositions(t *testing.T) {
	svc := newTestService(t, nil, nil)
	_, err := svc.PositionFees(context.Background(), "0x1", []string{"0xa"})
	assert.ErrorIs(t, err, ErrPositionsDisabled)

	positions := &stubPositions{}
	svc = newTestService(t, positions, nil)

	fees, err := svc.PositionFees(context.Background(), "0x1", []string{" 0xa", "0xb"})
	require.NoError(t, err)
	require.Len(t, fees, 2)
	assert.Equal(t, "0x"+strings.Repeat("0", 63)+"a", positions.ids[0])

	rewards, err := svc.PositionRewards(context.Background(), "0x1", []string{"0xc"})
	require.NoError(t, err)
	require.Len(t, rewards, 1)
	assert.Equal(t, "7", rewards[0].Amounts[0].String())

	many := make([]string, maxPositionsPerRequest+1)
	for i := range many {
		many[i] = "0x1"
	}
	_, err = svc.PositionFees(context.Background(), "0x1", many)
	assert.ErrorIs(t, err, ErrTooManyPositions)

	_, err = svc.PositionRewards(context.Background(), "0x1", []string{"nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)
}

func TestReloadWithoutRegistry(t *testing.T) {
	svc := newTestService(t, nil, nil)
	_, err := svc.ReloadRegistry(context.Background())
	assert.Error(t, err)

	coins, pools, loadedAt := svc.GraphStats()
	assert.Equal(t, 3, coins)
	assert.Equal(t, 3, pools)
	assert.False(t, loadedAt.IsZero())
}
