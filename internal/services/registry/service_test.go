package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clmm-route-engine/internal/domain"
	"github.com/hxuan190/clmm-route-engine/internal/services/router"
)

type fakeFetcher struct {
	calls atomic.Int32
	snap  domain.RegistrySnapshot
	err   error
	delay time.Duration
}

func (f *fakeFetcher) Fetch(context.Context) (domain.RegistrySnapshot, error) {
	f.calls.Add(1)
	time.Sleep(f.delay)
	return f.snap, f.err
}

type memStore struct {
	mu    sync.Mutex
	saved *domain.RegistrySnapshot
}

func (m *memStore) SaveRegistry(snap domain.RegistrySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = &snap
	return nil
}

func (m *memStore) LoadRegistry() (domain.RegistrySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return domain.RegistrySnapshot{}, errors.New("empty")
	}
	return *m.saved, nil
}

type memSink struct {
	pools []domain.PoolInfo
}

func (s *memSink) UpsertPools(_ context.Context, pools []domain.PoolInfo) error {
	s.pools = pools
	return nil
}

func registrySnapshot() domain.RegistrySnapshot {
	return domain.RegistrySnapshot{
		FetchedAt: time.Unix(1_700_000_000, 0),
		Pools: []domain.PoolInfo{
			{Address: "0x51", CoinA: domain.Coin{Type: "0x1::usdc::USDC"}, CoinB: domain.Coin{Type: "0x2::sui::SUI"}, FeeRate: 2500, TVLInUSD: 10},
			{Address: "0x52", CoinA: domain.Coin{Type: "0x3::ferra::FERRA"}, CoinB: domain.Coin{Type: "0x1::usdc::USDC"}, FeeRate: 3000, TVLInUSD: 5},
			{Address: "0x53", CoinA: domain.Coin{Type: "0x3::ferra::FERRA"}, CoinB: domain.Coin{Type: "0x2::sui::SUI"}, FeeRate: 3000, IsClosed: true},
		},
	}
}

func TestReloadLoadsGraphAndPersists(t *testing.T) {
	g := router.NewGraph()
	store := &memStore{}
	sink := &memSink{}
	purged := 0
	svc := NewService(g, &fakeFetcher{snap: registrySnapshot()}, 0,
		WithSnapshotStore(store), WithPoolSink(sink), OnReload(func() { purged++ }))

	stats, err := svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Accepted)
	assert.Equal(t, 1, stats.Closed)
	assert.Equal(t, 1, purged)

	require.NotNil(t, store.saved)
	assert.Len(t, store.saved.Pools, 2, "only accepted pools are persisted")
	assert.Len(t, sink.pools, 2)

	_, _, loadedAt := g.Stats()
	assert.Equal(t, time.Unix(1_700_000_000, 0), loadedAt)
}

func TestReloadCoalesces(t *testing.T) {
	f := &fakeFetcher{snap: registrySnapshot(), delay: 50 * time.Millisecond}
	svc := NewService(router.NewGraph(), f, 0)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Reload(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestStartWarmStart(t *testing.T) {
	store := &memStore{}
	require.NoError(t, store.SaveRegistry(registrySnapshot()))

	g := router.NewGraph()
	svc := NewService(g, &fakeFetcher{err: errors.New("feed down")}, 0, WithSnapshotStore(store))
	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop()

	_, pools, _ := g.Stats()
	assert.Equal(t, 2, pools)
}

func TestStartFailsWithoutAnyGraph(t *testing.T) {
	svc := NewService(router.NewGraph(), &fakeFetcher{err: errors.New("feed down")}, 0)
	require.Error(t, svc.Start(context.Background()))
}

func TestStartSchedulesReloads(t *testing.T) {
	f := &fakeFetcher{snap: registrySnapshot()}
	svc := NewService(router.NewGraph(), f, 10*time.Millisecond)
	require.NoError(t, svc.Start(context.Background()))

	assert.Eventually(t, func() bool { return f.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, svc.Stop())
}
