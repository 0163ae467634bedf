package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clmm-route-engine/internal/domain"
)

func openTemp(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "data", "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLoadRegistryEmpty(t *testing.T) {
	s := openTemp(t)
	_, err := s.LoadRegistry()
	require.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSaveRegistryReplaces(t *testing.T) {
	s := openTemp(t)
	fetched := time.UnixMilli(1_700_000_000_123).UTC()

	first := domain.RegistrySnapshot{
		FetchedAt: fetched,
		Pools: []domain.PoolInfo{
			{Address: "0x1", CoinA: domain.Coin{Type: "0x2::a::A", Decimals: 9, Symbol: "A"}, CoinB: domain.Coin{Type: "0x2::sui::SUI", Decimals: 9}, FeeRate: 2500, TickSpacing: 60, TVLInUSD: 12.5},
			{Address: "0x2", CoinA: domain.Coin{Type: "0x2::b::B", Decimals: 6}, CoinB: domain.Coin{Type: "0x2::sui::SUI", Decimals: 9}, FeeRate: 500},
		},
	}
	require.NoError(t, s.SaveRegistry(first))

	got, err := s.LoadRegistry()
	require.NoError(t, err)
	assert.Equal(t, fetched, got.FetchedAt)
	assert.ElementsMatch(t, first.Pools, got.Pools)

	second := domain.RegistrySnapshot{
		FetchedAt: fetched.Add(time.Minute),
		Pools:     first.Pools[1:],
	}
	require.NoError(t, s.SaveRegistry(second))
	got, err = s.LoadRegistry()
	require.NoError(t, err)
	assert.Equal(t, second.Pools, got.Pools)
	assert.Equal(t, second.FetchedAt, got.FetchedAt)
}
