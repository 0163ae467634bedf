package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hxuan190/clmm-route-engine/internal/domain"
	"github.com/hxuan190/clmm-route-engine/internal/metrics"
)

const (
	ServiceName = "market.PoolProvider"

	poolCacheMaxSize = 4096
	tickCacheMaxSize = 1024
)

var ErrPoolPaused = errors.New("pool is paused")

// PoolSource fetches fresh on-chain state. The Sui adapter implements it.
type PoolSource interface {
	FetchPool(ctx context.Context, address string) (*domain.PoolSnapshot, error)
	FetchTicks(ctx context.Context, pool *domain.PoolSnapshot) ([]domain.TickData, error)
}

// PoolProvider serves pool snapshots and tick lists with a short TTL.
// Concurrent misses for the same pool share one fetch.
type PoolProvider struct {
	source PoolSource
	pools  *TTLCache[string, *domain.PoolSnapshot]
	ticks  *TTLCache[string, []domain.TickData]
	group  singleflight.Group
}

func NewPoolProvider(source PoolSource, ttl time.Duration) *PoolProvider {
	return &PoolProvider{
		source: source,
		pools:  NewTTLCache[string, *domain.PoolSnapshot](poolCacheMaxSize, ttl),
		ticks:  NewTTLCache[string, []domain.TickData](tickCacheMaxSize, ttl),
	}
}

func (p *PoolProvider) ID() string {
	return ServiceName
}

// GetPool returns the snapshot of a pool by address.
func (p *PoolProvider) GetPool(ctx context.Context, address string) (*domain.PoolSnapshot, error) {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	if pool, ok := p.pools.Get(addr); ok {
		metrics.SnapshotCacheHits.WithLabelValues("pool").Inc()
		return pool, nil
	}
	metrics.SnapshotCacheMisses.WithLabelValues("pool").Inc()

	v, err, _ := p.group.Do("pool:"+addr, func() (interface{}, error) {
		pool, err := p.source.FetchPool(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("fetch pool %s: %w", addr, err)
		}
		p.pools.Set(addr, pool)
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.PoolSnapshot), nil
}

// GetTicks returns every initialized tick of a pool in ascending index order.
func (p *PoolProvider) GetTicks(ctx context.Context, pool *domain.PoolSnapshot) ([]domain.TickData, error) {
	if ticks, ok := p.ticks.Get(pool.Address); ok {
		metrics.SnapshotCacheHits.WithLabelValues("ticks").Inc()
		return ticks, nil
	}
	metrics.SnapshotCacheMisses.WithLabelValues("ticks").Inc()

	v, err, _ := p.group.Do("ticks:"+pool.Address, func() (interface{}, error) {
		ticks, err := p.source.FetchTicks(ctx, pool)
		if err != nil {
			return nil, fmt.Errorf("fetch ticks %s: %w", pool.Address, err)
		}
		p.ticks.Set(pool.Address, ticks)
		return ticks, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.TickData), nil
}

// Invalidate drops the cached state of one pool.
func (p *PoolProvider) Invalidate(address string) {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return
	}
	p.pools.Delete(addr)
	p.ticks.Delete(addr)
}

// Purge drops every cached snapshot.
func (p *PoolProvider) Purge() {
	p.pools.Clear()
	p.ticks.Clear()
}
