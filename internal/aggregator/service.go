// Package aggregator ties the route graph, the pool provider and the chain
// adapters together behind the API.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hxuan190/clmm-route-engine/internal/common"
	"github.com/hxuan190/clmm-route-engine/internal/domain"
	"github.com/hxuan190/clmm-route-engine/internal/services"
	"github.com/hxuan190/clmm-route-engine/internal/services/market"
	"github.com/hxuan190/clmm-route-engine/internal/services/registry"
	"github.com/hxuan190/clmm-route-engine/internal/services/router"
)

const AGGREGATOR_SERVICE = "aggregator-service"

var (
	// Error aliases
	ErrNoPathFound          = router.ErrNoPathFound
	ErrCoinNotFound         = router.ErrCoinNotFound
	ErrInconsistentResponse = router.ErrInconsistentResponse
	ErrPoolPaused           = market.ErrPoolPaused

	ErrPoolNotRouted       = errors.New("pool is not in the route graph")
	ErrPositionsDisabled   = errors.New("position queries are not configured")
	ErrTooManyPositions    = errors.New("too many position ids")
	maxPositionsPerRequest = 32
)

// PositionSource reads what positions are owed by simulating on chain.
type PositionSource interface {
	FetchPositionFees(ctx context.Context, pool *domain.PoolSnapshot, positionIDs []string) ([]domain.FeeAmounts, error)
	FetchPositionRewards(ctx context.Context, pool *domain.PoolSnapshot, positionIDs []string) ([]domain.RewardAmounts, error)
}

// QuoteRecorder receives every served route quote.
type QuoteRecorder interface {
	Record(q *domain.RouteQuote)
}

// Deps are the collaborators of the service. Graph, Router and Pools are
// required.
type Deps struct {
	Graph      *router.Graph
	Router     *router.Router
	QuoteCache *router.QuoteCache
	Pools      *market.PoolProvider
	Registry   *registry.Service
	Positions  PositionSource
	Journal    QuoteRecorder

	QuoteTimeout time.Duration
}

type Service struct {
	logger *services.ServiceLogger

	graph      *router.Graph
	router     *router.Router
	quoteCache *router.QuoteCache
	pools      *market.PoolProvider
	registry   *registry.Service
	positions  PositionSource
	journal    QuoteRecorder

	quoteTimeout time.Duration
}

func NewService(d Deps) (*Service, error) {
	if d.Graph == nil || d.Router == nil || d.Pools == nil {
		return nil, errors.New("aggregator: graph, router and pool provider are required")
	}
	svc := &Service{
		graph:        d.Graph,
		router:       d.Router,
		quoteCache:   d.QuoteCache,
		pools:        d.Pools,
		registry:     d.Registry,
		positions:    d.Positions,
		journal:      d.Journal,
		quoteTimeout: d.QuoteTimeout,
	}
	if svc.quoteTimeout <= 0 {
		svc.quoteTimeout = common.DefaultQuoteTimeout
	}
	svc.logger = services.NewServiceLogger(svc)
	return svc, nil
}

func (svc *Service) ID() string {
	return AGGREGATOR_SERVICE
}

// Start loads the registry. The service is usable once it returns.
func (svc *Service) Start(ctx context.Context) error {
	if svc.registry != nil {
		if err := svc.registry.Start(ctx); err != nil {
			return err
		}
	}
	coins, pools, _ := svc.graph.Stats()
	svc.logger.Info().Int("coins", coins).Int("pools", pools).Msg("route graph ready")
	return nil
}

func (svc *Service) Stop() error {
	if svc.registry != nil {
		if err := svc.registry.Stop(); err != nil {
			svc.logger.Error().Err(err).Msg("failed to stop registry")
		}
	}
	if svc.quoteCache != nil {
		svc.quoteCache.Stop()
	}
	return nil
}

// OnRegistryReload drops cached state that a new graph invalidates.
func (svc *Service) OnRegistryReload() {
	if svc.quoteCache != nil {
		svc.quoteCache.Purge()
	}
	svc.pools.Purge()
}

// Quote finds the best route under the configured quote timeout.
func (svc *Service) Quote(ctx context.Context, req domain.PriceRequest) (*domain.RouteQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.quoteTimeout)
	defer cancel()

	quote, err := svc.router.Price(ctx, req)
	if err != nil {
		return nil, err
	}
	if svc.journal != nil {
		svc.journal.Record(quote)
	}
	return quote, nil
}

// PoolFilter narrows ListPools.
type PoolFilter struct {
	Coin   string
	Limit  int
	Offset int
}

// ListPools returns routed pools ordered by TVL descending, then address.
func (svc *Service) ListPools(f PoolFilter) ([]domain.PoolInfo, int, error) {
	pools := svc.graph.Pools()
	if f.Coin != "" {
		coin, err := domain.NormalizeCoinType(f.Coin)
		if err != nil {
			return nil, 0, err
		}
		filtered := pools[:0]
		for _, p := range pools {
			if p.CoinA.Type == coin || p.CoinB.Type == coin {
				filtered = append(filtered, p)
			}
		}
		pools = filtered
	}
	sort.SliceStable(pools, func(i, j int) bool {
		if pools[i].TVLInUSD != pools[j].TVLInUSD {
			return pools[i].TVLInUSD > pools[j].TVLInUSD
		}
		return pools[i].Address < pools[j].Address
	})

	total := len(pools)
	if f.Offset >= total {
		return []domain.PoolInfo{}, total, nil
	}
	pools = pools[f.Offset:]
	if f.Limit > 0 && f.Limit < len(pools) {
		pools = pools[:f.Limit]
	}
	return pools, total, nil
}

// PoolDetail is registry metadata plus live on-chain state.
type PoolDetail struct {
	Info  domain.PoolInfo
	State *domain.PoolSnapshot
}

func (svc *Service) GetPool(ctx context.Context, address string) (*PoolDetail, error) {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	info, ok := svc.graph.Pool(addr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotRouted, addr)
	}
	ctx, cancel := context.WithTimeout(ctx, svc.quoteTimeout)
	defer cancel()
	state, err := svc.pools.GetPool(ctx, addr)
	if err != nil {
		return nil, err
	}
	return &PoolDetail{Info: info, State: state}, nil
}

// QuotePool simulates a swap against one pool locally.
func (svc *Service) QuotePool(ctx context.Context, req market.QuoteRequest) (*domain.PoolQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.quoteTimeout)
	defer cancel()
	return svc.pools.Quote(ctx, req)
}

func (svc *Service) positionPool(ctx context.Context, address string, ids []string) (*domain.PoolSnapshot, []string, error) {
	if svc.positions == nil {
		return nil, nil, ErrPositionsDisabled
	}
	if len(ids) > maxPositionsPerRequest {
		return nil, nil, fmt.Errorf("%w: %d > %d", ErrTooManyPositions, len(ids), maxPositionsPerRequest)
	}
	norm := make([]string, len(ids))
	for i, id := range ids {
		n, err := domain.NormalizeAddress(strings.TrimSpace(id))
		if err != nil {
			return nil, nil, err
		}
		norm[i] = n
	}
	pool, err := svc.pools.GetPool(ctx, address)
	if err != nil {
		return nil, nil, err
	}
	return pool, norm, nil
}

func (svc *Service) PositionFees(ctx context.Context, address string, ids []string) ([]domain.FeeAmounts, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.quoteTimeout)
	defer cancel()
	pool, norm, err := svc.positionPool(ctx, address, ids)
	if err != nil {
		return nil, err
	}
	return svc.positions.FetchPositionFees(ctx, pool, norm)
}

func (svc *Service) PositionRewards(ctx context.Context, address string, ids []string) ([]domain.RewardAmounts, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.quoteTimeout)
	defer cancel()
	pool, norm, err := svc.positionPool(ctx, address, ids)
	if err != nil {
		return nil, err
	}
	return svc.positions.FetchPositionRewards(ctx, pool, norm)
}

// ReloadRegistry forces a registry fetch.
func (svc *Service) ReloadRegistry(ctx context.Context) (router.LoadStats, error) {
	if svc.registry == nil {
		return router.LoadStats{}, errors.New("registry is not configured")
	}
	return svc.registry.Reload(ctx)
}

// GraphStats reports the size and age of the route graph.
func (svc *Service) GraphStats() (coins, pools int, loadedAt time.Time) {
	return svc.graph.Stats()
}
