package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hxuan190/clmm-route-engine/internal/domain"
	"github.com/hxuan190/clmm-route-engine/internal/metrics"
	"github.com/hxuan190/clmm-route-engine/internal/services"
	"github.com/hxuan190/clmm-route-engine/internal/services/router"
)

const ServiceName = "registry.Service"

// Fetcher returns the current pool registry.
type Fetcher interface {
	Fetch(ctx context.Context) (domain.RegistrySnapshot, error)
}

// SnapshotStore persists the last good registry for warm starts.
type SnapshotStore interface {
	SaveRegistry(snap domain.RegistrySnapshot) error
	LoadRegistry() (domain.RegistrySnapshot, error)
}

// PoolSink receives the accepted pool set after every reload.
type PoolSink interface {
	UpsertPools(ctx context.Context, pools []domain.PoolInfo) error
}

// Service keeps the route graph in sync with the registry feed.
type Service struct {
	graph    *router.Graph
	fetcher  Fetcher
	store    SnapshotStore
	sink     PoolSink
	interval time.Duration
	onReload []func()

	group  singleflight.Group
	logger *services.ServiceLogger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Service)

func WithSnapshotStore(s SnapshotStore) Option {
	return func(svc *Service) { svc.store = s }
}

func WithPoolSink(s PoolSink) Option {
	return func(svc *Service) { svc.sink = s }
}

// OnReload registers a hook run after every successful graph load, e.g. to
// purge quote caches.
func OnReload(fn func()) Option {
	return func(svc *Service) { svc.onReload = append(svc.onReload, fn) }
}

func NewService(graph *router.Graph, fetcher Fetcher, interval time.Duration, opts ...Option) *Service {
	svc := &Service{
		graph:    graph,
		fetcher:  fetcher,
		interval: interval,
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.logger = services.NewServiceLogger(svc)
	return svc
}

func (svc *Service) ID() string {
	return ServiceName
}

// Start loads the persisted snapshot if there is one, fetches the feed once and
// then keeps reloading on the configured interval. A failing first fetch is
// not fatal when the warm start produced a graph.
func (svc *Service) Start(ctx context.Context) error {
	warm := svc.warmStart()

	if _, err := svc.Reload(ctx); err != nil {
		if !warm {
			return fmt.Errorf("initial registry load: %w", err)
		}
		svc.logger.Warn().Err(err).Msg("registry fetch failed, serving persisted snapshot")
	}

	if svc.interval <= 0 {
		return nil
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	svc.cancel = cancel
	svc.wg.Add(1)
	go svc.loop(loopCtx)
	return nil
}

func (svc *Service) Stop() error {
	if svc.cancel != nil {
		svc.cancel()
	}
	svc.wg.Wait()
	return nil
}

func (svc *Service) loop(ctx context.Context) {
	defer svc.wg.Done()
	ticker := time.NewTicker(svc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.Reload(ctx); err != nil && !errors.Is(err, context.Canceled) {
				svc.logger.Error().Err(err).Msg("scheduled registry reload failed")
			}
		}
	}
}

func (svc *Service) warmStart() bool {
	if svc.store == nil {
		return false
	}
	snap, err := svc.store.LoadRegistry()
	if err != nil {
		svc.logger.Info().Err(err).Msg("no warm start snapshot")
		metrics.GraphReloads.WithLabelValues("storage", "error").Inc()
		return false
	}
	stats := svc.load(snap, "storage")
	return stats.Accepted > 0
}

// Reload fetches the feed and replaces the graph. Concurrent callers share
// one fetch and get the same result.
func (svc *Service) Reload(ctx context.Context) (router.LoadStats, error) {
	v, err, shared := svc.group.Do("reload", func() (interface{}, error) {
		snap, err := svc.fetcher.Fetch(ctx)
		if err != nil {
			metrics.GraphReloads.WithLabelValues("feed", "error").Inc()
			return router.LoadStats{}, err
		}
		stats := svc.load(snap, "feed")
		svc.persist(ctx, snap)
		return stats, nil
	})
	if shared {
		svc.logger.Debug().Msg("registry reload coalesced")
	}
	if err != nil {
		return router.LoadStats{}, err
	}
	return v.(router.LoadStats), nil
}

func (svc *Service) load(snap domain.RegistrySnapshot, source string) router.LoadStats {
	stats := svc.graph.Load(snap)
	metrics.GraphReloads.WithLabelValues(source, "ok").Inc()
	for _, fn := range svc.onReload {
		fn()
	}
	svc.logger.Info().
		Str("source", source).
		Int("pools", stats.Accepted).
		Int("coins", stats.Coins).
		Int("closed", stats.Closed).
		Int("invalid", stats.Invalid).
		Int("duplicate", stats.Duplicate).
		Msg("route graph loaded")
	return stats
}

// persist stores what the graph accepted, not the raw feed.
func (svc *Service) persist(ctx context.Context, snap domain.RegistrySnapshot) {
	if svc.store == nil && svc.sink == nil {
		return
	}
	accepted := svc.graph.Pools()
	if svc.store != nil {
		if err := svc.store.SaveRegistry(domain.RegistrySnapshot{Pools: accepted, FetchedAt: snap.FetchedAt}); err != nil {
			svc.logger.Error().Err(err).Msg("failed to persist registry snapshot")
		}
	}
	if svc.sink != nil {
		if err := svc.sink.UpsertPools(ctx, accepted); err != nil {
			svc.logger.Error().Err(err).Msg("failed to upsert pool metadata")
		}
	}
}
