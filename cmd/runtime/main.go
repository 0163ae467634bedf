package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/clmm-route-engine/internal/adapters/persistence"
	"github.com/hxuan190/clmm-route-engine/internal/adapters/postgres"
	"github.com/hxuan190/clmm-route-engine/internal/adapters/sui"
	"github.com/hxuan190/clmm-route-engine/internal/aggregator"
	"github.com/hxuan190/clmm-route-engine/internal/common"
	"github.com/hxuan190/clmm-route-engine/internal/config"
	"github.com/hxuan190/clmm-route-engine/internal/http"
	"github.com/hxuan190/clmm-route-engine/internal/services"
	"github.com/hxuan190/clmm-route-engine/internal/services/market"
	"github.com/hxuan190/clmm-route-engine/internal/services/registry"
	"github.com/hxuan190/clmm-route-engine/internal/services/router"
)

const (
	journalBuffer    = 4096
	journalBatchSize = 256
)

func main() {
	// a missing .env is fine, the environment may already be set
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	var (
		general  config.GeneralConfig
		rpcConf  config.RPCConfig
		protocol config.ProtocolConfig
		routing  config.RouterConfig
		storage  config.StorageConfig
	)
	if err := config.LoadAll(&general, &rpcConf, &protocol, &routing, &storage); err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	common.InitLogger(general.LogLevel, general.Env)
	profile := common.TuneRuntime()
	log.Info().
		Int("maxprocs", profile.MaxProcs).
		Int("gogc", profile.GOGC).
		Str("env", general.Env).
		Msg("runtime configured")

	if err := run(general, rpcConf, protocol, routing, storage); err != nil {
		log.Fatal().Err(err).Msg("engine stopped with error")
	}
	log.Info().Msg("Shutdown complete")
}

func run(general config.GeneralConfig, rpcConf config.RPCConfig, protocol config.ProtocolConfig, routing config.RouterConfig, storage config.StorageConfig) error {
	ctx := context.Background()

	dialCtx, cancel := context.WithTimeout(ctx, rpcConf.DialTimeout)
	client, err := sui.Dial(dialCtx, rpcConf.RPCUrl, rpcConf.SimulateSender)
	cancel()
	if err != nil {
		return err
	}
	defer client.Close()

	chain := sui.Protocol{
		ClmmPackage:      protocol.ClmmPackage,
		IntegratePackage: protocol.IntegratePackage,
		GlobalConfigID:   protocol.GlobalConfigID,
		ClockID:          protocol.ClockObjectID,
	}

	graph := router.NewGraph()
	var routerOpts []router.Option
	var quoteCache *router.QuoteCache
	if routing.QuoteCacheTTL > 0 {
		quoteCache = router.NewQuoteCache(routing.QuoteCacheTTL)
		routerOpts = append(routerOpts, router.WithQuoteCache(quoteCache))
	}
	routerOpts = append(routerOpts, router.WithMaxCandidates(routing.MaxCandidates))
	rt := router.NewRouter(graph, sui.NewSwapSimulator(client, chain), routerOpts...)

	pools := market.NewPoolProvider(sui.NewPoolFetcher(client, chain), routing.SnapshotTTL)

	var agg *aggregator.Service
	regOpts := []registry.Option{
		registry.OnReload(func() {
			if agg != nil {
				agg.OnRegistryReload()
			}
		}),
	}

	if storage.PersistenceEnabled {
		store, err := persistence.NewStorage(storage.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		regOpts = append(regOpts, registry.WithSnapshotStore(store))
	}

	var lifecycle []services.Lifecycle
	var journal aggregator.QuoteRecorder
	if storage.PostgresDSN != "" {
		pg, err := postgres.NewStore(ctx, storage.PostgresDSN)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		j := postgres.NewJournal(pg, journalBuffer, journalBatchSize, common.DefaultJournalFlushInterval)
		lifecycle = append(lifecycle, j)
		journal = j
		regOpts = append(regOpts, registry.WithPoolSink(pg))
	}

	feed := registry.NewFeed(routing.RegistryURL, routing.RegistryTimeout, routing.RegistryRetries)
	reg := registry.NewService(graph, feed, routing.ReloadInterval, regOpts...)

	agg, err = aggregator.NewService(aggregator.Deps{
		Graph:        graph,
		Router:       rt,
		QuoteCache:   quoteCache,
		Pools:        pools,
		Registry:     reg,
		Positions:    sui.NewPositionFetcher(client, chain),
		Journal:      journal,
		QuoteTimeout: routing.QuoteTimeout,
	})
	if err != nil {
		return err
	}

	httpSvc, err := http.NewHTTPService(&general, agg)
	if err != nil {
		return err
	}

	lifecycle = append(lifecycle, agg, httpSvc)
	return services.NewRunner(lifecycle...).Run(ctx)
}
