package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hxuan190/clmm-route-engine/internal/adapters/postgres"
	"github.com/hxuan190/clmm-route-engine/internal/adapters/sui"
	"github.com/hxuan190/clmm-route-engine/internal/domain"
	"github.com/hxuan190/clmm-route-engine/internal/services/market"
	"github.com/hxuan190/clmm-route-engine/internal/services/registry"
	"github.com/hxuan190/clmm-route-engine/internal/services/router"
)

// chain is a node connection plus the protocol ids from the config.
type chain struct {
	client   *sui.Client
	protocol sui.Protocol
}

func dialChain(ctx context.Context) (*chain, error) {
	if err := cfg.RequireChain(); err != nil {
		return nil, err
	}
	client, err := sui.Dial(ctx, cfg.RPCURL, cfg.Sender)
	if err != nil {
		return nil, err
	}
	return &chain{
		client: client,
		protocol: sui.Protocol{
			ClmmPackage:      cfg.ClmmPackage,
			IntegratePackage: cfg.IntegratePackage,
			GlobalConfigID:   cfg.GlobalConfigID,
		},
	}, nil
}

func (c *chain) Close() {
	c.client.Close()
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), cfg.Timeout)
}

func newRouteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "route <from> <to> <amount>",
		Short: "Find the best route between two coins using the registry and the on-chain calculator",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.RegistryURL == "" {
				return errors.New("--registry (or CLMM_REGISTRY) is required")
			}
			amount, err := parseBig("amount", args[2])
			if err != nil {
				return err
			}
			exactOut, _ := cmd.Flags().GetBool("exact-out")

			ctx, cancel := commandContext(cmd)
			defer cancel()

			snap, err := registry.NewFeed(cfg.RegistryURL, cfg.Timeout, 2).Fetch(ctx)
			if err != nil {
				return err
			}
			graph := router.NewGraph()
			stats := graph.Load(snap)

			ch, err := dialChain(ctx)
			if err != nil {
				return err
			}
			defer ch.Close()

			rt := router.NewRouter(graph, sui.NewSwapSimulator(ch.client, ch.protocol))
			q, err := rt.Price(ctx, domain.PriceRequest{
				From:       args[0],
				To:         args[1],
				Amount:     amount,
				ByAmountIn: !exactOut,
			})
			if err != nil {
				return err
			}
			return emit(q,
				field{"path", strings.Join(q.Route.Coins(), " -> ")},
				field{"pools", strings.Join(q.Route.Pools(), ",")},
				field{"amount_in", q.AmountIn},
				field{"amount_out", q.AmountOut},
				field{"fee", q.FeeAmount},
				field{"is_exceed", q.IsExceed},
				field{"evaluated", q.Evaluated},
				field{"graph_pools", stats.Accepted},
			)
		},
	}
	cmd.Flags().Bool("exact-out", false, "treat amount as the wanted output")
	return cmd
}

func fetchPool(ctx context.Context, ch *chain, address string) (*domain.PoolSnapshot, error) {
	return sui.NewPoolFetcher(ch.client, ch.protocol).FetchPool(ctx, address)
}

func newPoolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pool <address>",
		Short: "Show the on-chain state of a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			ch, err := dialChain(ctx)
			if err != nil {
				return err
			}
			defer ch.Close()

			p, err := fetchPool(ctx, ch, args[0])
			if err != nil {
				return err
			}
			return emit(p,
				field{"address", p.Address},
				field{"coin_a", p.CoinTypeA},
				field{"coin_b", p.CoinTypeB},
				field{"sqrt_price", p.CurrentSqrtPrice},
				field{"tick", p.CurrentTickIndex},
				field{"liquidity", p.Liquidity},
				field{"fee_rate", p.FeeRate},
				field{"tick_spacing", p.TickSpacing},
				field{"rewarders", len(p.Rewarders)},
				field{"paused", p.IsPaused},
			)
		},
	}
}

func newPoolQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote <pool> <amount>",
		Short: "Simulate a swap against one pool locally from fetched state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseBig("amount", args[1])
			if err != nil {
				return err
			}
			a2b, _ := cmd.Flags().GetBool("a2b")
			exactOut, _ := cmd.Flags().GetBool("exact-out")

			ctx, cancel := commandContext(cmd)
			defer cancel()
			ch, err := dialChain(ctx)
			if err != nil {
				return err
			}
			defer ch.Close()

			provider := market.NewPoolProvider(sui.NewPoolFetcher(ch.client, ch.protocol), time.Minute)
			q, err := provider.Quote(ctx, market.QuoteRequest{
				Pool:       args[0],
				Amount:     amount,
				A2B:        a2b,
				ByAmountIn: !exactOut,
			})
			if err != nil {
				return err
			}
			return emit(q,
				field{"amount_in", q.AmountIn},
				field{"amount_out", q.AmountOut},
				field{"fee", q.FeeAmount},
				field{"next_sqrt_price", q.NextSqrtPrice},
				field{"ticks_crossed", q.CrossTickNum},
				field{"is_exceed", q.IsExceed},
				field{"price_impact_pct", q.PriceImpactPct.StringFixed(4)},
				field{"severity", router.GetPriceImpactSeverity(q.PriceImpactBps)},
			)
		},
	}
	cmd.Flags().Bool("a2b", true, "swap coin A for coin B")
	cmd.Flags().Bool("exact-out", false, "treat amount as the wanted output")
	return cmd
}

func newPositionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Read fees and rewards owed to positions by simulation",
	}
	run := func(rewards bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			ch, err := dialChain(ctx)
			if err != nil {
				return err
			}
			defer ch.Close()

			pool, err := fetchPool(ctx, ch, args[0])
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(args)-1)
			for _, id := range args[1:] {
				n, err := domain.NormalizeAddress(id)
				if err != nil {
					return err
				}
				ids = append(ids, n)
			}

			fetcher := sui.NewPositionFetcher(ch.client, ch.protocol)
			var fields []field
			if rewards {
				out, err := fetcher.FetchPositionRewards(ctx, pool, ids)
				if err != nil {
					return err
				}
				for _, r := range out {
					fields = append(fields, field{r.PositionID, r.Amounts})
				}
				return emit(out, fields...)
			}
			out, err := fetcher.FetchPositionFees(ctx, pool, ids)
			if err != nil {
				return err
			}
			for _, f := range out {
				fields = append(fields, field{f.PositionID, fmt.Sprintf("%s %s", f.FeeOwedA, f.FeeOwedB)})
			}
			return emit(out, fields...)
		}
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "fees <pool> <position>...",
			Short: "Fees owed in coin A and coin B",
			Args:  cobra.MinimumNArgs(2),
			RunE:  run(false),
		},
		&cobra.Command{
			Use:   "rewards <pool> <position>...",
			Short: "Rewards owed per rewarder",
			Args:  cobra.MinimumNArgs(2),
			RunE:  run(true),
		},
	)
	return cmd
}

func newVolumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "volume <from> <to>",
		Short: "Sum journaled quote volume for a pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.PostgresDSN == "" {
				return errors.New("--pg-dsn (or CLMM_PG_DSN) is required")
			}
			since, _ := cmd.Flags().GetDuration("since")
			from, err := domain.NormalizeCoinType(args[0])
			if err != nil {
				return err
			}
			to, err := domain.NormalizeCoinType(args[1])
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()
			store, err := postgres.NewStore(ctx, cfg.PostgresDSN)
			if err != nil {
				return err
			}
			defer store.Close()

			count, in, out, err := store.PairVolume(ctx, from, to, time.Now().Add(-since))
			if err != nil {
				return err
			}
			return emit(map[string]interface{}{
				"quotes":    count,
				"amountIn":  in.String(),
				"amountOut": out.String(),
			},
				field{"quotes", count},
				field{"amount_in", in},
				field{"amount_out", out},
			)
		},
	}
	cmd.Flags().Duration("since", 24*time.Hour, "look-back window")
	return cmd
}
