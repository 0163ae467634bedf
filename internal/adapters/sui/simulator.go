package sui

import (
	"context"
	"fmt"
	"math/big"

	"github.com/hxuan190/clmm-route-engine/internal/domain"
	"github.com/hxuan190/clmm-route-engine/internal/services/router"
)

const (
	ClockObjectID = "0x6"

	fetcherModule = "fetcher_script"
	routerModule  = "router"
)

// Protocol holds the on-chain ids the simulations call into.
type Protocol struct {
	ClmmPackage      string
	IntegratePackage string
	GlobalConfigID   string
	// ClockID defaults to ClockObjectID.
	ClockID string
}

func (p Protocol) clock() string {
	if p.ClockID == "" {
		return ClockObjectID
	}
	return p.ClockID
}

// SwapSimulator evaluates route candidates with one dev-inspect call.
// It implements router.SwapOracle.
type SwapSimulator struct {
	client   *Client
	protocol Protocol
}

var _ router.SwapOracle = (*SwapSimulator)(nil)

func NewSwapSimulator(client *Client, protocol Protocol) *SwapSimulator {
	return &SwapSimulator{client: client, protocol: protocol}
}

// hopCoinTypes returns the pool's (coinA, coinB) for a hop.
func hopCoinTypes(h domain.Hop) (string, string) {
	if h.A2B {
		return h.CoinIn, h.CoinOut
	}
	return h.CoinOut, h.CoinIn
}

// SimulateRoutes builds one move call per candidate: fetcher_script's
// calculate_swap_result for single hops and router's
// calculate_router_swap_result for two hops. Results are matched to
// candidates by event order.
func (s *SwapSimulator) SimulateRoutes(ctx context.Context, candidates []domain.RouteCandidate, amount *big.Int, byAmountIn bool) ([]domain.RouteSimulation, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if !amount.IsUint64() {
		return nil, fmt.Errorf("%w: amount does not fit u64", router.ErrInvalidAmount)
	}

	var ids []string
	for _, c := range candidates {
		ids = append(ids, c.Pools()...)
	}
	versions, err := s.client.SharedVersions(ctx, ids)
	if err != nil {
		return nil, err
	}

	tx := NewProgrammableTx()
	for i, c := range candidates {
		if err := s.addSwapCall(tx, c, versions, amount.Uint64(), byAmountIn); err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
	}

	res, err := s.client.DevInspect(ctx, tx)
	if err != nil {
		return nil, err
	}

	var events []domain.SimulationEvent
	for _, e := range res.Events {
		switch domain.EventName(e.Type) {
		case EventCalculatedSwapResult, EventCalculatedRouterSwapResult:
			events = append(events, e)
		}
	}
	if len(events) != len(candidates) {
		return nil, fmt.Errorf("%w: %d swap events for %d candidates", router.ErrInconsistentResponse, len(events), len(candidates))
	}

	out := make([]domain.RouteSimulation, len(candidates))
	for i, c := range candidates {
		name := domain.EventName(events[i].Type)
		switch {
		case c.HopCount() == 1 && name == EventCalculatedSwapResult:
			out[i], err = DecodeSwapResult(events[i])
		case c.HopCount() == 2 && name == EventCalculatedRouterSwapResult:
			out[i], err = DecodeRouterSwapResult(events[i])
		default:
			err = fmt.Errorf("%w: %s for a %d hop candidate", ErrEventDecode, name, c.HopCount())
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SwapSimulator) addSwapCall(tx *ProgrammableTx, c domain.RouteCandidate, versions map[string]uint64, amount uint64, byAmountIn bool) error {
	switch c.HopCount() {
	case 1:
		h := c.Hops[0]
		pool, err := tx.SharedObject(h.PoolAddress, versions[h.PoolAddress], false)
		if err != nil {
			return err
		}
		a, b := hopCoinTypes(h)
		return tx.MoveCall(s.protocol.IntegratePackage, fetcherModule, "calculate_swap_result",
			[]string{a, b},
			pool, tx.PureBool(h.A2B), tx.PureBool(byAmountIn), tx.PureU64(amount))
	case 2:
		first, second := c.Hops[0], c.Hops[1]
		poolAB, err := tx.SharedObject(first.PoolAddress, versions[first.PoolAddress], true)
		if err != nil {
			return err
		}
		poolCD, err := tx.SharedObject(second.PoolAddress, versions[second.PoolAddress], true)
		if err != nil {
			return err
		}
		a, b := hopCoinTypes(first)
		cc, d := hopCoinTypes(second)
		return tx.MoveCall(s.protocol.IntegratePackage, routerModule, "calculate_router_swap_result",
			[]string{a, b, cc, d},
			poolAB, poolCD, tx.PureBool(first.A2B), tx.PureBool(second.A2B), tx.PureBool(byAmountIn), tx.PureU64(amount))
	default:
		return fmt.Errorf("unsupported hop count %d", c.HopCount())
	}
}
