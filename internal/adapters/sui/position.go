package sui

import (
	"context"
	"fmt"

	"github.com/hxuan190/clmm-route-engine/internal/domain"
)

// PositionFetcher asks the chain what a position is owed, by simulating the
// fetcher script against the live pool.
type PositionFetcher struct {
	client   *Client
	protocol Protocol
}

func NewPositionFetcher(client *Client, protocol Protocol) *PositionFetcher {
	return &PositionFetcher{client: client, protocol: protocol}
}

type positionCall struct {
	tx     *ProgrammableTx
	config Argument
	pool   Argument
}

func (f *PositionFetcher) prepare(ctx context.Context, pool *domain.PoolSnapshot, withClock bool) (*positionCall, Argument, error) {
	ids := []string{f.protocol.GlobalConfigID, pool.Address}
	if withClock {
		ids = append(ids, f.protocol.clock())
	}
	versions, err := f.client.SharedVersions(ctx, ids)
	if err != nil {
		return nil, Argument{}, err
	}

	tx := NewProgrammableTx()
	config, err := tx.SharedObject(f.protocol.GlobalConfigID, versions[f.protocol.GlobalConfigID], false)
	if err != nil {
		return nil, Argument{}, err
	}
	poolArg, err := tx.SharedObject(pool.Address, versions[pool.Address], true)
	if err != nil {
		return nil, Argument{}, err
	}
	var clock Argument
	if withClock {
		if clock, err = tx.SharedObject(f.protocol.clock(), versions[f.protocol.clock()], false); err != nil {
			return nil, Argument{}, err
		}
	}
	return &positionCall{tx: tx, config: config, pool: poolArg}, clock, nil
}

// FetchPositionFees returns the fees owed to each position, in order.
func (f *PositionFetcher) FetchPositionFees(ctx context.Context, pool *domain.PoolSnapshot, positionIDs []string) ([]domain.FeeAmounts, error) {
	if len(positionIDs) == 0 {
		return nil, nil
	}
	call, _, err := f.prepare(ctx, pool, false)
	if err != nil {
		return nil, err
	}
	for _, id := range positionIDs {
		pos, err := call.tx.PureAddress(id)
		if err != nil {
			return nil, err
		}
		err = call.tx.MoveCall(f.protocol.IntegratePackage, fetcherModule, "fetch_position_fees",
			[]string{pool.CoinTypeA, pool.CoinTypeB}, call.config, call.pool, pos)
		if err != nil {
			return nil, err
		}
	}

	res, err := f.client.DevInspect(ctx, call.tx)
	if err != nil {
		return nil, err
	}
	events := res.EventsOfType(EventFetchPositionFees)
	if len(events) != len(positionIDs) {
		return nil, fmt.Errorf("%w: %d fee events for %d positions", ErrEventDecode, len(events), len(positionIDs))
	}
	out := make([]domain.FeeAmounts, len(events))
	for i, e := range events {
		if out[i], err = DecodePositionFees(e); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FetchPositionRewards returns the rewards owed to each position, in order.
func (f *PositionFetcher) FetchPositionRewards(ctx context.Context, pool *domain.PoolSnapshot, positionIDs []string) ([]domain.RewardAmounts, error) {
	if len(positionIDs) == 0 {
		return nil, nil
	}
	call, clock, err := f.prepare(ctx, pool, true)
	if err != nil {
		return nil, err
	}
	for _, id := range positionIDs {
		pos, err := call.tx.PureAddress(id)
		if err != nil {
			return nil, err
		}
		err = call.tx.MoveCall(f.protocol.IntegratePackage, fetcherModule, "fetch_position_rewards",
			[]string{pool.CoinTypeA, pool.CoinTypeB}, call.config, call.pool, pos, clock)
		if err != nil {
			return nil, err
		}
	}

	res, err := f.client.DevInspect(ctx, call.tx)
	if err != nil {
		return nil, err
	}
	events := res.EventsOfType(EventFetchPositionRewards)
	if len(events) != len(positionIDs) {
		return nil, fmt.Errorf("%w: %d reward events for %d positions", ErrEventDecode, len(events), len(positionIDs))
	}
	out := make([]domain.RewardAmounts, len(events))
	for i, e := range events {
		if out[i], err = DecodePositionRewards(e); err != nil {
			return nil, err
		}
	}
	return out, nil
}
