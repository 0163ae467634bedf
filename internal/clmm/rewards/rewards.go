package rewards

import (
	"fmt"
	"math/big"

	"github.com/hxuan190/clmm-route-engine/internal/clmm/mathutil"
	"github.com/hxuan190/clmm-route-engine/internal/domain"
)

// RewardDeltaClamp is the protocol's guard for implausible reward growth
// deltas: anything above it accrues as a delta of one.
var RewardDeltaClamp, _ = new(big.Int).SetString("3402823669209384634633745948738404", 10)

// UpdatedRewarderGrowthGlobals returns each rewarder's growth global advanced
// to nowSeconds, wrapped modulo 2^128. The pool is not modified.
func UpdatedRewarderGrowthGlobals(pool *domain.PoolSnapshot, nowSeconds uint64) []*big.Int {
	out := make([]*big.Int, len(pool.Rewarders))
	liquidity := orZero(pool.Liquidity)
	advance := liquidity.Sign() > 0 && nowSeconds > pool.RewarderLastUpdatedTime
	dt := new(big.Int).SetUint64(nowSeconds - min(nowSeconds, pool.RewarderLastUpdatedTime))

	for i, r := range pool.Rewarders {
		growth := new(big.Int).Set(orZero(r.GrowthGlobal))
		if advance {
			delta := new(big.Int).Mul(dt, orZero(r.EmissionsPerSecond))
			delta.Quo(delta, liquidity)
			// wrapping_add on u128
			growth.Add(growth, delta).And(growth, mathutil.U128Max)
		}
		out[i] = growth
	}
	return out
}

func rewardOutside(t *domain.TickData, i int) *big.Int {
	if i < len(t.RewardGrowthsOutside) {
		return t.RewardGrowthsOutside[i]
	}
	return mathutil.Zero
}

// PositionRewards computes the amount owed to pos for every rewarder of the
// pool as of nowSeconds.
func PositionRewards(pool *domain.PoolSnapshot, pos *domain.Position, lowerTick, upperTick *domain.TickData, nowSeconds uint64) ([]*big.Int, error) {
	if err := checkPosition(pool, pos); err != nil {
		return nil, err
	}
	if len(pool.Rewarders) > domain.MaxRewarders {
		return nil, fmt.Errorf("pool %s has %d rewarders", pool.Address, len(pool.Rewarders))
	}
	lower, err := boundaryTick(pos.TickLower, lowerTick)
	if err != nil {
		return nil, fmt.Errorf("lower: %w", err)
	}
	upper, err := boundaryTick(pos.TickUpper, upperTick)
	if err != nil {
		return nil, fmt.Errorf("upper: %w", err)
	}

	globals := UpdatedRewarderGrowthGlobals(pool, nowSeconds)
	owed := make([]*big.Int, len(globals))
	for i, global := range globals {
		inside := GrowthInside(pool.CurrentTickIndex,
			TickGrowth{lower.Index, rewardOutside(lower, i)},
			TickGrowth{upper.Index, rewardOutside(upper, i)},
			global)

		var stored, last *big.Int
		if i < len(pos.Rewards) {
			stored, last = pos.Rewards[i].AmountOwed, pos.Rewards[i].GrowthInside
		}
		delta := mathutil.WrappingSubU128(inside, orZero(last))
		if delta.Cmp(RewardDeltaClamp) > 0 {
			delta = big.NewInt(1)
		}
		if owed[i], err = accrueDelta(stored, pos.Liquidity, delta); err != nil {
			return nil, fmt.Errorf("rewarder %d: %w", i, err)
		}
	}
	return owed, nil
}
