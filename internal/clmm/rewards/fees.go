package rewards

import (
	"fmt"

	"github.com/hxuan190/clmm-route-engine/internal/domain"
)

// PositionFees computes the fees owed to pos at the pool's current state.
// lowerTick and upperTick may be nil when the boundary tick is not initialized.
func PositionFees(pool *domain.PoolSnapshot, pos *domain.Position, lowerTick, upperTick *domain.TickData) (domain.FeeAmounts, error) {
	if err := checkPosition(pool, pos); err != nil {
		return domain.FeeAmounts{}, err
	}
	lower, err := boundaryTick(pos.TickLower, lowerTick)
	if err != nil {
		return domain.FeeAmounts{}, fmt.Errorf("lower: %w", err)
	}
	upper, err := boundaryTick(pos.TickUpper, upperTick)
	if err != nil {
		return domain.FeeAmounts{}, fmt.Errorf("upper: %w", err)
	}

	insideA := GrowthInside(pool.CurrentTickIndex,
		TickGrowth{lower.Index, lower.FeeGrowthOutsideA},
		TickGrowth{upper.Index, upper.FeeGrowthOutsideA},
		pool.FeeGrowthGlobalA)
	insideB := GrowthInside(pool.CurrentTickIndex,
		TickGrowth{lower.Index, lower.FeeGrowthOutsideB},
		TickGrowth{upper.Index, upper.FeeGrowthOutsideB},
		pool.FeeGrowthGlobalB)

	owedA, err := accrue(pos.FeeOwedA, pos.Liquidity, insideA, pos.FeeGrowthInsideA)
	if err != nil {
		return domain.FeeAmounts{}, fmt.Errorf("fee a: %w", err)
	}
	owedB, err := accrue(pos.FeeOwedB, pos.Liquidity, insideB, pos.FeeGrowthInsideB)
	if err != nil {
		return domain.FeeAmounts{}, fmt.Errorf("fee b: %w", err)
	}
	return domain.FeeAmounts{PositionID: pos.ID, FeeOwedA: owedA, FeeOwedB: owedB}, nil
}
