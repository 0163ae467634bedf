// Package rewards accrues position fees and rewards off-chain from growth
// accumulators. Every function returns fresh values; inputs are never mutated.
package rewards

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/hxuan190/clmm-route-engine/internal/clmm/mathutil"
	"github.com/hxuan190/clmm-route-engine/internal/domain"
)

var (
	ErrPositionPoolMismatch = errors.New("position does not belong to pool")
	ErrTickMismatch         = errors.New("tick data does not match position bounds")
)

// TickGrowth is one growth-outside checkpoint of a boundary tick.
type TickGrowth struct {
	Index   int32
	Outside *big.Int
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return mathutil.Zero
	}
	return v
}

// GrowthInside is the growth accumulated between lower and upper. All
// subtractions wrap modulo 2^128.
func GrowthInside(currentTick int32, lower, upper TickGrowth, global *big.Int) *big.Int {
	global = orZero(global)
	below := orZero(lower.Outside)
	if currentTick < lower.Index {
		below = mathutil.WrappingSubU128(global, below)
	}
	above := orZero(upper.Outside)
	if currentTick >= upper.Index {
		above = mathutil.WrappingSubU128(global, above)
	}
	return mathutil.WrappingSubU128(mathutil.WrappingSubU128(global, below), above)
}

// accrue is stored + (liquidity * wrappingSub(now, last)) >> 64.
func accrue(stored, liquidity, now, last *big.Int) (*big.Int, error) {
	delta := mathutil.WrappingSubU128(orZero(now), orZero(last))
	return accrueDelta(stored, liquidity, delta)
}

// accrueDelta fails like the contract: the product shifted down must fit u128
// and the owed amount u64.
func accrueDelta(stored, liquidity, delta *big.Int) (*big.Int, error) {
	out, err := mathutil.MulShiftRight(orZero(liquidity), delta, 64, 128)
	if err != nil {
		return nil, err
	}
	out.Add(out, orZero(stored))
	if err := mathutil.CheckBits(out, 64); err != nil {
		return nil, fmt.Errorf("owed amount %s: %w", out, err)
	}
	return out, nil
}

func boundaryTick(index int32, t *domain.TickData) (*domain.TickData, error) {
	if t == nil {
		// uninitialized tick: all checkpoints zero
		return &domain.TickData{Index: index}, nil
	}
	if t.Index != index {
		return nil, ErrTickMismatch
	}
	return t, nil
}

func checkPosition(pool *domain.PoolSnapshot, pos *domain.Position) error {
	if pos.Pool != "" && pool.Address != "" && pos.Pool != pool.Address {
		return ErrPositionPoolMismatch
	}
	return nil
}
