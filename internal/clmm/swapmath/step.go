package swapmath

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/hxuan190/clmm-route-engine/internal/clmm/mathutil"
)

var ErrInvalidFeeRate = errors.New("fee rate must be below the fee denominator")

// StepResult is the outcome of swapping within one price segment.
type StepResult struct {
	AmountIn      *big.Int
	AmountOut     *big.Int
	FeeAmount     *big.Int
	NextSqrtPrice *big.Int
}

// ComputeSwapStep swaps at most amount between current and target at constant liquidity.
// With byAmountIn the fee is taken from amount before the segment is priced.
func ComputeSwapStep(current, target, liquidity, amount *big.Int, feeRate uint64, byAmountIn bool) (StepResult, error) {
	if feeRate >= mathutil.FeeRateDenominator {
		return StepResult{}, fmt.Errorf("%w: %d", ErrInvalidFeeRate, feeRate)
	}
	if liquidity.Sign() == 0 {
		return StepResult{
			AmountIn:      new(big.Int),
			AmountOut:     new(big.Int),
			FeeAmount:     new(big.Int),
			NextSqrtPrice: new(big.Int).Set(target),
		}, nil
	}

	a2b := current.Cmp(target) >= 0
	fee := new(big.Int).SetUint64(feeRate)
	feeComplement := new(big.Int).SetUint64(mathutil.FeeRateDenominator - feeRate)

	var res StepResult
	if byAmountIn {
		amountRemain, err := mathutil.MulDivFloor(amount, feeComplement, mathutil.FeeRateDenom, 64)
		if err != nil {
			return StepResult{}, fmt.Errorf("amount after fee: %w", err)
		}
		maxAmountIn := GetDeltaUpFromInput(current, target, liquidity, a2b)
		if maxAmountIn.Cmp(amountRemain) > 0 {
			res.AmountIn = amountRemain
			res.FeeAmount = new(big.Int).Sub(amount, amountRemain)
			res.NextSqrtPrice, err = GetNextSqrtPriceFromInput(current, liquidity, amountRemain, a2b)
			if err != nil {
				return StepResult{}, err
			}
		} else {
			res.AmountIn = maxAmountIn
			res.FeeAmount, err = mathutil.MulDivCeil(maxAmountIn, fee, feeComplement, 64)
			if err != nil {
				return StepResult{}, fmt.Errorf("segment fee: %w", err)
			}
			res.NextSqrtPrice = new(big.Int).Set(target)
		}
		res.AmountOut = GetDeltaDownFromOutput(current, res.NextSqrtPrice, liquidity, a2b)
		return res, checkStepAmounts(res)
	}

	var err error
	maxAmountOut := GetDeltaDownFromOutput(current, target, liquidity, a2b)
	if maxAmountOut.Cmp(amount) > 0 {
		res.AmountOut = new(big.Int).Set(amount)
		res.NextSqrtPrice, err = GetNextSqrtPriceFromOutput(current, liquidity, amount, a2b)
		if err != nil {
			return StepResult{}, err
		}
	} else {
		res.AmountOut = maxAmountOut
		res.NextSqrtPrice = new(big.Int).Set(target)
	}
	res.AmountIn = GetDeltaUpFromInput(current, res.NextSqrtPrice, liquidity, a2b)
	res.FeeAmount, err = mathutil.MulDivCeil(res.AmountIn, fee, feeComplement, 64)
	if err != nil {
		return StepResult{}, fmt.Errorf("segment fee: %w", err)
	}
	return res, checkStepAmounts(res)
}

// checkStepAmounts narrows the step amounts to u64 as the contract does.
func checkStepAmounts(res StepResult) error {
	if err := mathutil.CheckBits(res.AmountIn, 64); err != nil {
		return fmt.Errorf("step amount in %s: %w", res.AmountIn, err)
	}
	if err := mathutil.CheckBits(res.AmountOut, 64); err != nil {
		return fmt.Errorf("step amount out %s: %w", res.AmountOut, err)
	}
	return nil
}
