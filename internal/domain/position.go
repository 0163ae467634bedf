package domain

import "math/big"

type PositionReward struct {
	AmountOwed   *big.Int `json:"amountOwed"`
	GrowthInside *big.Int `json:"growthInside"`
}

// Position is a liquidity position with its fee and reward checkpoints.
type Position struct {
	ID        string `json:"id"`
	Owner     string `json:"owner,omitempty"`
	Pool      string `json:"pool"`
	TickLower int32  `json:"tickLower"`
	TickUpper int32  `json:"tickUpper"`

	Liquidity *big.Int `json:"liquidity"`

	FeeOwedA         *big.Int `json:"feeOwedA"`
	FeeOwedB         *big.Int `json:"feeOwedB"`
	FeeGrowthInsideA *big.Int `json:"feeGrowthInsideA"`
	FeeGrowthInsideB *big.Int `json:"feeGrowthInsideB"`

	Rewards []PositionReward `json:"rewards"`
}

type FeeAmounts struct {
	PositionID string   `json:"positionId"`
	FeeOwedA   *big.Int `json:"feeOwedA"`
	FeeOwedB   *big.Int `json:"feeOwedB"`
}

type RewardAmounts struct {
	PositionID string     `json:"positionId"`
	Amounts    []*big.Int `json:"amounts"`
}
