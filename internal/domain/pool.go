package domain

import (
	"math/big"
	"time"
)

// MaxRewarders is the number of reward streams a pool can carry.
const MaxRewarders = 3

type Coin struct {
	Type     string `json:"type"`
	Decimals int32  `json:"decimals"`
	Symbol   string `json:"symbol,omitempty"`
}

type Rewarder struct {
	CoinType string `json:"coinType"`
	// EmissionsPerSecond is Q64.64.
	EmissionsPerSecond *big.Int `json:"emissionsPerSecond"`
	GrowthGlobal       *big.Int `json:"growthGlobal"`
}

// PoolSnapshot is the on-chain pool state needed to quote and to accrue fees.
type PoolSnapshot struct {
	Address     string `json:"address"`
	CoinTypeA   string `json:"coinTypeA"`
	CoinTypeB   string `json:"coinTypeB"`
	TickSpacing int32  `json:"tickSpacing"`

	CurrentSqrtPrice *big.Int `json:"currentSqrtPrice"`
	CurrentTickIndex int32    `json:"currentTickIndex"`
	Liquidity        *big.Int `json:"liquidity"`
	// FeeRate is per FeeRateDenominator (1e6).
	FeeRate uint64 `json:"feeRate"`

	FeeGrowthGlobalA *big.Int `json:"feeGrowthGlobalA"`
	FeeGrowthGlobalB *big.Int `json:"feeGrowthGlobalB"`

	Rewarders               []Rewarder `json:"rewarders"`
	RewarderLastUpdatedTime uint64     `json:"rewarderLastUpdatedTime"`

	IsPaused    bool      `json:"isPaused"`
	TicksHandle string    `json:"ticksHandle,omitempty"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// TickData is one initialized tick.
type TickData struct {
	Index int32 `json:"index"`
	// SqrtPrice is derived from Index when nil.
	SqrtPrice      *big.Int `json:"sqrtPrice,omitempty"`
	LiquidityNet   *big.Int `json:"liquidityNet"`
	LiquidityGross *big.Int `json:"liquidityGross"`

	FeeGrowthOutsideA    *big.Int   `json:"feeGrowthOutsideA"`
	FeeGrowthOutsideB    *big.Int   `json:"feeGrowthOutsideB"`
	RewardGrowthsOutside []*big.Int `json:"rewardGrowthsOutside"`
}

// PoolInfo is one entry of the pool registry feed.
type PoolInfo struct {
	Address     string  `json:"address"`
	CoinA       Coin    `json:"coinA"`
	CoinB       Coin    `json:"coinB"`
	FeeRate     uint64  `json:"feeRate"`
	TickSpacing int32   `json:"tickSpacing,omitempty"`
	TVLInUSD    float64 `json:"tvlInUsd"`
	IsClosed    bool    `json:"isClosed"`
}

// RegistrySnapshot is the full pool list the route graph is built from.
type RegistrySnapshot struct {
	Pools     []PoolInfo `json:"pools"`
	FetchedAt time.Time  `json:"fetchedAt"`
}
