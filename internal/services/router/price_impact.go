package router

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Price impact thresholds in basis points (bps)
const (
	PriceImpactLow      uint16 = 100  // 1% - Low impact
	PriceImpactModerate uint16 = 300  // 3% - Moderate impact
	PriceImpactHigh     uint16 = 500  // 5% - High impact
	PriceImpactExtreme  uint16 = 1000 // 10% - Extreme impact
)

// PriceImpactSeverity represents the severity level of price impact
type PriceImpactSeverity string

const (
	SeverityNone     PriceImpactSeverity = "none"     // < 1%
	SeverityLow      PriceImpactSeverity = "low"      // 1-3%
	SeverityModerate PriceImpactSeverity = "moderate" // 3-5%
	SeverityHigh     PriceImpactSeverity = "high"     // 5-10%
	SeverityExtreme  PriceImpactSeverity = "extreme"  // > 10%
)

var u256BpsDenom = uint256.NewInt(10000)

// GetPriceImpactSeverity returns the severity level based on price impact bps
func GetPriceImpactSeverity(priceImpactBps uint16) PriceImpactSeverity {
	switch {
	case priceImpactBps < PriceImpactLow:
		return SeverityNone
	case priceImpactBps < PriceImpactModerate:
		return SeverityLow
	case priceImpactBps < PriceImpactHigh:
		return SeverityModerate
	case priceImpactBps < PriceImpactExtreme:
		return SeverityHigh
	default:
		return SeverityExtreme
	}
}

// PriceImpactBps is |after^2 - before^2| * 10000 / before^2 for two Q64.64
// sqrt prices, floored and capped at max uint16. Both prices fit in 128 bits,
// so the whole computation stays in 256-bit words.
func PriceImpactBps(before, after *big.Int) uint16 {
	if before == nil || after == nil || before.Sign() <= 0 || after.Sign() < 0 {
		return 0
	}
	var b, a uint256.Int
	if b.SetFromBig(before) || a.SetFromBig(after) {
		return 0
	}

	var bSq, aSq, diff uint256.Int
	bSq.Mul(&b, &b)
	aSq.Mul(&a, &a)
	if aSq.Cmp(&bSq) >= 0 {
		diff.Sub(&aSq, &bSq)
	} else {
		diff.Sub(&bSq, &aSq)
	}

	var impact uint256.Int
	impact.Mul(&diff, u256BpsDenom)
	impact.Div(&impact, &bSq)

	if !impact.IsUint64() || impact.Uint64() > 65535 {
		return 65535
	}
	return uint16(impact.Uint64())
}

// GetPriceImpactWarning returns a user-friendly warning message based on impact
func GetPriceImpactWarning(priceImpactBps uint16) string {
	switch GetPriceImpactSeverity(priceImpactBps) {
	case SeverityLow:
		return "Low price impact"
	case SeverityModerate:
		return "Moderate price impact - consider reducing trade size"
	case SeverityHigh:
		return "High price impact - you may receive significantly less tokens"
	case SeverityExtreme:
		return "EXTREME price impact - this trade will severely impact the market price"
	default:
		return ""
	}
}
