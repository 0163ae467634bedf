// Package tickmath converts between tick indexes and Q64.64 sqrt prices using
// the same bit-decomposition table as the on-chain pool.
package tickmath

import (
	"errors"
	"fmt"
	"math/big"
)

const (
	MinTick int32 = -443636
	MaxTick int32 = 443636
)

var (
	ErrInvalidTick      = errors.New("invalid tick index")
	ErrInvalidTickRange = errors.New("invalid tick range")
	ErrInvalidSqrtPrice = errors.New("sqrt price out of bounds")
	ErrInvalidSpacing   = errors.New("invalid tick spacing")
)

var (
	MinSqrtPriceX64 = mustBig("4295048016")
	MaxSqrtPriceX64 = mustBig("79226673515401279992447579055")
)

// Ratios for positive ticks are Q96 values of sqrt(1.0001)^(2^i).
var (
	posOddStart  = mustBig("79232123823359799118286999567")
	posEvenStart = mustBig("79228162514264337593543950336")

	posRatios = [...]*big.Int{
		1:  mustBig("79236085330515764027303304731"),
		2:  mustBig("79244008939048815603706035061"),
		3:  mustBig("79259858533276714757314932305"),
		4:  mustBig("79291567232598584799939703904"),
		5:  mustBig("79355022692464371645785046466"),
		6:  mustBig("79482085999252804386437311141"),
		7:  mustBig("79736823300114093921829183326"),
		8:  mustBig("80248749790819932309965073892"),
		9:  mustBig("81282483887344747381513967011"),
		10: mustBig("83390072131320151908154831281"),
		11: mustBig("87770609709833776024991924138"),
		12: mustBig("97234110755111693312479820773"),
		13: mustBig("119332217159966728226237229890"),
		14: mustBig("179736315981702064433883588727"),
		15: mustBig("407748233172238350107850275304"),
		16: mustBig("2098478828474011932436660412517"),
		17: mustBig("55581415166113811149459800483533"),
		18: mustBig("38992368544603139932233054999993551"),
	}
)

// Ratios for negative ticks are Q64 values of sqrt(1.0001)^-(2^i).
var (
	negOddStart  = mustBig("18445821805675392311")
	negEvenStart = mustBig("18446744073709551616")

	negRatios = [...]*big.Int{
		1:  mustBig("18444899583751176498"),
		2:  mustBig("18443055278223354162"),
		3:  mustBig("18439367220385604838"),
		4:  mustBig("18431993317065449817"),
		5:  mustBig("18417254355718160513"),
		6:  mustBig("18387811781193591352"),
		7:  mustBig("18329067761203520168"),
		8:  mustBig("18212142134806087854"),
		9:  mustBig("17980523815641551639"),
		10: mustBig("17526086738831147013"),
		11: mustBig("16651378430235024244"),
		12: mustBig("15030750278693429944"),
		13: mustBig("12247334978882834399"),
		14: mustBig("8131365268884726200"),
		15: mustBig("3584323654723342297"),
		16: mustBig("696457651847595233"),
		17: mustBig("26294789957452057"),
		18: mustBig("37481735321082"),
	}
)

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("tickmath: bad constant " + s)
	}
	return v
}

// TickIndexToSqrtPriceX64 returns sqrt(1.0001^tick) as a Q64.64 value.
func TickIndexToSqrtPriceX64(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTick, tick)
	}
	if tick >= 0 {
		return sqrtPricePositive(uint32(tick)), nil
	}
	return sqrtPriceNegative(uint32(-tick)), nil
}

// MustTickIndexToSqrtPriceX64 panics on an out-of-range tick. Use only with constants.
func MustTickIndexToSqrtPriceX64(tick int32) *big.Int {
	p, err := TickIndexToSqrtPriceX64(tick)
	if err != nil {
		panic(err)
	}
	return p
}

func sqrtPricePositive(tick uint32) *big.Int {
	ratio := new(big.Int)
	if tick&1 != 0 {
		ratio.Set(posOddStart)
	} else {
		ratio.Set(posEvenStart)
	}
	for i := 1; i < len(posRatios); i++ {
		if tick&(1<<uint(i)) != 0 {
			ratio.Mul(ratio, posRatios[i])
			ratio.Rsh(ratio, 96)
		}
	}
	return ratio.Rsh(ratio, 32)
}

func sqrtPriceNegative(tick uint32) *big.Int {
	ratio := new(big.Int)
	if tick&1 != 0 {
		ratio.Set(negOddStart)
	} else {
		ratio.Set(negEvenStart)
	}
	for i := 1; i < len(negRatios); i++ {
		if tick&(1<<uint(i)) != 0 {
			ratio.Mul(ratio, negRatios[i])
			ratio.Rsh(ratio, 64)
		}
	}
	return ratio
}

// SqrtPriceX64ToTickIndex returns the greatest tick whose sqrt price does not
// exceed sqrtPrice.
func SqrtPriceX64ToTickIndex(sqrtPrice *big.Int) (int32, error) {
	if sqrtPrice == nil || sqrtPrice.Cmp(MinSqrtPriceX64) < 0 || sqrtPrice.Cmp(MaxSqrtPriceX64) > 0 {
		return 0, ErrInvalidSqrtPrice
	}

	lo, hi := MinTick, MaxTick
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if sqrtPriceAt(mid).Cmp(sqrtPrice) <= 0 {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}

func sqrtPriceAt(tick int32) *big.Int {
	if tick >= 0 {
		return sqrtPricePositive(uint32(tick))
	}
	return sqrtPriceNegative(uint32(-tick))
}
