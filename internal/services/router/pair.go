package router

import (
	"errors"
	"fmt"

	"github.com/hxuan190/clmm-route-engine/internal/domain"
)

var (
	ErrCoinNotFound         = errors.New("coin not found in registry")
	ErrNoPathFound          = errors.New("no path found")
	ErrInconsistentResponse = errors.New("inconsistent simulation response")
	ErrInvalidAmount        = errors.New("invalid amount")
)

func coinNotFound(coin string) error {
	return fmt.Errorf("%w: %s", ErrCoinNotFound, coin)
}

// CanonicalPair orders two normalized coin types as (base, quote). The native
// gas coin is always the quote; otherwise the lexically smaller type is the base.
func CanonicalPair(a, b string) (base, quote string) {
	switch {
	case a == domain.SuiCoinType:
		return b, a
	case b == domain.SuiCoinType:
		return a, b
	case a < b:
		return a, b
	default:
		return b, a
	}
}
