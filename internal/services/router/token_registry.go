package router

import "sort"

// TokenID is a compact integer identifier for a coin type within one graph snapshot.
type TokenID uint32

// InvalidTokenID represents an unknown coin
const InvalidTokenID TokenID = 0xFFFFFFFF

// TokenRegistry maps coin types to compact IDs. IDs follow the lexical order
// of the coin types, so iterating IDs in order is deterministic.
// A registry is built once per snapshot and never mutated afterwards.
type TokenRegistry struct {
	toID   map[string]TokenID
	toCoin []string
}

// newTokenRegistry assigns IDs to the given coin types in sorted order.
func newTokenRegistry(coins map[string]struct{}) *TokenRegistry {
	sorted := make([]string, 0, len(coins))
	for c := range coins {
		sorted = append(sorted, c)
	}
	sort.Strings(sorted)

	r := &TokenRegistry{
		toID:   make(map[string]TokenID, len(sorted)),
		toCoin: sorted,
	}
	for i, c := range sorted {
		r.toID[c] = TokenID(i)
	}
	return r
}

// GetID returns the ID for a coin type
func (r *TokenRegistry) GetID(coin string) (TokenID, bool) {
	id, ok := r.toID[coin]
	return id, ok
}

// GetCoin returns the coin type for an ID
func (r *TokenRegistry) GetCoin(id TokenID) string {
	if int(id) >= len(r.toCoin) {
		return ""
	}
	return r.toCoin[id]
}

// Size returns the number of registered coins
func (r *TokenRegistry) Size() int {
	return len(r.toCoin)
}

// Coins returns all registered coin types in ID order
func (r *TokenRegistry) Coins() []string {
	out := make([]string, len(r.toCoin))
	copy(out, r.toCoin)
	return out
}
