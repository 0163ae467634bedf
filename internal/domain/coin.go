package domain

import (
	"errors"
	"fmt"
	"strings"
)

// SuiCoinType is the native gas coin in normalized form.
const SuiCoinType = "0x0000000000000000000000000000000000000000000000000000000000000002::sui::SUI"

const addressHexLen = 64

var (
	ErrInvalidAddress  = errors.New("invalid object address")
	ErrInvalidCoinType = errors.New("invalid coin type")
)

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

// NormalizeAddress returns addr as 0x followed by 64 lowercase hex digits.
func NormalizeAddress(addr string) (string, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	if !isHex(s) || len(s) > addressHexLen {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return "0x" + strings.Repeat("0", addressHexLen-len(s)) + strings.ToLower(s), nil
}

// IsValidAddress reports whether addr is a well-formed object address.
func IsValidAddress(addr string) bool {
	_, err := NormalizeAddress(addr)
	return err == nil
}

// NormalizeCoinType pads the package address of a "0x2::module::Name" type
// so the same coin always compares equal. Type parameters are normalized too.
func NormalizeCoinType(coinType string) (string, error) {
	t := strings.TrimSpace(coinType)
	head, params := t, ""
	if i := strings.IndexByte(t, '<'); i >= 0 {
		if !strings.HasSuffix(t, ">") {
			return "", fmt.Errorf("%w: %q", ErrInvalidCoinType, coinType)
		}
		head, params = t[:i], t[i+1:len(t)-1]
	}

	parts := strings.Split(head, "::")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidCoinType, coinType)
	}
	addr, err := NormalizeAddress(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCoinType, coinType)
	}
	out := addr + "::" + parts[1] + "::" + parts[2]
	if params == "" {
		return out, nil
	}

	args := splitTypeParams(params)
	for i, a := range args {
		if args[i], err = NormalizeCoinType(a); err != nil {
			return "", err
		}
	}
	return out + "<" + strings.Join(args, ", ") + ">", nil
}

// splitTypeParams splits a comma separated parameter list at depth zero.
func splitTypeParams(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}

// CoinTypeAddress returns the package address of a normalized coin type.
func CoinTypeAddress(coinType string) string {
	if i := strings.Index(coinType, "::"); i >= 0 {
		return coinType[:i]
	}
	return coinType
}
