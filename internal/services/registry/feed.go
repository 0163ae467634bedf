package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"github.com/hxuan190/clmm-route-engine/internal/domain"
)

var (
	ErrFeedStatus = errors.New("registry feed returned an error")
	ErrFeedEmpty  = errors.New("registry feed returned no pools")
)

// flexNumber accepts a JSON number or a numeric string.
type flexNumber string

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		*n = flexNumber(s)
		return nil
	}
	*n = flexNumber(b)
	return nil
}

func (n flexNumber) uint64() (uint64, error) {
	if n == "" {
		return 0, nil
	}
	return strconv.ParseUint(string(n), 10, 64)
}

func (n flexNumber) float64() float64 {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0
	}
	return f
}

type feedCoin struct {
	Address  string `json:"address"`
	Decimals int32  `json:"decimals"`
	Symbol   string `json:"symbol"`
}

type feedPool struct {
	Address     string     `json:"address"`
	CoinA       feedCoin   `json:"coin_a"`
	CoinB       feedCoin   `json:"coin_b"`
	Fee         flexNumber `json:"fee"`
	FeeRate     flexNumber `json:"fee_rate"`
	TickSpacing flexNumber `json:"tick_spacing"`
	IsClosed    bool       `json:"is_closed"`
	TVLInUSD    flexNumber `json:"tvl_in_usd"`
}

// feedResponse covers both envelopes the feed is known to serve:
// {code, data: {lp_list}} and {code, pools}.
type feedResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data *struct {
		LPList []feedPool `json:"lp_list"`
	} `json:"data"`
	Pools []feedPool `json:"pools"`
}

// DecodeSnapshot parses a feed payload. Entries whose numbers cannot be parsed
// are dropped; address and coin validation happens when the graph loads.
func DecodeSnapshot(body []byte, fetchedAt time.Time) (domain.RegistrySnapshot, error) {
	var resp feedResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return domain.RegistrySnapshot{}, fmt.Errorf("decode registry feed: %w", err)
	}
	if resp.Code != 0 && resp.Code != 200 {
		return domain.RegistrySnapshot{}, fmt.Errorf("%w: code %d %s", ErrFeedStatus, resp.Code, resp.Msg)
	}

	entries := resp.Pools
	if resp.Data != nil && len(resp.Data.LPList) > 0 {
		entries = resp.Data.LPList
	}
	if len(entries) == 0 {
		return domain.RegistrySnapshot{}, ErrFeedEmpty
	}

	snap := domain.RegistrySnapshot{
		Pools:     make([]domain.PoolInfo, 0, len(entries)),
		FetchedAt: fetchedAt,
	}
	for _, e := range entries {
		fee := e.Fee
		if fee == "" {
			fee = e.FeeRate
		}
		feeRate, err := fee.uint64()
		if err != nil {
			continue
		}
		spacing, err := e.TickSpacing.uint64()
		if err != nil {
			continue
		}
		snap.Pools = append(snap.Pools, domain.PoolInfo{
			Address:     e.Address,
			CoinA:       domain.Coin{Type: e.CoinA.Address, Decimals: e.CoinA.Decimals, Symbol: e.CoinA.Symbol},
			CoinB:       domain.Coin{Type: e.CoinB.Address, Decimals: e.CoinB.Decimals, Symbol: e.CoinB.Symbol},
			FeeRate:     feeRate,
			TickSpacing: int32(spacing),
			TVLInUSD:    e.TVLInUSD.float64(),
			IsClosed:    e.IsClosed,
		})
	}
	return snap, nil
}

// Feed is the HTTP client of the pool registry.
type Feed struct {
	url        string
	client     *http.Client
	maxRetries int
	baseDelay  time.Duration
}

func NewFeed(url string, timeout time.Duration, maxRetries int) *Feed {
	return &Feed{
		url:        url,
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		baseDelay:  250 * time.Millisecond,
	}
}

// Fetch downloads and decodes the registry, retrying transient failures.
// A non-success code in the payload is not retried.
func (f *Feed) Fetch(ctx context.Context) (domain.RegistrySnapshot, error) {
	var snap domain.RegistrySnapshot
	var permanent error

	err := withRetry(ctx, f.maxRetries, f.baseDelay, func(ctx context.Context) error {
		body, err := f.get(ctx)
		if err != nil {
			return err
		}
		snap, err = DecodeSnapshot(body, time.Now().UTC())
		if errors.Is(err, ErrFeedStatus) {
			permanent = err
			return nil
		}
		return err
	})
	if err != nil {
		return domain.RegistrySnapshot{}, fmt.Errorf("fetch registry %s: %w", f.url, err)
	}
	if permanent != nil {
		return domain.RegistrySnapshot{}, permanent
	}
	return snap, nil
}

func (f *Feed) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
