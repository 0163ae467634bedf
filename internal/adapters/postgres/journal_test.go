package postgres

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clmm-route-engine/internal/domain"
)

type memWriter struct {
	mu      sync.Mutex
	batches [][]*domain.RouteQuote
}

func (w *memWriter) InsertQuotes(_ context.Context, quotes []*domain.RouteQuote) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batches = append(w.batches, append([]*domain.RouteQuote(nil), quotes...))
	return nil
}

func (w *memWriter) total() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, b := range w.batches {
		n += len(b)
	}
	return n
}

func testQuote(out int64) *domain.RouteQuote {
	return &domain.RouteQuote{
		From:       "0x2::sui::SUI",
		To:         "0x5::usdc::USDC",
		ByAmountIn: true,
		Route: domain.RouteCandidate{Hops: []domain.Hop{
			{PoolAddress: "0xa1", CoinIn: "0x2::sui::SUI", CoinOut: "0x5::usdc::USDC", A2B: true},
		}},
		AmountIn:  big.NewInt(1000),
		AmountOut: big.NewInt(out),
		Evaluated: 3,
	}
}

func TestJournalBatches(t *testing.T) {
	w := &memWriter{}
	j := NewJournal(w, 16, 2, time.Hour)
	require.NoError(t, j.Start(context.Background()))

	for i := 0; i < 5; i++ {
		j.Record(testQuote(int64(i)))
	}
	j.Record(nil)
	assert.Eventually(t, func() bool { return w.total() >= 4 }, time.Second, 5*time.Millisecond)

	// the odd one out is flushed on stop
	require.NoError(t, j.Stop())
	assert.Equal(t, 5, w.total())
}

func TestJournalDropsWhenFull(t *testing.T) {
	w := &memWriter{}
	j := NewJournal(w, 1, 10, time.Hour)
	// not started: the buffer fills and later records are dropped
	j.Record(testQuote(1))
	j.Record(testQuote(2))
	assert.Len(t, j.queue, 1)
}

func TestNewQuoteRow(t *testing.T) {
	q := testQuote(990)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	row := newQuoteRow(q, at)
	assert.Equal(t, "1000", row.AmountIn.String())
	assert.Equal(t, "990", row.AmountOut.String())
	assert.Nil(t, row.FeeAmount)
	assert.Equal(t, []string{"0xa1"}, row.Pools)
	assert.Equal(t, 1, row.Hops)
	assert.Equal(t, time.UTC, row.QuotedAt.Location())

	q.FeeAmount = big.NewInt(3)
	q.Route = domain.RouteCandidate{}
	row = newQuoteRow(q, at)
	require.NotNil(t, row.FeeAmount)
	assert.Equal(t, "3", row.FeeAmount.String())
	assert.Equal(t, []string{}, row.Pools)
}

func TestNewStoreNeedsDSN(t *testing.T) {
	_, err := NewStore(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoDSN)
}
