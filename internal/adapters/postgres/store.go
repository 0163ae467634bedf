// Package postgres journals served quotes and mirrors registry pool
// metadata into Postgres.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/clmm-route-engine/internal/domain"
	"github.com/hxuan190/clmm-route-engine/internal/metrics"
)

var ErrNoDSN = errors.New("postgres dsn is required")

const schema = `
CREATE TABLE IF NOT EXISTS pools (
	pool_address  TEXT PRIMARY KEY,
	coin_a        TEXT NOT NULL,
	coin_b        TEXT NOT NULL,
	decimals_a    INTEGER NOT NULL,
	decimals_b    INTEGER NOT NULL,
	fee_rate      BIGINT NOT NULL,
	tick_spacing  INTEGER NOT NULL,
	tvl_usd       DOUBLE PRECISION NOT NULL,
	is_closed     BOOLEAN NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS quote_journal (
	id             BIGSERIAL PRIMARY KEY,
	from_coin      TEXT NOT NULL,
	to_coin        TEXT NOT NULL,
	by_amount_in   BOOLEAN NOT NULL,
	amount_in      NUMERIC(40, 0) NOT NULL,
	amount_out     NUMERIC(40, 0) NOT NULL,
	fee_amount     NUMERIC(40, 0),
	pools          TEXT[] NOT NULL,
	hops           INTEGER NOT NULL,
	is_exceed      BOOLEAN NOT NULL,
	from_fallback  BOOLEAN NOT NULL,
	evaluated      INTEGER NOT NULL,
	quoted_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS quote_journal_pair_idx ON quote_journal (from_coin, to_coin, quoted_at DESC);
`

// Store provides Postgres persistence.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, ErrNoDSN
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// UpsertPools inserts or updates pool metadata.
func (s *Store) UpsertPools(ctx context.Context, pools []domain.PoolInfo) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range pools {
		batch.Queue(`
			INSERT INTO pools (
				pool_address, coin_a, coin_b, decimals_a, decimals_b, fee_rate, tick_spacing, tvl_usd, is_closed, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
			ON CONFLICT (pool_address)
			DO UPDATE SET
				coin_a = EXCLUDED.coin_a,
				coin_b = EXCLUDED.coin_b,
				decimals_a = EXCLUDED.decimals_a,
				decimals_b = EXCLUDED.decimals_b,
				fee_rate = EXCLUDED.fee_rate,
				tick_spacing = EXCLUDED.tick_spacing,
				tvl_usd = EXCLUDED.tvl_usd,
				is_closed = EXCLUDED.is_closed,
				updated_at = now()
		`,
			p.Address,
			p.CoinA.Type,
			p.CoinB.Type,
			p.CoinA.Decimals,
			p.CoinB.Decimals,
			int64(p.FeeRate),
			p.TickSpacing,
			p.TVLInUSD,
			p.IsClosed,
		)
	}
	return s.sendBatch(ctx, batch, "pools", len(pools))
}

// quoteRow is one quote_journal row.
type quoteRow struct {
	From         string
	To           string
	ByAmountIn   bool
	AmountIn     decimal.Decimal
	AmountOut    decimal.Decimal
	FeeAmount    *decimal.Decimal
	Pools        []string
	Hops         int
	IsExceed     bool
	FromFallback bool
	Evaluated    int
	QuotedAt     time.Time
}

func toDecimal(v *big.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, 0)
}

func newQuoteRow(q *domain.RouteQuote, at time.Time) quoteRow {
	row := quoteRow{
		From:         q.From,
		To:           q.To,
		ByAmountIn:   q.ByAmountIn,
		AmountIn:     toDecimal(q.AmountIn),
		AmountOut:    toDecimal(q.AmountOut),
		Pools:        q.Route.Pools(),
		Hops:         q.Route.HopCount(),
		IsExceed:     q.IsExceed,
		FromFallback: q.FromFallback,
		Evaluated:    q.Evaluated,
		QuotedAt:     at.UTC(),
	}
	if row.Pools == nil {
		row.Pools = []string{}
	}
	if q.FeeAmount != nil {
		fee := toDecimal(q.FeeAmount)
		row.FeeAmount = &fee
	}
	return row
}

// InsertQuotes appends served quotes to the journal.
func (s *Store) InsertQuotes(ctx context.Context, quotes []*domain.RouteQuote) error {
	if len(quotes) == 0 {
		return nil
	}
	now := time.Now()
	batch := &pgx.Batch{}
	for _, q := range quotes {
		r := newQuoteRow(q, now)
		batch.Queue(`
			INSERT INTO quote_journal (
				from_coin, to_coin, by_amount_in, amount_in, amount_out, fee_amount,
				pools, hops, is_exceed, from_fallback, evaluated, quoted_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`,
			r.From, r.To, r.ByAmountIn, r.AmountIn, r.AmountOut, r.FeeAmount,
			r.Pools, r.Hops, r.IsExceed, r.FromFallback, r.Evaluated, r.QuotedAt,
		)
	}
	return s.sendBatch(ctx, batch, "quote_journal", len(quotes))
}

// PairVolume sums journaled input and output for a pair since a time.
func (s *Store) PairVolume(ctx context.Context, from, to string, since time.Time) (count int64, amountIn, amountOut decimal.Decimal, err error) {
	row := s.pool.QueryRow(ctx, `
		SELECT count(*), COALESCE(sum(amount_in), 0)::TEXT, COALESCE(sum(amount_out), 0)::TEXT
		FROM quote_journal
		WHERE from_coin = $1 AND to_coin = $2 AND quoted_at >= $3 AND NOT is_exceed
	`, from, to, since.UTC())
	var in, out string
	if err = row.Scan(&count, &in, &out); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, decimal.Zero, decimal.Zero, nil
		}
		return 0, decimal.Zero, decimal.Zero, err
	}
	if amountIn, err = decimal.NewFromString(in); err != nil {
		return 0, decimal.Zero, decimal.Zero, err
	}
	if amountOut, err = decimal.NewFromString(out); err != nil {
		return 0, decimal.Zero, decimal.Zero, err
	}
	return count, amountIn, amountOut, nil
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, table string, n int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			metrics.JournalWrites.WithLabelValues(table, "error").Inc()
			return fmt.Errorf("%s batch: %w", table, err)
		}
	}
	metrics.JournalWrites.WithLabelValues(table, "ok").Add(float64(n))
	return nil
}
