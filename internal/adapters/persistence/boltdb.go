package persistence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/boltdb/bolt"
	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/clmm-route-engine/internal/domain"
)

const (
	PoolsBucket = "pools"
	MetaBucket  = "meta"

	DefaultDBPath = "./data/clmm-route-engine.db"

	fetchedAtKey = "fetched_at"
	openTimeout  = time.Second
)

var ErrNoSnapshot = errors.New("no persisted registry snapshot")

// StoredPool is the persisted form of one registry entry.
type StoredPool struct {
	Address     string  `json:"address"`
	CoinTypeA   string  `json:"coinTypeA"`
	CoinTypeB   string  `json:"coinTypeB"`
	DecimalsA   int32   `json:"decimalsA"`
	DecimalsB   int32   `json:"decimalsB"`
	SymbolA     string  `json:"symbolA,omitempty"`
	SymbolB     string  `json:"symbolB,omitempty"`
	FeeRate     uint64  `json:"feeRate"`
	TickSpacing int32   `json:"tickSpacing,omitempty"`
	TVLInUSD    float64 `json:"tvlInUsd"`
}

// Storage keeps the last good registry snapshot so the router can warm start
// before the feed answers.
type Storage struct {
	db     *bolt.DB
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", dbPath, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{PoolsBucket, MetaBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("[storage] opened database")
	return &Storage{db: db, dbPath: dbPath}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRegistry replaces the persisted pool set with snap in one transaction.
func (s *Storage) SaveRegistry(snap domain.RegistrySnapshot) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(PoolsBucket)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket([]byte(PoolsBucket))
		if err != nil {
			return err
		}
		for i := range snap.Pools {
			data, err := sonic.Marshal(poolToStored(&snap.Pools[i]))
			if err != nil {
				return fmt.Errorf("failed to marshal pool %s: %w", snap.Pools[i].Address, err)
			}
			if err := b.Put([]byte(snap.Pools[i].Address), data); err != nil {
				return err
			}
		}
		meta := tx.Bucket([]byte(MetaBucket))
		return meta.Put([]byte(fetchedAtKey), []byte(strconv.FormatInt(snap.FetchedAt.UnixMilli(), 10)))
	})
	if err != nil {
		log.Error().Err(err).Int("count", len(snap.Pools)).Msg("[storage] failed to save registry")
		return err
	}
	log.Info().Int("count", len(snap.Pools)).Msg("[storage] saved registry snapshot")
	return nil
}

// LoadRegistry returns the persisted snapshot, or ErrNoSnapshot when nothing
// has been saved yet. Entries that fail to decode are skipped.
func (s *Storage) LoadRegistry() (domain.RegistrySnapshot, error) {
	var snap domain.RegistrySnapshot
	unmarshalFailed := 0

	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(MetaBucket)).Get([]byte(fetchedAtKey))
		if raw == nil {
			return ErrNoSnapshot
		}
		ms, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("decode fetched_at: %w", err)
		}
		snap.FetchedAt = time.UnixMilli(ms).UTC()

		return tx.Bucket([]byte(PoolsBucket)).ForEach(func(k, v []byte) error {
			var stored StoredPool
			if err := sonic.Unmarshal(v, &stored); err != nil {
				log.Error().Str("address", string(k)).Err(err).Msg("[storage] failed to unmarshal pool, skipping")
				unmarshalFailed++
				return nil
			}
			snap.Pools = append(snap.Pools, storedToPool(&stored))
			return nil
		})
	})
	if err != nil {
		return domain.RegistrySnapshot{}, err
	}

	log.Info().
		Int("pools", len(snap.Pools)).
		Int("skipped", unmarshalFailed).
		Time("fetchedAt", snap.FetchedAt).
		Msg("[storage] loaded registry snapshot")
	return snap, nil
}

func poolToStored(p *domain.PoolInfo) *StoredPool {
	return &StoredPool{
		Address:     p.Address,
		CoinTypeA:   p.CoinA.Type,
		CoinTypeB:   p.CoinB.Type,
		DecimalsA:   p.CoinA.Decimals,
		DecimalsB:   p.CoinB.Decimals,
		SymbolA:     p.CoinA.Symbol,
		SymbolB:     p.CoinB.Symbol,
		FeeRate:     p.FeeRate,
		TickSpacing: p.TickSpacing,
		TVLInUSD:    p.TVLInUSD,
	}
}

func storedToPool(s *StoredPool) domain.PoolInfo {
	return domain.PoolInfo{
		Address:     s.Address,
		CoinA:       domain.Coin{Type: s.CoinTypeA, Decimals: s.DecimalsA, Symbol: s.SymbolA},
		CoinB:       domain.Coin{Type: s.CoinTypeB, Decimals: s.DecimalsB, Symbol: s.SymbolB},
		FeeRate:     s.FeeRate,
		TickSpacing: s.TickSpacing,
		TVLInUSD:    s.TVLInUSD,
	}
}
