package router

import (
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hxuan190/clmm-route-engine/internal/domain"
	"github.com/hxuan190/clmm-route-engine/internal/metrics"
)

const (
	quoteCacheMaxSize = 1024 // Power of 2 for efficient modulo
	quoteCacheShards  = 16
)

// FNV-1a constants for zero-allocation hashing
const (
	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211
)

type cacheEntry struct {
	key        uint64
	from       string
	to         string
	amount     *big.Int
	byAmountIn bool
	quote      *domain.RouteQuote
	// Unix nano for faster comparison
	expiry int64
	used   uint32 // Clock bit for eviction
}

type cacheShard struct {
	mu      sync.RWMutex
	entries []cacheEntry
	size    int
	hand    int // Clock hand for eviction
}

// QuoteCache is a sharded clock cache with TTL for route quotes. Quotes are
// valid only until pool state moves, so the TTL is kept short.
type QuoteCache struct {
	ttl      time.Duration
	hash     func(from, to string, amount *big.Int, byAmountIn bool) uint64
	shards   [quoteCacheShards]cacheShard
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewQuoteCache(ttl time.Duration) *QuoteCache {
	qc := &QuoteCache{
		ttl:      ttl,
		hash:     makeKey,
		stopChan: make(chan struct{}),
	}
	entriesPerShard := quoteCacheMaxSize / quoteCacheShards
	for i := 0; i < quoteCacheShards; i++ {
		qc.shards[i].entries = make([]cacheEntry, entriesPerShard)
	}
	go qc.cleanupLoop()
	return qc
}

// Stop stops the cleanup goroutine
func (qc *QuoteCache) Stop() {
	qc.stopOnce.Do(func() { close(qc.stopChan) })
}

func hashString(h uint64, s string) uint64 {
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime64
	}
	// separator so ("ab","c") and ("a","bc") differ
	h ^= 0xff
	h *= fnvPrime64
	return h
}

func makeKey(from, to string, amount *big.Int, byAmountIn bool) uint64 {
	h := uint64(fnvOffset64)
	h = hashString(h, from)
	h = hashString(h, to)

	if amount != nil && amount.IsUint64() {
		v := amount.Uint64()
		for i := 0; i < 8; i++ {
			h ^= (v >> (i * 8)) & 0xFF
			h *= fnvPrime64
		}
	} else if amount != nil {
		for _, b := range amount.Bytes() {
			h ^= uint64(b)
			h *= fnvPrime64
		}
	}

	if byAmountIn {
		h ^= 1
	}
	h *= fnvPrime64
	return h
}

// matches compares the full request, not just its hash.
func (e *cacheEntry) matches(key uint64, from, to string, amount *big.Int, byAmountIn bool) bool {
	if e.key != key || e.from != from || e.to != to || e.byAmountIn != byAmountIn {
		return false
	}
	if e.amount == nil || amount == nil {
		return e.amount == nil && amount == nil
	}
	return e.amount.Cmp(amount) == 0
}

func (qc *QuoteCache) getShard(key uint64) *cacheShard {
	return &qc.shards[key%quoteCacheShards]
}

func (qc *QuoteCache) Get(from, to string, amount *big.Int, byAmountIn bool) *domain.RouteQuote {
	key := qc.hash(from, to, amount, byAmountIn)
	now := time.Now().UnixNano()

	shard := qc.getShard(key)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	for i := 0; i < shard.size; i++ {
		entry := &shard.entries[i]
		if entry.matches(key, from, to, amount, byAmountIn) && now <= entry.expiry {
			atomic.StoreUint32(&entry.used, 1)
			return entry.quote
		}
	}
	return nil
}

func (qc *QuoteCache) Set(from, to string, amount *big.Int, byAmountIn bool, quote *domain.RouteQuote) {
	key := qc.hash(from, to, amount, byAmountIn)
	var stored *big.Int
	if amount != nil {
		stored = new(big.Int).Set(amount)
	}
	expiry := time.Now().Add(qc.ttl).UnixNano()

	shard := qc.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	fill := func(entry *cacheEntry) {
		entry.key = key
		entry.from = from
		entry.to = to
		entry.amount = stored
		entry.byAmountIn = byAmountIn
		entry.quote = quote
		entry.expiry = expiry
		entry.used = 1
	}

	for i := 0; i < shard.size; i++ {
		if entry := &shard.entries[i]; entry.matches(key, from, to, amount, byAmountIn) {
			fill(entry)
			return
		}
	}

	entriesPerShard := len(shard.entries)
	if shard.size < entriesPerShard {
		fill(&shard.entries[shard.size])
		shard.size++
		return
	}

	// Clock eviction: second chance for recently used entries
	now := time.Now().UnixNano()
	for attempts := 0; attempts < entriesPerShard*2; attempts++ {
		entry := &shard.entries[shard.hand]
		shard.hand = (shard.hand + 1) % entriesPerShard
		if atomic.LoadUint32(&entry.used) == 0 || now > entry.expiry {
			fill(entry)
			return
		}
		atomic.StoreUint32(&entry.used, 0)
	}

	fill(&shard.entries[shard.hand])
	shard.hand = (shard.hand + 1) % entriesPerShard
}

// Purge drops every entry. Called after the graph is reloaded.
func (qc *QuoteCache) Purge() {
	for i := 0; i < quoteCacheShards; i++ {
		shard := &qc.shards[i]
		shard.mu.Lock()
		for j := range shard.entries {
			shard.entries[j] = cacheEntry{}
		}
		shard.size = 0
		shard.hand = 0
		shard.mu.Unlock()
	}
}

func (qc *QuoteCache) evictExpired() {
	now := time.Now().UnixNano()
	for i := 0; i < quoteCacheShards; i++ {
		shard := &qc.shards[i]
		shard.mu.Lock()
		for j := 0; j < shard.size; j++ {
			if entry := &shard.entries[j]; now > entry.expiry {
				atomic.StoreUint32(&entry.used, 0)
			}
		}
		shard.mu.Unlock()
	}
}

// Size returns current cache size across all shards
func (qc *QuoteCache) Size() int {
	total := 0
	for i := 0; i < quoteCacheShards; i++ {
		shard := &qc.shards[i]
		shard.mu.RLock()
		total += shard.size
		shard.mu.RUnlock()
	}
	return total
}

func (qc *QuoteCache) cleanupLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-qc.stopChan:
			return
		case <-ticker.C:
			qc.evictExpired()
			metrics.QuoteCacheSize.Set(float64(qc.Size()))
		}
	}
}
