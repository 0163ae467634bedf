package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Graph metrics
	GraphCoinCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clmm_graph_coin_count",
		Help: "Number of coins in the routing graph",
	})

	GraphPoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clmm_graph_pool_count",
		Help: "Number of pools in the routing graph",
	})

	GraphReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clmm_graph_reloads_total",
			Help: "Total number of registry reloads into the routing graph",
		},
		[]string{"source", "status"},
	)

	GraphDiscardedPools = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clmm_graph_discarded_pools_total",
		Help: "Registry pools dropped as closed, invalid or duplicate",
	})

	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clmm_quote_requests_total",
			Help: "Total number of quote requests",
		},
		[]string{"mode", "status"},
	)

	QuoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clmm_quote_duration_seconds",
			Help:    "Quote request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	RouteCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clmm_route_candidates",
		Help:    "Number of route candidates evaluated per quote",
		Buckets: []float64{1, 2, 4, 8, 12, 16},
	})

	QuoteCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clmm_quote_cache_hits_total",
		Help: "Total number of route quote cache hits",
	})

	QuoteCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clmm_quote_cache_misses_total",
		Help: "Total number of route quote cache misses",
	})

	QuoteCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clmm_quote_cache_size",
		Help: "Current number of entries in the route quote cache",
	})

	PriceImpact = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clmm_price_impact_bps",
			Help:    "Local single-pool quote price impact in basis points",
			Buckets: []float64{0, 10, 50, 100, 300, 500, 1000, 5000, 10000},
		},
		[]string{"severity"},
	)

	// Oracle metrics
	OracleCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clmm_oracle_calls_total",
			Help: "Total number of batched dev-inspect calls",
		},
		[]string{"kind", "status"},
	)

	OracleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clmm_oracle_duration_seconds",
		Help:    "Dev-inspect round trip duration in seconds",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})

	// Snapshot cache metrics
	SnapshotCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clmm_snapshot_cache_hits_total",
			Help: "Pool snapshot and tick cache hits",
		},
		[]string{"kind"},
	)

	SnapshotCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clmm_snapshot_cache_misses_total",
			Help: "Pool snapshot and tick cache misses",
		},
		[]string{"kind"},
	)

	// Storage metrics
	JournalWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clmm_journal_writes_total",
			Help: "Quote journal and pool upsert writes",
		},
		[]string{"table", "status"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clmm_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clmm_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
