package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks lookup cache hits
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "graph_lookup_cache_hits_total",
			Help: "Total number of Graph lookup cache hits",
		},
	)

	// CacheMisses tracks lookup cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "graph_lookup_cache_misses_total",
			Help: "Total number of Graph lookup cache misses",
		},
	)

	// CacheSize tracks bytes written to the lookup cache
	CacheSize = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "graph_lookup_cache_written_bytes_total",
			Help: "Total bytes written to the Graph lookup cache",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_lookup_cache_errors_total",
			Help: "Total number of lookup cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
