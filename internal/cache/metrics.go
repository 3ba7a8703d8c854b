package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realestate_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"namespace"},
	)

	cacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realestate_cache_misses_total",
			Help: "Total number of cache misses (absent or expired)",
		},
		[]string{"namespace"},
	)

	cacheEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realestate_cache_evictions_total",
			Help: "Total number of evicted cache entries by reason",
		},
		[]string{"reason"},
	)
)
