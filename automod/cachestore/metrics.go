package cachestore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_cache_lookups",
	Help: "Number of cache lookups, by namespace and result",
}, []string{"name", "result"})
