package cachestore

import (
	"context"
	"time"
)

// Namespaces are independent: the same key under two names refers to two entries.
type CacheStore interface {
	// Returns "" (and no error) on a miss.
	Get(ctx context.Context, name, key string) (string, error)
	Set(ctx context.Context, name, key string, val string) error
	Purge(ctx context.Context, name, key string) error
}

// Per-namespace expiry, falling back to a default for names without an override.
type TTLPolicy struct {
	Default time.Duration
	Names   map[string]time.Duration
}

func (p TTLPolicy) For(name string) time.Duration {
	if ttl, ok := p.Names[name]; ok && ttl > 0 {
		return ttl
	}
	return p.Default
}

func observeLookup(name string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(name, result).Inc()
}
