package cachestore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/puzpuzpuz/xsync/v3"
)

// In-process LRUs, one per namespace, each with its own capacity bound and expiry. Safe for concurrent use.
type MemCacheStore struct {
	Capacity int
	TTL      TTLPolicy

	data *xsync.MapOf[string, *expirable.LRU[string, string]]
}

var _ CacheStore = (*MemCacheStore)(nil)

func NewMemCacheStore(capacity int, ttl time.Duration) *MemCacheStore {
	return &MemCacheStore{
		Capacity: capacity,
		TTL:      TTLPolicy{Default: ttl},
		data:     xsync.NewMapOf[string, *expirable.LRU[string, string]](),
	}
}

// Overrides expiry for one namespace. Must be called before the namespace is first used.
func (s *MemCacheStore) WithTTL(name string, ttl time.Duration) *MemCacheStore {
	if s.TTL.Names == nil {
		s.TTL.Names = make(map[string]time.Duration)
	}
	s.TTL.Names[name] = ttl
	return s
}

func (s *MemCacheStore) namespace(name string) *expirable.LRU[string, string] {
	lru, _ := s.data.LoadOrCompute(name, func() *expirable.LRU[string, string] {
		return expirable.NewLRU[string, string](s.Capacity, nil, s.TTL.For(name))
	})
	return lru
}

func (s *MemCacheStore) Get(ctx context.Context, name, key string) (string, error) {
	v, ok := s.namespace(name).Get(key)
	observeLookup(name, ok)
	if !ok {
		return "", nil
	}
	return v, nil
}

func (s *MemCacheStore) Set(ctx context.Context, name, key string, val string) error {
	s.namespace(name).Add(key, val)
	return nil
}

func (s *MemCacheStore) Purge(ctx context.Context, name, key string) error {
	s.namespace(name).Remove(key)
	return nil
}
