package cachestore

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

// Two tiers: a process-local TinyLFU in front of shared redis state. Entries written by other replicas become visible once the local copy expires.
type RedisCacheStore struct {
	Data *cache.Cache
	TTL  TTLPolicy
}

var _ CacheStore = (*RedisCacheStore)(nil)

// The local tier absorbs repeated lookups for the same chat member, which are common while a user is actively posting. Its expiry is capped at localTTL so admin status changes made on another replica propagate quickly.
func NewRedisCacheStore(client *redis.Client, ttl time.Duration) *RedisCacheStore {
	localTTL := ttl
	if localTTL > time.Minute {
		localTTL = time.Minute
	}
	return &RedisCacheStore{
		Data: cache.New(&cache.Options{
			Redis:      client,
			LocalCache: cache.NewTinyLFU(10_000, localTTL),
		}),
		TTL: TTLPolicy{Default: ttl},
	}
}

func (s *RedisCacheStore) WithTTL(name string, ttl time.Duration) *RedisCacheStore {
	if s.TTL.Names == nil {
		s.TTL.Names = make(map[string]time.Duration)
	}
	s.TTL.Names[name] = ttl
	return s
}

func redisCacheKey(name, key string) string {
	return "chatguard/cache/" + name + "/" + key
}

func (s *RedisCacheStore) Get(ctx context.Context, name, key string) (string, error) {
	var val string
	err := s.Data.Get(ctx, redisCacheKey(name, key), &val)
	if errors.Is(err, cache.ErrCacheMiss) {
		observeLookup(name, false)
		return "", nil
	}
	if err != nil {
		return "", err
	}
	observeLookup(name, true)
	return val, nil
}

func (s *RedisCacheStore) Set(ctx context.Context, name, key string, val string) error {
	return s.Data.Set(&cache.Item{
		Ctx:   ctx,
		Key:   redisCacheKey(name, key),
		Value: val,
		TTL:   s.TTL.For(name),
	})
}

func (s *RedisCacheStore) Purge(ctx context.Context, name, key string) error {
	err := s.Data.Delete(ctx, redisCacheKey(name, key))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil
	}
	return err
}
