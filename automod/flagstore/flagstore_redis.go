package flagstore

import (
	"context"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisFlagsPrefix string = "chatguard/flags/"

// Flags are stored as redis sets, with a TTL refreshed on every write.
type RedisFlagStore struct {
	Client *redis.Client
	TTL    time.Duration
}

var _ FlagStore = (*RedisFlagStore)(nil)

func NewRedisFlagStore(client *redis.Client, ttl time.Duration) *RedisFlagStore {
	return &RedisFlagStore{
		Client: client,
		TTL:    ttl,
	}
}

func (s *RedisFlagStore) Get(ctx context.Context, key string) ([]string, error) {
	out, err := s.Client.SMembers(ctx, redisFlagsPrefix+key).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (s *RedisFlagStore) Add(ctx context.Context, key string, flags []string) error {
	if len(flags) == 0 {
		return nil
	}
	rkey := redisFlagsPrefix + key
	l := make([]interface{}, len(flags))
	for i, v := range flags {
		l[i] = v
	}
	multi := s.Client.TxPipeline()
	multi.SAdd(ctx, rkey, l...)
	if s.TTL > 0 {
		multi.Expire(ctx, rkey, s.TTL)
	}
	_, err := multi.Exec(ctx)
	return err
}

func (s *RedisFlagStore) Remove(ctx context.Context, key string, flags []string) error {
	if len(flags) == 0 {
		return nil
	}
	l := make([]interface{}, len(flags))
	for i, v := range flags {
		l[i] = v
	}
	return s.Client.SRem(ctx, redisFlagsPrefix+key, l...).Err()
}

func (s *RedisFlagStore) Claim(ctx context.Context, key, flag string) (bool, error) {
	rkey := redisFlagsPrefix + key
	multi := s.Client.TxPipeline()
	added := multi.SAdd(ctx, rkey, flag)
	if s.TTL > 0 {
		multi.Expire(ctx, rkey, s.TTL)
	}
	if _, err := multi.Exec(ctx); err != nil {
		return false, err
	}
	return added.Val() == 1, nil
}

// redis keys expire on their own
func (s *RedisFlagStore) Purge(ctx context.Context, before time.Time) (int, error) {
	return 0, nil
}
