package floodstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var redisFloodPrefix string = "chatguard/flood/"

// RedisFloodStore keeps each window as a sorted set of message ids scored by timestamp (in milliseconds), so several processes can share flood state. Every update runs as a single MULTI transaction, and keys expire once a window goes idle.
type RedisFloodStore struct {
	Client   *redis.Client
	Limit    int
	Interval time.Duration
}

var _ FloodStore = (*RedisFloodStore)(nil)

func NewRedisFloodStore(client *redis.Client, limit int, interval time.Duration) *RedisFloodStore {
	return &RedisFloodStore{
		Client:   client,
		Limit:    limit,
		Interval: interval,
	}
}

func (s *RedisFloodStore) RecordAndCheck(ctx context.Context, chatID, userID, msgID int64, now time.Time) (bool, error) {
	key := redisFloodPrefix + floodKey(chatID, userID)
	score := float64(now.UnixMilli())
	cutoff := now.Add(-s.Interval).UnixMilli()

	member := strconv.FormatInt(msgID, 10)
	if msgID == 0 {
		member = "anon:" + uuid.NewString()
	}

	multi := s.Client.TxPipeline()
	// NX keeps the first timestamp of a message seen again
	multi.ZAddNX(ctx, key, redis.Z{Score: score, Member: member})
	multi.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
	card := multi.ZCard(ctx, key)
	multi.PExpire(ctx, key, s.Interval)
	if _, err := multi.Exec(ctx); err != nil {
		return false, fmt.Errorf("updating flood window: %w", err)
	}
	return s.Limit > 0 && int(card.Val()) >= s.Limit, nil
}

// redis keys expire on their own
func (s *RedisFloodStore) Evict(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}
