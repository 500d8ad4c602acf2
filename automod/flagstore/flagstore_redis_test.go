package flagstore

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRedisFlagStore(t *testing.T) {
	t.Skip("live test, need redis running locally")

	opt, err := redis.ParseURL("redis://localhost:6379/0")
	if err != nil {
		t.Fatal(err)
	}
	fs := NewRedisFlagStore(redis.NewClient(opt), time.Hour)
	testFlagStoreBasics(t, fs)
	testFlagStoreClaimConcurrent(t, fs)
}
