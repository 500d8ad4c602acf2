package flagstore

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testFlagStoreBasics(t *testing.T, fs FlagStore) {
	assert := assert.New(t)
	ctx := context.Background()

	l, err := fs.Get(ctx, "msg/-100/1")
	assert.NoError(err)
	assert.Empty(l)

	assert.NoError(fs.Add(ctx, "msg/-100/1", []string{"deleted", "banned"}))
	assert.NoError(fs.Add(ctx, "msg/-100/1", []string{"deleted", "reputation"}))
	l, err = fs.Get(ctx, "msg/-100/1")
	assert.NoError(err)
	assert.Equal([]string{"banned", "deleted", "reputation"}, l)

	assert.NoError(fs.Remove(ctx, "msg/-100/1", []string{"deleted", "banned", "missing"}))
	l, err = fs.Get(ctx, "msg/-100/1")
	assert.NoError(err)
	assert.Equal([]string{"reputation"}, l)

	ok, err := fs.Claim(ctx, "msg/-100/2", "deleted")
	assert.NoError(err)
	assert.True(ok)
	ok, err = fs.Claim(ctx, "msg/-100/2", "deleted")
	assert.NoError(err)
	assert.False(ok)
	ok, err = fs.Claim(ctx, "msg/-100/2", "banned")
	assert.NoError(err)
	assert.True(ok)
}

func testFlagStoreClaimConcurrent(t *testing.T, fs FlagStore) {
	assert := assert.New(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := fs.Claim(ctx, "msg/-100/3", "deleted")
			assert.NoError(err)
			if ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(1, winners)
}

func TestMemFlagStore(t *testing.T) {
	testFlagStoreBasics(t, NewMemFlagStore())
	testFlagStoreClaimConcurrent(t, NewMemFlagStore())
}

func TestMemFlagStorePurge(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fs := NewMemFlagStore()
	assert.NoError(fs.Add(ctx, "msg/-100/1", []string{"deleted"}))
	n, err := fs.Purge(ctx, time.Now().Add(-time.Hour))
	assert.NoError(err)
	assert.Equal(0, n)
	n, err = fs.Purge(ctx, time.Now().Add(time.Second))
	assert.NoError(err)
	assert.Equal(1, n)
	l, err := fs.Get(ctx, "msg/-100/1")
	assert.NoError(err)
	assert.Empty(l)
}

func newTestGormStore(t *testing.T) *GormFlagStore {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "flags.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	fs, err := NewGormFlagStore(db)
	if err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestGormFlagStore(t *testing.T) {
	testFlagStoreBasics(t, newTestGormStore(t))
}

func TestGormFlagStorePurge(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fs := newTestGormStore(t)
	assert.NoError(fs.Add(ctx, "msg/-100/1", []string{"deleted", "banned"}))
	n, err := fs.Purge(ctx, time.Now().Add(time.Minute))
	assert.NoError(err)
	assert.Equal(2, n)
	l, err := fs.Get(ctx, "msg/-100/1")
	assert.NoError(err)
	assert.Empty(l)
}
