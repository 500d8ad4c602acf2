package consumer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedSchedulerOrder(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	sched := newKeyedScheduler(4)

	var mu sync.Mutex
	got := map[string][]int{}
	release := make(chan struct{})

	for i := 0; i < 20; i++ {
		key := "-100/1"
		if i%2 == 1 {
			key = "-100/2"
		}
		i := i
		assert.NoError(sched.AddWork(ctx, key, func() {
			if i == 0 {
				// hold the first key until everything else is queued
				<-release
			}
			mu.Lock()
			got[key] = append(got[key], i)
			mu.Unlock()
		}))
	}

	// other keys are not held up by a blocked one
	assert.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got["-100/2"]) == 10
	}, time.Second, 10*time.Millisecond)

	close(release)
	sched.Wait()
	assert.Equal([]int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18}, got["-100/1"])
	assert.Equal([]int{1, 3, 5, 7, 9, 11, 13, 15, 17, 19}, got["-100/2"])
	assert.Empty(sched.active)
}

func TestKeyedSchedulerParallelism(t *testing.T) {
	assert := assert.New(t)
	sched := newKeyedScheduler(1)

	release := make(chan struct{})
	assert.NoError(sched.AddWork(context.Background(), "a", func() { <-release }))

	// no free worker, so a new key waits until the context gives up
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(sched.AddWork(ctx, "b", func() {}), context.DeadlineExceeded)

	close(release)
	sched.Wait()
	assert.Empty(sched.active)
}
