package consumer

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Runs work with bounded parallelism. Work items sharing a key run one at a time, in the order they were added; items with different keys run concurrently.
type keyedScheduler struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup

	lk     sync.Mutex
	active map[string][]func()
}

func newKeyedScheduler(parallelism int) *keyedScheduler {
	if parallelism <= 0 {
		parallelism = 1
	}
	return &keyedScheduler{
		sem:    semaphore.NewWeighted(int64(parallelism)),
		active: make(map[string][]func()),
	}
}

// Queues do behind any pending work for the same key. Blocks until a worker slot is free when the key has nothing pending.
func (s *keyedScheduler) AddWork(ctx context.Context, key string, do func()) error {
	s.lk.Lock()
	if q, ok := s.active[key]; ok {
		s.active[key] = append(q, do)
		s.lk.Unlock()
		return nil
	}
	s.active[key] = []func(){}
	s.lk.Unlock()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.lk.Lock()
		delete(s.active, key)
		s.lk.Unlock()
		return err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.sem.Release(1)
		for do != nil {
			do()

			s.lk.Lock()
			rem := s.active[key]
			if len(rem) == 0 {
				delete(s.active, key)
				do = nil
			} else {
				do = rem[0]
				s.active[key] = rem[1:]
			}
			s.lk.Unlock()
		}
	}()
	return nil
}

// Blocks until all queued work has run.
func (s *keyedScheduler) Wait() {
	s.wg.Wait()
}
