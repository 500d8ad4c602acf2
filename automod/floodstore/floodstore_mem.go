package floodstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type stamp struct {
	msgID int64
	at    time.Time
}

// stamps are kept sorted by time, oldest first
type window struct {
	mu      sync.Mutex
	stamps  []stamp
	evicted bool
}

// must hold lock
func (w *window) prune(now time.Time, interval time.Duration) {
	if n := len(w.stamps); n > 0 && w.stamps[n-1].at.After(now) {
		now = w.stamps[n-1].at
	}
	kept := w.stamps[:0]
	for _, s := range w.stamps {
		if now.Sub(s.at) <= interval {
			kept = append(kept, s)
		}
	}
	w.stamps = kept
}

// must hold lock
func (w *window) seen(msgID int64) bool {
	if msgID == 0 {
		return false
	}
	for _, s := range w.stamps {
		if s.msgID == msgID {
			return true
		}
	}
	return false
}

// must hold lock
func (w *window) insert(s stamp) {
	i := sort.Search(len(w.stamps), func(i int) bool {
		return w.stamps[i].at.After(s.at)
	})
	w.stamps = append(w.stamps, stamp{})
	copy(w.stamps[i+1:], w.stamps[i:])
	w.stamps[i] = s
}

// MemFloodStore keeps one window per (chat, user) pair. Windows for different pairs are updated in parallel; updates to a single window are serialized on its own lock.
type MemFloodStore struct {
	Limit    int
	Interval time.Duration

	windows *xsync.MapOf[string, *window]
}

var _ FloodStore = (*MemFloodStore)(nil)

func NewMemFloodStore(limit int, interval time.Duration) *MemFloodStore {
	return &MemFloodStore{
		Limit:    limit,
		Interval: interval,
		windows:  xsync.NewMapOf[string, *window](),
	}
}

func (s *MemFloodStore) RecordAndCheck(ctx context.Context, chatID, userID, msgID int64, now time.Time) (bool, error) {
	key := floodKey(chatID, userID)
	for {
		w, _ := s.windows.LoadOrCompute(key, func() *window { return &window{} })
		w.mu.Lock()
		if w.evicted {
			// lost a race with Evict; the next load creates a fresh window
			w.mu.Unlock()
			continue
		}
		if !w.seen(msgID) {
			w.insert(stamp{msgID: msgID, at: now})
		}
		w.prune(now, s.Interval)
		// only the most recent Limit entries can affect the result
		if s.Limit > 0 && len(w.stamps) > s.Limit {
			w.stamps = append(w.stamps[:0], w.stamps[len(w.stamps)-s.Limit:]...)
		}
		n := len(w.stamps)
		w.mu.Unlock()
		return s.Limit > 0 && n >= s.Limit, nil
	}
}

func (s *MemFloodStore) Evict(ctx context.Context, now time.Time) (int, error) {
	n := 0
	s.windows.Range(func(key string, w *window) bool {
		w.mu.Lock()
		w.prune(now, s.Interval)
		if len(w.stamps) == 0 {
			w.evicted = true
			s.windows.Delete(key)
			n++
		}
		w.mu.Unlock()
		return true
	})
	return n, nil
}

// Number of (chat, user) pairs currently tracked.
func (s *MemFloodStore) Len() int {
	return s.windows.Size()
}
