package flagstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemFlagStore struct {
	mu   sync.Mutex
	data map[string]map[string]time.Time
}

var _ FlagStore = (*MemFlagStore)(nil)

func NewMemFlagStore() *MemFlagStore {
	return &MemFlagStore{
		data: make(map[string]map[string]time.Time),
	}
}

func (s *MemFlagStore) Get(ctx context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []string{}
	for f := range s.data[key] {
		out = append(out, f)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemFlagStore) Add(ctx context.Context, key string, flags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range flags {
		s.set(key, f)
	}
	return nil
}

// must hold lock
func (s *MemFlagStore) set(key, flag string) bool {
	m, ok := s.data[key]
	if !ok {
		m = make(map[string]time.Time)
		s.data[key] = m
	}
	if _, ok := m[flag]; ok {
		return false
	}
	m[flag] = time.Now()
	return true
}

func (s *MemFlagStore) Remove(ctx context.Context, key string, flags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data[key]
	if !ok {
		return nil
	}
	for _, f := range flags {
		delete(m, f)
	}
	if len(m) == 0 {
		delete(s.data, key)
	}
	return nil
}

func (s *MemFlagStore) Claim(ctx context.Context, key, flag string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(key, flag), nil
}

func (s *MemFlagStore) Purge(ctx context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, m := range s.data {
		for f, t := range m {
			if t.Before(before) {
				delete(m, f)
				n++
			}
		}
		if len(m) == 0 {
			delete(s.data, key)
		}
	}
	return n, nil
}
