package repstore

import (
	"context"
	"sync"
)

type MemRepStore struct {
	mu     sync.Mutex
	scores map[int64]map[int64]int
}

var _ RepStore = (*MemRepStore)(nil)

func NewMemRepStore() *MemRepStore {
	return &MemRepStore{
		scores: make(map[int64]map[int64]int),
	}
}

func (s *MemRepStore) Increment(ctx context.Context, chatID, userID int64, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.scores[chatID]
	if !ok {
		chat = make(map[int64]int)
		s.scores[chatID] = chat
	}
	chat[userID] += delta
	return chat[userID], nil
}

func (s *MemRepStore) Get(ctx context.Context, chatID, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores[chatID][userID], nil
}

func (s *MemRepStore) Top(ctx context.Context, chatID int64, limit int) ([]Score, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	s.mu.Lock()
	out := make([]Score, 0, len(s.scores[chatID]))
	for uid, score := range s.scores[chatID] {
		out = append(out, Score{UserID: uid, Score: score})
	}
	s.mu.Unlock()
	sortScores(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
