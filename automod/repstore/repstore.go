// Per-chat user reputation scores, granted for positive messages.
//
// Includes an interface and implementations using a SQL database (via gorm) and in-process memory.
package repstore

import (
	"context"
	"errors"
	"sort"
)

var ErrInvalidLimit = errors.New("limit must be positive")

type Score struct {
	UserID int64 `json:"user_id"`
	Score  int   `json:"score"`
}

type RepStore interface {
	// Adds delta to the user's score in a chat, returning the new total.
	Increment(ctx context.Context, chatID, userID int64, delta int) (int, error)
	// Returns zero for users without a score.
	Get(ctx context.Context, chatID, userID int64) (int, error)
	// Returns up to limit entries, highest score first. Ties are broken by lower user id.
	Top(ctx context.Context, chatID int64, limit int) ([]Score, error)
}

func sortScores(scores []Score) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].UserID < scores[j].UserID
	})
}
