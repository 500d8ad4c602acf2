// Sliding-window message rate tracking per (chat, user), used to detect flooding.
//
// Includes an interface and implementations using redis and in-process memory.
package floodstore

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultLimit    = 3
	DefaultInterval = 10 * time.Second
)

type FloodStore interface {
	// Records a message timestamp for the (chat, user) pair, discards timestamps older than the window interval, and reports whether the number of remaining timestamps has reached the limit. Calls for the same pair are serialized.
	//
	// A non-zero msgID is recorded at most once per window, so re-evaluating the same message does not count against the sender. Zero means the message is anonymous and is always counted.
	RecordAndCheck(ctx context.Context, chatID, userID, msgID int64, now time.Time) (bool, error)
	// Drops tracking state for pairs which have been idle for longer than the window interval. Returns the number of pairs dropped.
	Evict(ctx context.Context, now time.Time) (int, error)
}

func floodKey(chatID, userID int64) string {
	return fmt.Sprintf("%d/%d", chatID, userID)
}
