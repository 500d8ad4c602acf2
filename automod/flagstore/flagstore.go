// Durable record of which actions were already taken for a message, keyed by message fingerprint.
//
// The moderation engine consults this store before deleting, banning, or granting reputation, so redelivered messages never trigger the same action twice. Includes an interface and implementations using redis, a SQL database (via gorm), and in-process memory.
package flagstore

import (
	"context"
	"time"
)

type FlagStore interface {
	Get(ctx context.Context, key string) ([]string, error)
	Add(ctx context.Context, key string, flags []string) error
	// does not error if flags not in set
	Remove(ctx context.Context, key string, flags []string) error
	// Atomically adds a single flag. Returns true only for the caller which added it.
	Claim(ctx context.Context, key, flag string) (bool, error)
	// Drops records older than the cutoff, returning how many were removed. Stores with native expiry may return zero.
	Purge(ctx context.Context, before time.Time) (int, error)
}
