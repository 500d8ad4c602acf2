package engine

import (
	"time"
)

// Tunables for message processing.
type Config struct {
	// Delete media messages which carry no caption text and no suspicious filename
	DeleteUnlabeledMedia bool
	// Upper bound on admin status lookups. Slow lookups treat the sender as not exempt.
	OracleTimeout time.Duration
	// Upper bound on image download plus text extraction. Slow extractions yield no text.
	OCRTimeout time.Duration
	// Upper bound on each platform side effect (delete, ban, reply)
	ApplyTimeout time.Duration
	// Reply in chat when reputation is granted
	ReputationReplies bool
}

func DefaultConfig() Config {
	return Config{
		DeleteUnlabeledMedia: true,
		OracleTimeout:        3 * time.Second,
		OCRTimeout:           10 * time.Second,
		ApplyTimeout:         5 * time.Second,
		ReputationReplies:    true,
	}
}
