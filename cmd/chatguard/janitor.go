package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chatguard/chatguard/automod/flagstore"
	"github.com/chatguard/chatguard/automod/floodstore"

	"github.com/robfig/cron/v3"
)

// Per-chat state which can be dropped once a chat goes quiet. Implemented by consumer.TelegramPlatform for reply limiters.
type IdleEvicter interface {
	EvictIdleLimiters(now time.Time) int
}

// Periodically drops expired flood windows, idle reply limiters and old action ledger entries, so in-process state stays bounded.
type Janitor struct {
	Logger   *slog.Logger
	Schedule string
	Flood    floodstore.FloodStore
	Flags    flagstore.FlagStore
	Limiters IdleEvicter
	// ledger entries older than this are purged
	FlagTTL time.Duration
}

func (j *Janitor) Run(ctx context.Context) error {
	schedule := j.Schedule
	if schedule == "" {
		schedule = "@every 1m"
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		j.Sweep(ctx, time.Now())
	}); err != nil {
		return fmt.Errorf("invalid janitor schedule %q: %w", schedule, err)
	}
	c.Start()
	j.Logger.Info("janitor started", "schedule", schedule)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Runs a single cleanup pass. Failures are logged and counted, and never stop the janitor.
func (j *Janitor) Sweep(ctx context.Context, now time.Time) {
	if j.Flood != nil {
		n, err := j.Flood.Evict(ctx, now)
		if err != nil {
			j.Logger.Error("flood window eviction failed", "err", err)
			janitorFailures.WithLabelValues("flood").Inc()
		} else if n > 0 {
			janitorEvictions.WithLabelValues("flood").Add(float64(n))
			j.Logger.Debug("evicted idle flood windows", "count", n)
		}
	}
	if j.Limiters != nil {
		if n := j.Limiters.EvictIdleLimiters(now); n > 0 {
			janitorEvictions.WithLabelValues("reply-limiter").Add(float64(n))
			j.Logger.Debug("evicted idle reply limiters", "count", n)
		}
	}
	if j.Flags != nil && j.FlagTTL > 0 {
		n, err := j.Flags.Purge(ctx, now.Add(-j.FlagTTL))
		if err != nil {
			j.Logger.Error("action ledger purge failed", "err", err)
			janitorFailures.WithLabelValues("ledger").Inc()
		} else if n > 0 {
			janitorEvictions.WithLabelValues("ledger").Add(float64(n))
			j.Logger.Debug("purged action ledger entries", "count", n)
		}
	}
}
