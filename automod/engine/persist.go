package engine

import (
	"context"
	"fmt"

	"github.com/chatguard/chatguard/automod/countstore"
)

func (eng *Engine) persistCounters(ctx context.Context, eff *Effects) error {
	for _, ref := range eff.CounterIncrements {
		if ref.Period != nil {
			err := eng.Counters.IncrementPeriod(ctx, ref.Name, ref.Val, *ref.Period)
			if err != nil {
				return err
			}
		} else {
			err := eng.Counters.Increment(ctx, ref.Name, ref.Val)
			if err != nil {
				return err
			}
		}
	}
	for _, ref := range eff.CounterDistinctIncrements {
		err := eng.Counters.IncrementDistinct(ctx, ref.Name, ref.Bucket, ref.Val)
		if err != nil {
			return err
		}
	}
	return nil
}

// Checks the daily quota for an action. Returns false if the action should be skipped.
func (eng *Engine) circuitBreak(ctx context.Context, action Action) (bool, error) {
	var quota int
	switch action {
	case ActionDelete:
		quota = QuotaDeleteDay
	case ActionBan:
		quota = QuotaBanDay
	default:
		return true, nil
	}
	if quota <= 0 {
		return true, nil
	}
	c, err := eng.Counters.GetCount(ctx, "automod-quota", string(action), countstore.PeriodDay)
	if err != nil {
		return false, fmt.Errorf("checking action quota: %w", err)
	}
	if c >= quota {
		eng.Logger.Warn("CIRCUIT BREAKER: automod "+string(action)+" actions", "count", c, "quota", quota)
		actionQuotaSkipCount.WithLabelValues(string(action)).Inc()
		return false, nil
	}
	return true, nil
}

// Bumps quota and per-chat counters after a successful action.
func (eng *Engine) countAction(ctx context.Context, action Action, chatID int64) error {
	if err := eng.Counters.IncrementPeriod(ctx, "automod-quota", string(action), countstore.PeriodDay); err != nil {
		return err
	}
	return eng.Counters.Increment(ctx, "chat-actions", fmt.Sprintf("%d/%s", chatID, action))
}
