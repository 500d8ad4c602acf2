package engine

import (
	"context"
	"fmt"
)

// Action classes recorded in the flag store, per message fingerprint.
const (
	ActionClassDeleted    = "deleted"
	ActionClassBanned     = "banned"
	ActionClassReputation = "reputation"
)

// The chat service which side effects are performed against.
type Platform interface {
	DeleteMessage(ctx context.Context, ref MessageRef) error
	BanUser(ctx context.Context, chatID, userID int64) error
	Reply(ctx context.Context, ref MessageRef, text string) error
}

func actionClass(a Action) string {
	switch a {
	case ActionDelete:
		return ActionClassDeleted
	case ActionBan:
		return ActionClassBanned
	}
	return ""
}

func (eng *Engine) applyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if eng.Config.ApplyTimeout > 0 {
		return context.WithTimeout(ctx, eng.Config.ApplyTimeout)
	}
	return context.WithCancel(ctx)
}

// Performs the side effect for a verdict, at most once per message fingerprint and action class. Failures are logged and counted, never returned. Returns true if the action was performed by this call.
//
// A failed platform call releases the fingerprint claim, so a redelivered message can be retried.
func (eng *Engine) ApplyVerdict(ctx context.Context, v Verdict, ref MessageRef) bool {
	class := actionClass(v.Action)
	if class == "" || eng.Platform == nil {
		return false
	}
	ctx, cancel := eng.applyContext(ctx)
	defer cancel()
	ctx, span := tracer.Start(ctx, "ApplyVerdict")
	defer span.End()

	logger := eng.Logger.With("chat", ref.ChatID, "user", ref.UserID, "msg", ref.MessageID, "action", v.Action, "reason", v.Reason)

	ok, err := eng.circuitBreak(ctx, v.Action)
	if err != nil {
		logger.Error("skipping action", "err", err)
		actionFailureCount.WithLabelValues(string(v.Action)).Inc()
		return false
	}
	if !ok {
		return false
	}

	key := ref.Fingerprint().String()
	claimed, err := eng.Flags.Claim(ctx, key, class)
	if err != nil {
		logger.Error("skipping action, fingerprint check failed", "err", err)
		actionFailureCount.WithLabelValues(string(v.Action)).Inc()
		return false
	}
	if !claimed {
		logger.Info("skipping action, message already actioned")
		actionDuplicateCount.WithLabelValues(class).Inc()
		return false
	}

	switch v.Action {
	case ActionDelete:
		err = eng.Platform.DeleteMessage(ctx, ref)
	case ActionBan:
		err = eng.Platform.BanUser(ctx, ref.ChatID, ref.UserID)
	}
	if err != nil {
		logger.Error("platform action failed", "err", err)
		actionFailureCount.WithLabelValues(string(v.Action)).Inc()
		if err := eng.Flags.Remove(ctx, key, []string{class}); err != nil {
			logger.Error("releasing fingerprint claim", "err", err)
		}
		return false
	}
	actionCount.WithLabelValues(string(v.Action), string(v.Reason)).Inc()
	logger.Info("action performed", "detail", v.Detail)

	if err := eng.countAction(ctx, v.Action, ref.ChatID); err != nil {
		logger.Error("counting action", "err", err)
	}
	eng.notify(ctx, v, ref)
	return true
}

// Grants the sender of an allowed message one reputation point, at most once per message fingerprint. Returns the new total, and whether a point was granted by this call.
func (eng *Engine) GrantReputation(ctx context.Context, ref MessageRef) (int, bool) {
	if eng.Reputation == nil {
		return 0, false
	}
	ctx, cancel := eng.applyContext(ctx)
	defer cancel()
	logger := eng.Logger.With("chat", ref.ChatID, "user", ref.UserID, "msg", ref.MessageID)

	key := ref.Fingerprint().String()
	claimed, err := eng.Flags.Claim(ctx, key, ActionClassReputation)
	if err != nil {
		logger.Error("skipping reputation grant, fingerprint check failed", "err", err)
		return 0, false
	}
	if !claimed {
		actionDuplicateCount.WithLabelValues(ActionClassReputation).Inc()
		return 0, false
	}
	total, err := eng.Reputation.Increment(ctx, ref.ChatID, ref.UserID, 1)
	if err != nil {
		logger.Error("granting reputation", "err", err)
		if err := eng.Flags.Remove(ctx, key, []string{ActionClassReputation}); err != nil {
			logger.Error("releasing fingerprint claim", "err", err)
		}
		return 0, false
	}
	reputationGrantCount.Inc()
	logger.Info("reputation granted", "total", total)

	if eng.Platform != nil && eng.Config.ReputationReplies {
		if err := eng.Platform.Reply(ctx, ref, ReputationReplyText(total)); err != nil {
			logger.Warn("reputation reply failed", "err", err)
		}
	}
	return total, true
}

func ReputationReplyText(total int) string {
	return fmt.Sprintf("👍 Репутация +1 (итого %d)", total)
}
