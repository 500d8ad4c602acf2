package engine

import (
	"context"
	"time"
)

// Interface for a type that can handle sending notifications about performed actions
type Notifier interface {
	SendVerdict(ctx context.Context, v Verdict, ref MessageRef) error
}

// Serialized form of a performed action, as published to notification channels.
type VerdictEvent struct {
	ID        string    `json:"id"`
	ChatID    int64     `json:"chat_id"`
	UserID    int64     `json:"user_id"`
	MessageID int64     `json:"message_id"`
	Action    Action    `json:"action"`
	Reason    Reason    `json:"reason,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (eng *Engine) notify(ctx context.Context, v Verdict, ref MessageRef) {
	for _, n := range eng.Notifiers {
		if err := n.SendVerdict(ctx, v, ref); err != nil {
			eng.Logger.Error("sending notification", "err", err, "chat", ref.ChatID, "msg", ref.MessageID)
			collaboratorFailureCount.WithLabelValues("notifier").Inc()
		}
	}
}
