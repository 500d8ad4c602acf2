package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const DefaultVerdictSubject = "chatguard.verdict"

// Publishes every performed action as a JSON VerdictEvent.
type NATSNotifier struct {
	Conn    *nats.Conn
	Subject string
}

var _ Notifier = (*NATSNotifier)(nil)

func NewNATSNotifier(conn *nats.Conn, subject string) *NATSNotifier {
	if subject == "" {
		subject = DefaultVerdictSubject
	}
	return &NATSNotifier{Conn: conn, Subject: subject}
}

func NewVerdictEvent(v Verdict, ref MessageRef) VerdictEvent {
	return VerdictEvent{
		ID:        uuid.NewString(),
		ChatID:    ref.ChatID,
		UserID:    ref.UserID,
		MessageID: ref.MessageID,
		Action:    v.Action,
		Reason:    v.Reason,
		Detail:    v.Detail,
		Timestamp: time.Now().UTC(),
	}
}

func (n *NATSNotifier) SendVerdict(ctx context.Context, v Verdict, ref MessageRef) error {
	if v.IsAllow() {
		return nil
	}
	b, err := json.Marshal(NewVerdictEvent(v, ref))
	if err != nil {
		return err
	}
	if err := n.Conn.Publish(n.Subject, b); err != nil {
		return fmt.Errorf("publishing verdict event: %w", err)
	}
	return nil
}
