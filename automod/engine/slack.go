package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type SlackNotifier struct {
	SlackWebhookURL string
	Client          *http.Client
	// Actions which trigger a message. Bans only, if empty.
	Actions []Action
}

var _ Notifier = (*SlackNotifier)(nil)

func (n *SlackNotifier) wants(a Action) bool {
	if len(n.Actions) == 0 {
		return a == ActionBan
	}
	for _, want := range n.Actions {
		if want == a {
			return true
		}
	}
	return false
}

func (n *SlackNotifier) SendVerdict(ctx context.Context, v Verdict, ref MessageRef) error {
	if !n.wants(v.Action) {
		return nil
	}
	return n.sendSlackMsg(ctx, slackBody("⚠️ Automod Chat Action ⚠️\n", v, ref))
}

type SlackWebhookBody struct {
	Text string `json:"text"`
}

// Sends a simple slack message to a channel via "incoming webhook".
//
// The slack incoming webhook must be already configured in the slack workplace.
func (n *SlackNotifier) sendSlackMsg(ctx context.Context, msg string) error {
	// loosely based on: https://golangcode.com/send-slack-messages-without-a-library/

	body, err := json.Marshal(SlackWebhookBody{Text: msg})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.SlackWebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	if resp.StatusCode != 200 || buf.String() != "ok" {
		return fmt.Errorf("failed slack webhook POST request. status=%d", resp.StatusCode)
	}
	return nil
}

func slackBody(header string, v Verdict, ref MessageRef) string {
	msg := header
	msg += fmt.Sprintf("Chat `%d` / user `%d` / message `%d`\n", ref.ChatID, ref.UserID, ref.MessageID)
	msg += fmt.Sprintf("Action: `%s`\n", v.Action)
	if v.Reason != "" {
		msg += fmt.Sprintf("Reason: `%s`\n", v.Reason)
	}
	if v.Detail != "" {
		msg += fmt.Sprintf("Detail: `%s`\n", v.Detail)
	}
	return msg
}
