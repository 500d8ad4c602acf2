package consumer

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/chatguard/chatguard/automod"
	"github.com/chatguard/chatguard/automod/repstore"
)

const TopLimit = 10

// Answers bot commands. Commands are never moderated. Unknown commands are ignored.
func (tc *TelegramConsumer) HandleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	cmd := msg.Command()
	switch cmd {
	case "rep", "top", "stats":
		commandCount.WithLabelValues(cmd).Inc()
	default:
		commandCount.WithLabelValues("other").Inc()
	}
	if tc.Engine.Platform == nil || msg.From == nil {
		return nil
	}
	ref := automod.MessageRef{ChatID: msg.Chat.ID, UserID: msg.From.ID, MessageID: int64(msg.MessageID)}

	var text string
	switch cmd {
	case "rep":
		if tc.Engine.Reputation == nil {
			return nil
		}
		score, err := tc.Engine.Reputation.Get(ctx, ref.ChatID, ref.UserID)
		if err != nil {
			return fmt.Errorf("reading reputation: %w", err)
		}
		text = FormatReputation(score)
	case "top":
		if tc.Engine.Reputation == nil {
			return nil
		}
		top, err := tc.Engine.Reputation.Top(ctx, ref.ChatID, TopLimit)
		if err != nil {
			return fmt.Errorf("reading reputation leaderboard: %w", err)
		}
		text = FormatTop(top)
	case "stats":
		stats, err := tc.Engine.ChatStats(ctx, ref.ChatID)
		if err != nil {
			return fmt.Errorf("reading chat stats: %w", err)
		}
		text = FormatStats(stats)
	default:
		return nil
	}
	return tc.Engine.Platform.Reply(ctx, ref, text)
}

func FormatReputation(score int) string {
	return fmt.Sprintf("👤 Ваша репутация: <b>%d</b>", score)
}

func FormatTop(top []repstore.Score) string {
	if len(top) == 0 {
		return "Пока пусто."
	}
	lines := []string{"<b>🏆 ТОП-10</b>"}
	for i, s := range top {
		lines = append(lines, fmt.Sprintf("%d. <a href='tg://user?id=%d'>user_%d</a> — %d", i+1, s.UserID, s.UserID, s.Score))
	}
	return strings.Join(lines, "\n")
}

func FormatStats(s *automod.ChatStats) string {
	return fmt.Sprintf("📊 За сутки: сообщений <b>%d</b>, участников <b>%d</b>, удалено <b>%d</b>, банов <b>%d</b>",
		s.MessagesDay, s.SendersDay, s.DeletesDay, s.BansDay)
}
