package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/RussellLuo/slidingwindow"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/chatguard/chatguard/automod"
)

var ErrReplyRateLimited = errors.New("reply rate limit reached for chat")

const (
	DefaultReplyLimit  = 20
	DefaultReplyWindow = time.Minute
)

// Performs moderation actions and admin lookups through the Telegram Bot API.
type TelegramPlatform struct {
	Bot    TelegramBot
	Logger *slog.Logger

	replyLimit    int64
	replyWindow   time.Duration
	replyLimiters *xsync.MapOf[int64, *replyLimiter]
}

type replyLimiter struct {
	lim *slidingwindow.Limiter
	// unix nanoseconds
	lastUsed atomic.Int64
}

var _ automod.Platform = (*TelegramPlatform)(nil)
var _ automod.AdminOracle = (*TelegramPlatform)(nil)

// Replies are capped per chat at replyLimit per replyWindow; deletions and bans are never limited.
func NewTelegramPlatform(bot TelegramBot, logger *slog.Logger, replyLimit int64, replyWindow time.Duration) *TelegramPlatform {
	if replyLimit <= 0 {
		replyLimit = DefaultReplyLimit
	}
	if replyWindow <= 0 {
		replyWindow = DefaultReplyWindow
	}
	return &TelegramPlatform{
		Bot:           bot,
		Logger:        logger,
		replyLimit:    replyLimit,
		replyWindow:   replyWindow,
		replyLimiters: xsync.NewMapOf[int64, *replyLimiter](),
	}
}

func (p *TelegramPlatform) DeleteMessage(ctx context.Context, ref automod.MessageRef) error {
	cfg := tgbotapi.NewDeleteMessage(ref.ChatID, int(ref.MessageID))
	_, err := callWithContext(ctx, func() (*tgbotapi.APIResponse, error) {
		return p.Bot.Request(cfg)
	})
	platformCallCount.WithLabelValues("deleteMessage", callStatus(err)).Inc()
	if err != nil {
		return fmt.Errorf("deleting message %d in chat %d: %w", ref.MessageID, ref.ChatID, err)
	}
	return nil
}

func (p *TelegramPlatform) BanUser(ctx context.Context, chatID, userID int64) error {
	if userID < 0 {
		return fmt.Errorf("not banning sender chat %d: only users can be banned", userID)
	}
	cfg := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
	}
	_, err := callWithContext(ctx, func() (*tgbotapi.APIResponse, error) {
		return p.Bot.Request(cfg)
	})
	platformCallCount.WithLabelValues("banChatMember", callStatus(err)).Inc()
	if err != nil {
		return fmt.Errorf("banning user %d in chat %d: %w", userID, chatID, err)
	}
	return nil
}

// Replies in HTML parse mode, threaded to the referenced message when there is one.
func (p *TelegramPlatform) Reply(ctx context.Context, ref automod.MessageRef, text string) error {
	if !p.allowReply(ref.ChatID) {
		platformCallCount.WithLabelValues("sendMessage", "rate-limited").Inc()
		return ErrReplyRateLimited
	}
	msg := tgbotapi.NewMessage(ref.ChatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if ref.MessageID != 0 {
		msg.ReplyToMessageID = int(ref.MessageID)
	}
	_, err := callWithContext(ctx, func() (tgbotapi.Message, error) {
		return p.Bot.Send(msg)
	})
	platformCallCount.WithLabelValues("sendMessage", callStatus(err)).Inc()
	if err != nil {
		return fmt.Errorf("replying in chat %d: %w", ref.ChatID, err)
	}
	return nil
}

// Chat administrators and the chat creator are exempt.
func (p *TelegramPlatform) IsExempt(ctx context.Context, chatID, userID int64) (bool, error) {
	if userID < 0 {
		// sender chats other than the chat itself are never exempt
		return false, nil
	}
	cfg := tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	}
	member, err := callWithContext(ctx, func() (tgbotapi.ChatMember, error) {
		return p.Bot.GetChatMember(cfg)
	})
	platformCallCount.WithLabelValues("getChatMember", callStatus(err)).Inc()
	if err != nil {
		return false, fmt.Errorf("looking up chat member: %w", err)
	}
	return member.IsAdministrator() || member.IsCreator(), nil
}

func (p *TelegramPlatform) allowReply(chatID int64) bool {
	rl, _ := p.replyLimiters.LoadOrCompute(chatID, func() *replyLimiter {
		lim, _ := slidingwindow.NewLimiter(p.replyWindow, p.replyLimit, func() (slidingwindow.Window, slidingwindow.StopFunc) {
			return slidingwindow.NewLocalWindow()
		})
		return &replyLimiter{lim: lim}
	})
	rl.lastUsed.Store(time.Now().UnixNano())
	return rl.lim.Allow()
}

// Drops reply limiters for chats with no replies in the last two windows, by which point their counts have fully decayed. Returns the number dropped.
func (p *TelegramPlatform) EvictIdleLimiters(now time.Time) int {
	cutoff := now.Add(-2 * p.replyWindow).UnixNano()
	n := 0
	p.replyLimiters.Range(func(chatID int64, rl *replyLimiter) bool {
		if rl.lastUsed.Load() < cutoff {
			p.replyLimiters.Delete(chatID)
			n++
		}
		return true
	})
	return n
}

func callStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
