package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/chatguard/chatguard/automod"
)

var updateCursorKey = "chatguard/tg-offset"

// Subset of the Telegram Bot API client used here. Satisfied by the wrapper returned from NewTelegramBot, and mocked in tests.
type TelegramBot interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetFileDirectURL(fileID string) (string, error)
	GetSelf() tgbotapi.User
}

type tgBotWrapper struct {
	*tgbotapi.BotAPI
}

func (w *tgBotWrapper) GetSelf() tgbotapi.User {
	return w.Self
}

func NewTelegramBot(token, apiEndpoint string, client *http.Client) (TelegramBot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	if apiEndpoint == "" {
		apiEndpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, apiEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}
	return &tgBotWrapper{BotAPI: bot}, nil
}

// Long-polls Telegram for updates and feeds messages to the moderation engine.
type TelegramConsumer struct {
	Parallelism int
	Logger      *slog.Logger
	RedisClient *redis.Client
	Engine      *automod.Engine
	Bot         TelegramBot
	// used for image downloads (optional)
	HTTPClient *http.Client
	// caps image download rate across all chats (optional)
	DownloadLimiter *rate.Limiter
	// images larger than this are not downloaded; zero means the text extractor default
	MaxImageBytes int

	// lastOffset is the next update id to request. It is persisted to redis periodically, if redis is present.
	lastOffset int64
}

func (tc *TelegramConsumer) Run(ctx context.Context) error {
	if tc.Engine == nil {
		return fmt.Errorf("nil engine")
	}
	if tc.Bot == nil {
		return fmt.Errorf("nil telegram bot")
	}
	parallelism := tc.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}

	cur, err := tc.ReadLastCursor(ctx)
	if err != nil {
		return err
	}
	atomic.StoreInt64(&tc.lastOffset, cur)

	u := tgbotapi.NewUpdate(int(cur))
	u.Timeout = 30
	u.AllowedUpdates = []string{"message", "edited_message"}
	tc.Logger.Info("polling telegram for updates", "bot", tc.Bot.GetSelf().UserName, "offset", cur)
	updates := tc.Bot.GetUpdatesChan(u)
	defer tc.Bot.StopReceivingUpdates()

	// messages from one sender in one chat are handled one at a time, in arrival order
	sched := newKeyedScheduler(parallelism)
	defer sched.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			updatesReceivedCount.Inc()
			atomic.StoreInt64(&tc.lastOffset, int64(upd.UpdateID)+1)
			msg := upd.Message
			if msg == nil {
				msg = upd.EditedMessage
			}
			if msg == nil {
				continue
			}
			err := sched.AddWork(ctx, senderKey(msg), func() {
				if err := tc.HandleMessage(ctx, msg); err != nil {
					tc.Logger.Error("failed to handle message", "err", err, "chat", msg.Chat.ID, "msg", msg.MessageID)
				}
			})
			if err != nil {
				return nil
			}
		}
	}
}

func senderKey(msg *tgbotapi.Message) string {
	var chatID, senderID int64
	if msg.Chat != nil {
		chatID = msg.Chat.ID
	}
	if msg.SenderChat != nil {
		senderID = msg.SenderChat.ID
	} else if msg.From != nil {
		senderID = msg.From.ID
	}
	return fmt.Sprintf("%d/%d", chatID, senderID)
}

// Dispatches a single message: commands are answered, everything else from group chats is moderated.
func (tc *TelegramConsumer) HandleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.Chat == nil || (msg.From == nil && msg.SenderChat == nil) {
		return nil
	}
	if msg.IsCommand() {
		return tc.HandleCommand(ctx, msg)
	}
	if msg.Chat.IsPrivate() || msg.Chat.IsChannel() {
		return nil
	}
	inbound := tc.InboundMessage(msg)
	tc.Engine.ProcessMessage(ctx, inbound)
	return nil
}

func (tc *TelegramConsumer) ReadLastCursor(ctx context.Context) (int64, error) {
	// if redis isn't configured, just skip
	if tc.RedisClient == nil {
		tc.Logger.Info("redis not configured, skipping cursor read")
		return 0, nil
	}

	val, err := tc.RedisClient.Get(ctx, updateCursorKey).Int64()
	if err == redis.Nil {
		tc.Logger.Info("no pre-existing update offset in redis")
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	tc.Logger.Info("successfully found prior update offset in redis", "offset", val)
	return val, nil
}

func (tc *TelegramConsumer) PersistCursor(ctx context.Context) error {
	// if redis isn't configured, just skip
	if tc.RedisClient == nil {
		return nil
	}
	lastOffset := atomic.LoadInt64(&tc.lastOffset)
	if lastOffset <= 0 {
		return nil
	}
	return tc.RedisClient.Set(ctx, updateCursorKey, lastOffset, 14*24*time.Hour).Err()
}

// this method runs in a loop, persisting the current update offset every 5 seconds
func (tc *TelegramConsumer) RunPersistCursor(ctx context.Context) error {

	// if redis isn't configured, just skip
	if tc.RedisClient == nil {
		return nil
	}
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			lastOffset := atomic.LoadInt64(&tc.lastOffset)
			if lastOffset >= 1 {
				tc.Logger.Info("persisting final update offset", "offset", lastOffset)
				// parent context is already cancelled
				if err := tc.PersistCursor(context.Background()); err != nil {
					tc.Logger.Error("failed to persist update offset", "err", err, "offset", lastOffset)
				}
			}
			return nil
		case <-ticker.C:
			lastOffset := atomic.LoadInt64(&tc.lastOffset)
			if lastOffset >= 1 {
				if err := tc.PersistCursor(ctx); err != nil {
					tc.Logger.Error("failed to persist update offset", "err", err, "offset", lastOffset)
				}
			}
		}
	}
}
