package consumer

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"

	"github.com/chatguard/chatguard/automod"
	"github.com/chatguard/chatguard/automod/engine"
	"github.com/chatguard/chatguard/automod/keyword"
	"github.com/chatguard/chatguard/automod/repstore"
	"github.com/chatguard/chatguard/automod/rules"
)

type mockBot struct {
	mu       sync.Mutex
	requests []tgbotapi.Chattable
	sent     []tgbotapi.MessageConfig
	members  map[int64]string
	fileURL  string
	err      error
	updates  chan tgbotapi.Update
}

var _ TelegramBot = (*mockBot)(nil)

func (b *mockBot) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	if b.updates != nil {
		return b.updates
	}
	return make(chan tgbotapi.Update)
}

func (b *mockBot) StopReceivingUpdates() {}

func (b *mockBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return tgbotapi.Message{}, b.err
	}
	if mc, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, mc)
	}
	return tgbotapi.Message{}, nil
}

func (b *mockBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *mockBot) GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	if b.err != nil {
		return tgbotapi.ChatMember{}, b.err
	}
	return tgbotapi.ChatMember{Status: b.members[config.UserID]}, nil
}

func (b *mockBot) GetFileDirectURL(fileID string) (string, error) {
	return b.fileURL + "/" + fileID, nil
}

func (b *mockBot) GetSelf() tgbotapi.User {
	return tgbotapi.User{ID: 999, UserName: "chatguard_bot"}
}

func consumerFixture(t *testing.T, bot *mockBot) *TelegramConsumer {
	eng := engine.EngineTestFixture()
	eng.Rules = rules.DefaultRules()
	eng.Sets = rules.DefaultSets()
	if err := rules.ConfigureEngine(context.Background(), &eng, keyword.DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if bot != nil {
		plat := NewTelegramPlatform(bot, slog.Default(), 0, 0)
		eng.Platform = plat
		eng.Oracle = plat
	}
	return &TelegramConsumer{
		Parallelism: 2,
		Logger:      slog.Default(),
		Engine:      &eng,
		Bot:         bot,
	}
}

func groupMessage(id int, userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: id,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: -100, Type: "supergroup"},
		Date:      int(time.Now().Unix()),
		Text:      text,
	}
}

func commandMessage(id int, userID int64, text string, length int) *tgbotapi.Message {
	msg := groupMessage(id, userID, text)
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	return msg
}

func TestInboundMessage(t *testing.T) {
	assert := assert.New(t)
	tc := consumerFixture(t, &mockBot{})

	msg := groupMessage(5, 1, "")
	msg.Caption = "котик"
	msg.Photo = []tgbotapi.PhotoSize{{FileID: "small", FileSize: 100}, {FileID: "big", FileSize: 1000}}
	in := tc.InboundMessage(msg)
	assert.Equal(int64(-100), in.ChatID)
	assert.Equal(int64(1), in.UserID)
	assert.Equal(int64(5), in.MessageID)
	assert.Equal("котик", in.Caption)
	assert.True(in.HasMedia)
	assert.False(in.SenderIsAdmin)
	assert.NotNil(in.Image)

	// too large to download
	msg.Photo = []tgbotapi.PhotoSize{{FileID: "huge", FileSize: 50 * 1024 * 1024}}
	assert.Nil(tc.InboundMessage(msg).Image)

	// anonymous admin posting as the chat itself
	anon := groupMessage(6, 0, "hello")
	anon.From = &tgbotapi.User{ID: 1087968824, UserName: "GroupAnonymousBot"}
	anon.SenderChat = &tgbotapi.Chat{ID: -100}
	in = tc.InboundMessage(anon)
	assert.True(in.SenderIsAdmin)
	assert.Equal(int64(-100), in.UserID)

	doc := groupMessage(7, 1, "")
	doc.Document = &tgbotapi.Document{FileID: "doc1", FileName: "прайс.pdf", MimeType: "application/pdf"}
	in = tc.InboundMessage(doc)
	assert.True(in.HasMedia)
	assert.Equal("прайс.pdf", in.FileName)
	assert.Nil(in.Image)
}

func TestHandleMessageModeration(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	bot := &mockBot{members: map[int64]string{2: "administrator"}}
	tc := consumerFixture(t, bot)

	assert.NoError(tc.HandleMessage(ctx, groupMessage(5, 1, "ну ты сука")))
	assert.Equal(1, len(bot.requests))
	del, ok := bot.requests[0].(tgbotapi.DeleteMessageConfig)
	assert.True(ok)
	assert.Equal(int64(-100), del.ChatID)
	assert.Equal(5, del.MessageID)

	// redelivery of the same message does nothing
	assert.NoError(tc.HandleMessage(ctx, groupMessage(5, 1, "ну ты сука")))
	assert.Equal(1, len(bot.requests))

	// administrators are exempt
	assert.NoError(tc.HandleMessage(ctx, groupMessage(6, 2, "ну ты сука")))
	assert.Equal(1, len(bot.requests))

	// private chats are not moderated
	priv := groupMessage(7, 1, "сука")
	priv.Chat = &tgbotapi.Chat{ID: 1, Type: "private"}
	assert.NoError(tc.HandleMessage(ctx, priv))
	assert.Equal(1, len(bot.requests))

	// reputation reply
	assert.NoError(tc.HandleMessage(ctx, groupMessage(8, 3, "спасибо, очень круто!")))
	assert.Equal(1, len(bot.sent))
	assert.Equal("👍 Репутация +1 (итого 1)", bot.sent[0].Text)
	assert.Equal(8, bot.sent[0].ReplyToMessageID)
}

func TestRunRedeliveredUpdates(t *testing.T) {
	assert := assert.New(t)
	bot := &mockBot{updates: make(chan tgbotapi.Update, 16)}
	tc := consumerFixture(t, bot)
	tc.Parallelism = 4

	first := groupMessage(10, 1, "привет всем")
	updates := []tgbotapi.Update{
		{UpdateID: 1, Message: first},
		// the same update delivered again after a restart
		{UpdateID: 1, Message: first},
		{UpdateID: 2, EditedMessage: groupMessage(10, 1, "привет всем!")},
		{UpdateID: 3, EditedMessage: groupMessage(10, 1, "привет всем!!")},
		{UpdateID: 4, Message: groupMessage(11, 2, "привет")},
	}
	for _, upd := range updates {
		bot.updates <- upd
	}
	close(bot.updates)

	assert.NoError(tc.Run(context.Background()))
	bans := 0
	for _, req := range bot.requests {
		if _, ok := req.(tgbotapi.BanChatMemberConfig); ok {
			bans++
		}
	}
	assert.Equal(0, bans)
	assert.Equal(int64(5), tc.lastOffset)
}

func TestRunFloodInOrder(t *testing.T) {
	assert := assert.New(t)
	bot := &mockBot{updates: make(chan tgbotapi.Update, 16)}
	tc := consumerFixture(t, bot)
	tc.Parallelism = 4

	for i := 0; i < 3; i++ {
		bot.updates <- tgbotapi.Update{UpdateID: i + 1, Message: groupMessage(20+i, 1, "привет")}
	}
	close(bot.updates)

	assert.NoError(tc.Run(context.Background()))
	var bans []tgbotapi.BanChatMemberConfig
	for _, req := range bot.requests {
		if ban, ok := req.(tgbotapi.BanChatMemberConfig); ok {
			bans = append(bans, ban)
		}
	}
	assert.Equal(1, len(bans))
	assert.Equal(int64(1), bans[0].UserID)
}

func TestSenderKey(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("-100/1", senderKey(groupMessage(1, 1, "hi")))
	anon := groupMessage(2, 0, "hi")
	anon.SenderChat = &tgbotapi.Chat{ID: -100}
	assert.Equal("-100/-100", senderKey(anon))
}

func TestHandleCommand(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	tc := consumerFixture(t, nil)
	mp := tc.Engine.Platform.(*engine.MockPlatform)

	assert.NoError(tc.HandleMessage(ctx, commandMessage(1, 7, "/top", 4)))
	assert.NoError(tc.HandleMessage(ctx, commandMessage(2, 7, "/rep", 4)))
	assert.Equal([]string{"Пока пусто.", "👤 Ваша репутация: <b>0</b>"}, mp.Replies)

	_, err := tc.Engine.Reputation.Increment(ctx, -100, 7, 3)
	assert.NoError(err)
	_, err = tc.Engine.Reputation.Increment(ctx, -100, 8, 1)
	assert.NoError(err)

	assert.NoError(tc.HandleMessage(ctx, commandMessage(3, 7, "/rep@chatguard_bot", 18)))
	assert.Equal("👤 Ваша репутация: <b>3</b>", mp.Replies[2])

	assert.NoError(tc.HandleMessage(ctx, commandMessage(4, 7, "/top", 4)))
	assert.Equal("<b>🏆 ТОП-10</b>\n1. <a href='tg://user?id=7'>user_7</a> — 3\n2. <a href='tg://user?id=8'>user_8</a> — 1", mp.Replies[3])

	// commands are never moderated, and unknown commands are ignored
	assert.NoError(tc.HandleMessage(ctx, commandMessage(5, 7, "/сука", len("/сука"))))
	assert.Equal(4, len(mp.Replies))
	assert.Empty(mp.Deleted)

	assert.NoError(tc.HandleMessage(ctx, commandMessage(6, 7, "/stats", 6)))
	assert.Contains(mp.Replies[4], "📊 За сутки")
}

func TestFormatTop(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("Пока пусто.", FormatTop(nil))
	assert.Equal("<b>🏆 ТОП-10</b>\n1. <a href='tg://user?id=42'>user_42</a> — 5", FormatTop([]repstore.Score{{UserID: 42, Score: 5}}))
	assert.Equal("📊 За сутки: сообщений <b>1</b>, участников <b>2</b>, удалено <b>3</b>, банов <b>4</b>", FormatStats(&automod.ChatStats{MessagesDay: 1, SendersDay: 2, DeletesDay: 3, BansDay: 4}))
}

func TestTelegramPlatform(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	bot := &mockBot{members: map[int64]string{1: "creator", 2: "administrator", 3: "member"}}
	plat := NewTelegramPlatform(bot, slog.Default(), 2, time.Hour)

	for _, tc := range []struct {
		user   int64
		exempt bool
	}{
		{user: 1, exempt: true},
		{user: 2, exempt: true},
		{user: 3, exempt: false},
		{user: 4, exempt: false},
		{user: -1001, exempt: false},
	} {
		ok, err := plat.IsExempt(ctx, -100, tc.user)
		assert.NoError(err)
		assert.Equal(tc.exempt, ok, "user %d", tc.user)
	}

	assert.NoError(plat.BanUser(ctx, -100, 3))
	ban, ok := bot.requests[0].(tgbotapi.BanChatMemberConfig)
	assert.True(ok)
	assert.Equal(int64(3), ban.UserID)
	assert.Error(plat.BanUser(ctx, -100, -1001))

	ref := automod.MessageRef{ChatID: -100, UserID: 3, MessageID: 9}
	assert.NoError(plat.Reply(ctx, ref, "one"))
	assert.NoError(plat.Reply(ctx, ref, "two"))
	assert.ErrorIs(plat.Reply(ctx, ref, "three"), ErrReplyRateLimited)
	assert.Equal(2, len(bot.sent))
	assert.Equal(tgbotapi.ModeHTML, bot.sent[0].ParseMode)

	// limits are per chat
	assert.NoError(plat.Reply(ctx, automod.MessageRef{ChatID: -200}, "other chat"))

	bot.err = errors.New("telegram unavailable")
	_, err := plat.IsExempt(ctx, -100, 1)
	assert.Error(err)
	assert.Error(plat.DeleteMessage(ctx, ref))
}

func TestEvictIdleLimiters(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	bot := &mockBot{}
	plat := NewTelegramPlatform(bot, slog.Default(), 1, time.Minute)

	assert.NoError(plat.Reply(ctx, automod.MessageRef{ChatID: -100}, "one"))
	assert.NoError(plat.Reply(ctx, automod.MessageRef{ChatID: -200}, "two"))
	assert.Equal(2, plat.replyLimiters.Size())

	// recently used limiters are kept, and still enforce their limit
	assert.Equal(0, plat.EvictIdleLimiters(time.Now()))
	assert.ErrorIs(plat.Reply(ctx, automod.MessageRef{ChatID: -100}, "again"), ErrReplyRateLimited)

	assert.Equal(2, plat.EvictIdleLimiters(time.Now().Add(3*time.Minute)))
	assert.Equal(0, plat.replyLimiters.Size())

	// an evicted chat starts with a fresh limit
	assert.NoError(plat.Reply(ctx, automod.MessageRef{ChatID: -100}, "three"))
	assert.Equal(3, len(bot.sent))
}

func TestDownloadImage(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photo":
			w.Write(png)
		case "/text":
			w.Write([]byte("not an image"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	bot := &mockBot{fileURL: srv.URL}
	tc := consumerFixture(t, bot)

	data, err := tc.downloadImage(ctx, "photo")
	assert.NoError(err)
	assert.Equal(png, data)

	_, err = tc.downloadImage(ctx, "text")
	assert.Error(err)

	_, err = tc.downloadImage(ctx, "missing")
	assert.Error(err)
}

func TestCallWithContext(t *testing.T) {
	assert := assert.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := callWithContext(ctx, func() (int, error) {
		time.Sleep(time.Second)
		return 1, nil
	})
	assert.ErrorIs(err, context.DeadlineExceeded)

	v, err := callWithContext(context.Background(), func() (int, error) {
		return 2, nil
	})
	assert.NoError(err)
	assert.Equal(2, v)
}
