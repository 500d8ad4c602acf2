package consumer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/chatguard/chatguard/automod"
	"github.com/chatguard/chatguard/automod/visual"
)

// Converts a Telegram message into the engine's transport-neutral form.
//
// Photos, videos, animations and documents count as media; stickers and voice notes do not. Messages posted on behalf of the chat itself (anonymous administrators) are exempt.
func (tc *TelegramConsumer) InboundMessage(msg *tgbotapi.Message) automod.InboundMessage {
	out := automod.InboundMessage{
		ChatID:    msg.Chat.ID,
		MessageID: int64(msg.MessageID),
		Text:      msg.Text,
		Caption:   msg.Caption,
		Timestamp: time.Unix(int64(msg.Date), 0),
	}
	if msg.From != nil {
		out.UserID = msg.From.ID
	}
	if msg.SenderChat != nil {
		out.UserID = msg.SenderChat.ID
		out.SenderIsAdmin = msg.SenderChat.ID == msg.Chat.ID
	}

	out.HasMedia = len(msg.Photo) > 0 || msg.Video != nil || msg.Animation != nil || msg.Document != nil
	if msg.Document != nil {
		out.FileName = msg.Document.FileName
	}

	if fileID, size := imageFile(msg); fileID != "" {
		maxBytes := tc.maxImageBytes()
		if size > 0 && size > maxBytes {
			downloadCount.WithLabelValues("too-large").Inc()
		} else {
			out.Image = func(ctx context.Context) ([]byte, error) {
				return tc.downloadImage(ctx, fileID)
			}
		}
	}
	return out
}

// Returns the file id (and size, if known) of the best image attached to a message.
func imageFile(msg *tgbotapi.Message) (string, int) {
	if len(msg.Photo) > 0 {
		// sizes are sorted smallest first
		p := msg.Photo[len(msg.Photo)-1]
		return p.FileID, p.FileSize
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID, msg.Document.FileSize
	}
	return "", 0
}

func (tc *TelegramConsumer) maxImageBytes() int {
	if tc.MaxImageBytes > 0 {
		return tc.MaxImageBytes
	}
	return visual.DefaultMaxImageBytes
}

func (tc *TelegramConsumer) downloadImage(ctx context.Context, fileID string) ([]byte, error) {
	if tc.DownloadLimiter != nil {
		if err := tc.DownloadLimiter.Wait(ctx); err != nil {
			downloadCount.WithLabelValues("rate-limited").Inc()
			return nil, err
		}
	}
	link, err := callWithContext(ctx, func() (string, error) {
		return tc.Bot.GetFileDirectURL(fileID)
	})
	if err != nil {
		downloadCount.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("resolving telegram file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	client := tc.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		downloadCount.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("downloading telegram file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		downloadCount.WithLabelValues(fmt.Sprint(resp.StatusCode)).Inc()
		return nil, fmt.Errorf("downloading telegram file: status %d", resp.StatusCode)
	}

	maxBytes := tc.maxImageBytes()
	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxBytes)+1))
	if err != nil {
		downloadCount.WithLabelValues("error").Inc()
		return nil, err
	}
	if _, err := visual.PreScreenImage(data, maxBytes); err != nil {
		downloadCount.WithLabelValues("rejected").Inc()
		return nil, err
	}
	downloadCount.WithLabelValues("200").Inc()
	return data, nil
}

// Runs a blocking Bot API call, returning early if ctx is done first.
func callWithContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		val, err := fn()
		ch <- result{val: val, err: err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.val, r.err
	}
}
