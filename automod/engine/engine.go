package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/chatguard/chatguard/automod/cachestore"
	"github.com/chatguard/chatguard/automod/countstore"
	"github.com/chatguard/chatguard/automod/flagstore"
	"github.com/chatguard/chatguard/automod/floodstore"
	"github.com/chatguard/chatguard/automod/helpers"
	"github.com/chatguard/chatguard/automod/keyword"
	"github.com/chatguard/chatguard/automod/repstore"
	"github.com/chatguard/chatguard/automod/setstore"
	"github.com/chatguard/chatguard/automod/signals"
)

// runtime for executing rules, managing state, and recording moderation actions.
//
// Logger, Counters, Sets and Flags must be non-nil. Everything else is optional: a nil Platform evaluates without acting, a nil Oracle exempts nobody, and a nil OCR extracts no image text.
type Engine struct {
	Logger *slog.Logger
	Rules  RuleSet
	Config Config

	Lexicon *keyword.Matcher
	Ads     *signals.AdDetector
	Money   *signals.MoneyDetector
	Spam    signals.SpamDetector

	Flood      floodstore.FloodStore
	Counters   countstore.CountStore
	Sets       setstore.SetStore
	Cache      cachestore.CacheStore
	Flags      flagstore.FlagStore
	Reputation repstore.RepStore

	Oracle    AdminOracle
	OCR       TextExtractor
	Platform  Platform
	Notifiers []Notifier
}

// Recognizes text in image bytes.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// Everything the chat transport knows about an inbound message.
type InboundMessage struct {
	ChatID    int64
	UserID    int64
	MessageID int64
	Text      string
	Caption   string
	HasMedia  bool
	FileName  string
	Image     ImageFunc
	// Set when the transport already knows the sender is privileged (eg, anonymous group admins)
	SenderIsAdmin bool
	Timestamp     time.Time
}

// Evaluates a message against the rule set and returns the decision, without performing any platform side effects.
//
// Flood state is recorded unless the op is a dry run. Malformed messages are allowed.
func (eng *Engine) Evaluate(ctx context.Context, op MessageOp) Verdict {
	mc := eng.evaluate(ctx, op)
	return mc.effects.FinalVerdict()
}

func (eng *Engine) evaluate(ctx context.Context, op MessageOp) *MessageContext {
	mc := NewMessageContext(ctx, eng, op)
	if err := op.Validate(); err != nil {
		mc.Logger.Debug("skipping message", "reason", err)
		return &mc
	}

	func() {
		// similar to an HTTP server, we want to recover any panics from rule execution
		defer func() {
			if r := recover(); r != nil {
				mc.Logger.Error("automod rule execution exception", "err", r)
				messageErrorCount.Inc()
			}
		}()
		if err := eng.Rules.CallMessageRules(&mc); err != nil {
			mc.Logger.Error("rule execution failed", "err", err)
			messageErrorCount.Inc()
		}
	}()
	if mc.Err != nil {
		mc.Logger.Warn("state lookup failed during rule execution", "err", mc.Err)
	}
	return &mc
}

// Full processing of an inbound message: exemption lookup, evaluation, and then side effects. Never fails; collaborator errors are logged and counted.
func (eng *Engine) ProcessMessage(ctx context.Context, msg InboundMessage) (verdict Verdict) {
	ctx, span := tracer.Start(ctx, "ProcessMessage")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat", msg.ChatID), attribute.Int64("msg", msg.MessageID))

	start := time.Now()
	verdict = Allow()
	defer func() {
		messageProcessDuration.Observe(time.Since(start).Seconds())
		messageProcessCount.WithLabelValues(string(verdict.Action), string(verdict.Reason)).Inc()
		span.SetAttributes(attribute.String("verdict", verdict.String()))
	}()
	// similar to an HTTP server, we want to recover any panics
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("automod message processing exception", "err", r, "chat", msg.ChatID, "msg", msg.MessageID)
			messageErrorCount.Inc()
		}
	}()

	op := MessageOp{
		ChatID:        msg.ChatID,
		UserID:        msg.UserID,
		MessageID:     msg.MessageID,
		SenderIsAdmin: msg.SenderIsAdmin,
		Text:          PrimaryText(msg.Text, msg.Caption),
		HasMedia:      msg.HasMedia,
		FileName:      msg.FileName,
		Image:         msg.Image,
		Timestamp:     msg.Timestamp,
	}
	if op.Timestamp.IsZero() {
		op.Timestamp = time.Now()
	}
	if err := op.Validate(); err != nil {
		eng.Logger.Debug("skipping message", "chat", msg.ChatID, "msg", msg.MessageID, "reason", err)
		return verdict
	}
	if !op.SenderIsAdmin {
		op.SenderIsAdmin = eng.IsExempt(ctx, op.ChatID, op.UserID)
	}

	mc := eng.evaluate(ctx, op)
	verdict = mc.effects.FinalVerdict()
	eng.CanonicalLogLine(mc)

	if err := eng.persistCounters(ctx, mc.effects); err != nil {
		mc.Logger.Error("failed to persist counters", "err", err)
	}
	if !verdict.IsAllow() {
		eng.ApplyVerdict(ctx, verdict, op.Ref())
	} else if mc.effects.ReputationGrant {
		eng.GrantReputation(ctx, op.Ref())
	}
	return verdict
}

// Looks up the sender's exemption, bounded by OracleTimeout. Failures are treated as not exempt.
func (eng *Engine) IsExempt(ctx context.Context, chatID, userID int64) bool {
	if eng.Oracle == nil {
		return false
	}
	if eng.Config.OracleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, eng.Config.OracleTimeout)
		defer cancel()
	}
	ok, err := eng.Oracle.IsExempt(ctx, chatID, userID)
	if err != nil {
		eng.Logger.Warn("admin lookup failed, treating sender as not exempt", "chat", chatID, "user", userID, "err", err)
		collaboratorFailureCount.WithLabelValues("oracle").Inc()
		return false
	}
	return ok
}

// Records the message against the flood window for (chat, user), and reports whether the sender is flooding. Store failures are logged and treated as no flood.
func (eng *Engine) RecordAndCheckFlood(ctx context.Context, chatID, userID int64, now time.Time) bool {
	return eng.recordFlood(ctx, chatID, userID, 0, now)
}

// Like RecordAndCheckFlood, but a message is only counted once no matter how often it is evaluated.
func (eng *Engine) RecordAndCheckFloodMessage(ctx context.Context, ref MessageRef, now time.Time) bool {
	return eng.recordFlood(ctx, ref.ChatID, ref.UserID, ref.MessageID, now)
}

func (eng *Engine) recordFlood(ctx context.Context, chatID, userID, msgID int64, now time.Time) bool {
	if eng.Flood == nil {
		return false
	}
	flood, err := eng.Flood.RecordAndCheck(ctx, chatID, userID, msgID, now)
	if err != nil {
		eng.Logger.Warn("flood tracking failed", "chat", chatID, "user", userID, "err", err)
		collaboratorFailureCount.WithLabelValues("flood").Inc()
		return false
	}
	return flood
}

const ocrCachePrefix = "t:"

// Downloads and extracts text from an image, bounded by OCRTimeout. Results are cached by content hash. Failures yield empty string.
func (eng *Engine) extractText(ctx context.Context, logger *slog.Logger, fetch ImageFunc) string {
	if eng.OCR == nil || fetch == nil {
		return ""
	}
	if eng.Config.OCRTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, eng.Config.OCRTimeout)
		defer cancel()
	}
	ctx, span := tracer.Start(ctx, "ExtractText")
	defer span.End()

	img, err := fetch(ctx)
	if err != nil {
		logger.Warn("image download failed", "err", err)
		collaboratorFailureCount.WithLabelValues("image").Inc()
		return ""
	}
	key := helpers.HashOfBytes(img)
	if eng.Cache != nil {
		val, err := eng.Cache.Get(ctx, "ocr", key)
		if err == nil && strings.HasPrefix(val, ocrCachePrefix) {
			ocrCacheHitCount.Inc()
			return strings.TrimPrefix(val, ocrCachePrefix)
		}
	}
	text, err := eng.OCR.ExtractText(ctx, img)
	if err != nil {
		logger.Warn("image text extraction failed", "err", err)
		collaboratorFailureCount.WithLabelValues("ocr").Inc()
		return ""
	}
	text = strings.TrimSpace(text)
	if eng.Cache != nil {
		if err := eng.Cache.Set(ctx, "ocr", key, ocrCachePrefix+text); err != nil {
			logger.Warn("caching image text", "err", err)
		}
	}
	return text
}

// Emits a single structured summary line per processed message.
func (eng *Engine) CanonicalLogLine(c *MessageContext) {
	v := c.effects.FinalVerdict()
	c.Logger.Info("canonical-event-line",
		"action", v.Action,
		"reason", v.Reason,
		"detail", v.Detail,
		"exempt", c.Message.SenderIsAdmin,
		"media", c.Message.HasMedia,
		"textLen", len(c.Message.Text),
		"ocrLen", len(c.Message.OCRText),
		"reputation", c.effects.ReputationGrant,
		"counterIncrements", len(c.effects.CounterIncrements),
	)
}

func (eng *Engine) GetCount(ctx context.Context, name, val, period string) (int, error) {
	return eng.Counters.GetCount(ctx, name, val, period)
}

// Summary of counters for a single chat, as shown by the /stats command.
type ChatStats struct {
	MessagesDay int `json:"messages_day"`
	SendersDay  int `json:"senders_day"`
	DeletesDay  int `json:"deletes_day"`
	BansDay     int `json:"bans_day"`
}

func (eng *Engine) ChatStats(ctx context.Context, chatID int64) (*ChatStats, error) {
	chat := fmt.Sprint(chatID)
	var out ChatStats
	var err error
	if out.MessagesDay, err = eng.Counters.GetCount(ctx, "chat-messages", chat, countstore.PeriodDay); err != nil {
		return nil, err
	}
	if out.SendersDay, err = eng.Counters.GetCountDistinct(ctx, "chat-senders", chat, countstore.PeriodDay); err != nil {
		return nil, err
	}
	if out.DeletesDay, err = eng.Counters.GetCount(ctx, "chat-actions", chat+"/"+string(ActionDelete), countstore.PeriodDay); err != nil {
		return nil, err
	}
	if out.BansDay, err = eng.Counters.GetCount(ctx, "chat-actions", chat+"/"+string(ActionBan), countstore.PeriodDay); err != nil {
		return nil, err
	}
	return &out, nil
}
