package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// The primary interface exposed to rules. All other contexts derive from this "base" struct.
type BaseContext struct {
	// Actual golang "context.Context", if needed for timeouts etc
	Ctx context.Context
	// Any errors encountered while processing methods on this struct (or sub-types) get rolled up in this nullable field
	Err error
	// slog logger handle, with message-specific structured fields pre-populated. Pointer, but expected to never be nil.
	Logger *slog.Logger

	engine  *Engine // NOTE: pointer, but expected never to be nil
	effects *Effects
}

// Represents a single inbound chat message being evaluated.
type MessageContext struct {
	BaseContext

	Message MessageOp

	ocrDone bool
}

// Fetches image bytes for text extraction. Called at most once per message, and only if no earlier rule decided.
type ImageFunc func(ctx context.Context) ([]byte, error)

// Immutable
type MessageOp struct {
	ChatID    int64
	UserID    int64
	MessageID int64
	// Sender is exempt from moderation (chat administrator or creator)
	SenderIsAdmin bool
	// Message text, falling back to the media caption
	Text string
	// Message carries a photo, video, animation or document
	HasMedia bool
	// Attachment filename, if any
	FileName string
	// Pre-extracted image text. When empty and Image is set, text is extracted lazily.
	OCRText string
	Image   ImageFunc
	// Arrival time, used for flood tracking
	Timestamp time.Time
	// Evaluate without recording flood state
	DryRun bool
}

// Identifies a single message for idempotency purposes.
type Fingerprint struct {
	ChatID    int64
	MessageID int64
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("msg/%d/%d", f.ChatID, f.MessageID)
}

// Everything needed to act on a message via a Platform.
type MessageRef struct {
	ChatID    int64
	UserID    int64
	MessageID int64
}

func (r MessageRef) Fingerprint() Fingerprint {
	return Fingerprint{ChatID: r.ChatID, MessageID: r.MessageID}
}

// Checks that op has enough content to be worth evaluating
func (op *MessageOp) Validate() error {
	if op.UserID == 0 {
		return fmt.Errorf("message has no sender")
	}
	if strings.TrimSpace(op.Text) == "" && !op.HasMedia {
		return fmt.Errorf("message has neither text nor media")
	}
	return nil
}

func (op *MessageOp) Ref() MessageRef {
	return MessageRef{ChatID: op.ChatID, UserID: op.UserID, MessageID: op.MessageID}
}

func (op *MessageOp) Fingerprint() Fingerprint {
	return op.Ref().Fingerprint()
}

// Returns the text to moderate from a message body and media caption.
func PrimaryText(text, caption string) string {
	if strings.TrimSpace(text) != "" {
		return text
	}
	return caption
}

// Creates a new MessageContext.
//
// Not really intended for use outside the automod package. Helpful for testing rules.
func NewMessageContext(ctx context.Context, eng *Engine, op MessageOp) MessageContext {
	return MessageContext{
		BaseContext: BaseContext{
			Ctx:     ctx,
			Err:     nil,
			Logger:  eng.Logger.With("chat", op.ChatID, "user", op.UserID, "msg", op.MessageID),
			engine:  eng,
			effects: &Effects{},
		},
		Message: op,
	}
}

// Engine configuration (read-only)
func (c *BaseContext) Config() Config {
	return c.engine.Config
}

// request external state via engine (indirect)
func (c *BaseContext) GetCount(name, val, period string) int {
	out, err := c.engine.Counters.GetCount(c.Ctx, name, val, period)
	if err != nil {
		if nil == c.Err {
			c.Err = err
		}
		return 0
	}
	return out
}

func (c *BaseContext) GetCountDistinct(name, bucket, period string) int {
	out, err := c.engine.Counters.GetCountDistinct(c.Ctx, name, bucket, period)
	if err != nil {
		if nil == c.Err {
			c.Err = err
		}
		return 0
	}
	return out
}

func (c *BaseContext) InSet(name, val string) bool {
	out, err := c.engine.Sets.InSet(c.Ctx, name, val)
	if err != nil {
		if nil == c.Err {
			c.Err = err
		}
		return false
	}
	return out
}

func (c *BaseContext) Increment(name, val string) {
	c.effects.Increment(name, val)
}

func (c *BaseContext) IncrementDistinct(name, bucket, val string) {
	c.effects.IncrementDistinct(name, bucket, val)
}

func (c *BaseContext) IncrementPeriod(name, val string, period string) {
	c.effects.IncrementPeriod(name, val, period)
}

// Returns the matched lexicon variant, or empty string.
func (c *BaseContext) MatchLexicon(text string) string {
	return c.engine.Lexicon.Match(text)
}

// Returns the matched advertising phrase (or link/phone evidence), or empty string.
func (c *BaseContext) MatchAdvertising(text string) string {
	if c.engine.Ads == nil {
		return ""
	}
	return c.engine.Ads.Match(text)
}

// Returns the matched currency amount, or empty string.
func (c *BaseContext) MatchMonetary(text string) string {
	if c.engine.Money == nil {
		return ""
	}
	return c.engine.Money.Match(text)
}

// Returns "emoji" or "repeat" for spammy text, or empty string.
func (c *BaseContext) MatchSpam(text string) string {
	return c.engine.Spam.Match(text)
}

// Records that the sender is exempt, and ends evaluation with an ALLOW.
func (c *BaseContext) AllowExempt() {
	c.effects.SetVerdict(Verdict{Action: ActionAllow, Detail: "exempt"})
}

func (c *BaseContext) Delete(reason Reason, detail string) {
	if c.effects.SetVerdict(Delete(reason, detail)) {
		c.Logger.Debug("rule decided", "action", ActionDelete, "reason", reason, "detail", detail)
	}
}

func (c *BaseContext) Ban(reason Reason, detail string) {
	if c.effects.SetVerdict(Ban(reason, detail)) {
		c.Logger.Debug("rule decided", "action", ActionBan, "reason", reason, "detail", detail)
	}
}

func (c *BaseContext) GrantReputation(word string) {
	c.effects.GrantReputation(word)
}

// Returns the verdict recorded so far, defaulting to ALLOW.
func (c *BaseContext) Verdict() Verdict {
	return c.effects.FinalVerdict()
}

// Records this message against the sender's flood window and reports whether they are flooding. Dry runs leave flood state untouched and return false.
func (c *MessageContext) CheckFlood() bool {
	if c.Message.DryRun {
		return false
	}
	ts := c.Message.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return c.engine.RecordAndCheckFloodMessage(c.Ctx, c.Message.Ref(), ts)
}

// Returns text recognized in the attached image, extracting it on first call. Failures yield empty string.
func (c *MessageContext) ImageText() string {
	if c.Message.OCRText != "" || c.ocrDone {
		return c.Message.OCRText
	}
	c.ocrDone = true
	c.Message.OCRText = c.engine.extractText(c.Ctx, c.Logger, c.Message.Image)
	return c.Message.OCRText
}
