package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chatguard/chatguard/automod/cachestore"
	"github.com/chatguard/chatguard/automod/countstore"
	"github.com/chatguard/chatguard/automod/flagstore"
	"github.com/chatguard/chatguard/automod/floodstore"
	"github.com/chatguard/chatguard/automod/keyword"
	"github.com/chatguard/chatguard/automod/repstore"
	"github.com/chatguard/chatguard/automod/setstore"
	"github.com/chatguard/chatguard/automod/signals"
)

var _ MessageRuleFunc = simpleRule

func simpleRule(c *MessageContext) error {
	if c.Message.SenderIsAdmin {
		c.AllowExempt()
		return nil
	}
	if word := c.MatchLexicon(c.Message.Text); word != "" {
		c.Delete(ReasonProfanity, word)
		return nil
	}
	for _, tok := range keyword.TokenizeText(c.Message.Text) {
		if c.InSet("bad-words", tok) {
			c.Delete(ReasonProfanity, tok)
			return nil
		}
	}
	if c.CheckFlood() {
		c.Ban(ReasonFlood, "")
	}
	return nil
}

func thanksRule(c *MessageContext) error {
	if strings.Contains(c.Message.Text, "thanks") {
		c.GrantReputation("thanks")
	}
	return nil
}

func EngineTestFixture() Engine {
	rules := RuleSet{
		MessageRules: []MessageRuleFunc{
			simpleRule,
		},
		AllowedRules: []MessageRuleFunc{
			thanksRule,
		},
	}
	sets := setstore.NewMemSetStore()
	sets.Put("bad-words", []string{"heck"})
	engine := Engine{
		Logger:     slog.Default(),
		Rules:      rules,
		Config:     DefaultConfig(),
		Lexicon:    keyword.MustCompile(keyword.NewLexicon([]string{"fuck"}), keyword.DefaultOptions()),
		Ads:        signals.NewAdDetector(signals.DefaultAdPhrases),
		Money:      signals.NewMoneyDetector(),
		Spam:       signals.DefaultSpamDetector(),
		Flood:      floodstore.NewMemFloodStore(floodstore.DefaultLimit, floodstore.DefaultInterval),
		Counters:   countstore.NewMemCountStore(),
		Sets:       sets,
		Cache:      cachestore.NewMemCacheStore(10, time.Hour),
		Flags:      flagstore.NewMemFlagStore(),
		Reputation: repstore.NewMemRepStore(),
		Platform:   NewMockPlatform(),
	}
	return engine
}

// Records platform calls. Intentionally exported, for use in other packages.
type MockPlatform struct {
	mu      sync.Mutex
	Deleted []MessageRef
	Banned  []MessageRef
	Replies []string
	// if set, returned from every call
	Err error
}

var _ Platform = (*MockPlatform)(nil)

func NewMockPlatform() *MockPlatform {
	return &MockPlatform{}
}

func (p *MockPlatform) DeleteMessage(ctx context.Context, ref MessageRef) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Deleted = append(p.Deleted, ref)
	return nil
}

func (p *MockPlatform) BanUser(ctx context.Context, chatID, userID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Banned = append(p.Banned, MessageRef{ChatID: chatID, UserID: userID})
	return nil
}

func (p *MockPlatform) Reply(ctx context.Context, ref MessageRef, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Replies = append(p.Replies, text)
	return nil
}

// A single message in a capture file, with the verdict it is expected to produce.
type CapturedMessage struct {
	Text     string `json:"text,omitempty"`
	Caption  string `json:"caption,omitempty"`
	HasMedia bool   `json:"has_media,omitempty"`
	FileName string `json:"file_name,omitempty"`
	OCRText  string `json:"ocr_text,omitempty"`
	Admin    bool   `json:"admin,omitempty"`
	// seconds since the first message of the capture
	Offset float64 `json:"offset,omitempty"`
	// formatted like Verdict.String(), eg "delete(profanity)"
	Expect string `json:"expect"`
}

// A sequence of messages from a single sender in a single chat.
type MessageCapture struct {
	Name     string            `json:"name"`
	ChatID   int64             `json:"chat_id"`
	UserID   int64             `json:"user_id"`
	Messages []CapturedMessage `json:"messages"`
}

func MustLoadCapture(capPath string) []MessageCapture {
	f, err := os.Open(capPath)
	if err != nil {
		panic(err)
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(f)
	if err != nil {
		panic(err)
	}

	var captures []MessageCapture
	if err := json.Unmarshal(raw, &captures); err != nil {
		panic(err)
	}
	return captures
}

// Test helper which evaluates all the messages from a capture, in order, and checks each verdict against the expected one. Intentionally exported, for use in other packages.
func ProcessCaptureRules(eng *Engine, capture MessageCapture) error {
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, cm := range capture.Messages {
		op := MessageOp{
			ChatID:        capture.ChatID,
			UserID:        capture.UserID,
			MessageID:     int64(i + 1),
			SenderIsAdmin: cm.Admin,
			Text:          PrimaryText(cm.Text, cm.Caption),
			HasMedia:      cm.HasMedia,
			FileName:      cm.FileName,
			OCRText:       cm.OCRText,
			Timestamp:     start.Add(time.Duration(cm.Offset * float64(time.Second))),
		}
		mc := eng.evaluate(ctx, op)
		eng.CanonicalLogLine(mc)
		if err := eng.persistCounters(ctx, mc.effects); err != nil {
			return err
		}
		got := mc.effects.FinalVerdict().String()
		if got != cm.Expect {
			return fmt.Errorf("capture %q message %d: expected %s, got %s", capture.Name, i, cm.Expect, got)
		}
	}
	return nil
}

// Helper to access the private effects field from a context. Intended for use in test code, *not* from rules.
func ExtractEffects(c *BaseContext) Effects {
	return *c.effects
}
