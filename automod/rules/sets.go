package rules

import (
	"context"
	"fmt"

	"github.com/chatguard/chatguard/automod"
	"github.com/chatguard/chatguard/automod/keyword"
	"github.com/chatguard/chatguard/automod/setstore"
	"github.com/chatguard/chatguard/automod/signals"
)

// Names of the sets consulted by the default rules.
const (
	SetBadWords      = "bad-words"
	SetAdPhrases     = "ad-phrases"
	SetPositiveWords = "positive-words"
)

var DefaultPositiveWords = []string{
	"спасибо",
	"круто",
	"полезно",
	"супер",
	"great",
	"awesome",
	"thanks",
}

// Returns an in-memory set store populated with the built-in word lists. Sets loaded from a JSON file afterwards replace these.
func DefaultSets() *setstore.MemSetStore {
	sets := setstore.NewMemSetStore()
	sets.Put(SetBadWords, keyword.DefaultBadWords)
	sets.Put(SetAdPhrases, signals.DefaultAdPhrases)
	sets.Put(SetPositiveWords, DefaultPositiveWords)
	return sets
}

// Compiles the profanity lexicon and advertising detector from the engine's set store, and fills in any other missing detectors with defaults.
func ConfigureEngine(ctx context.Context, eng *automod.Engine, opts keyword.Options) error {
	words, err := eng.Sets.List(ctx, SetBadWords)
	if err != nil {
		return fmt.Errorf("loading lexicon: %w", err)
	}
	lex, err := keyword.Compile(keyword.NewLexicon(words), opts)
	if err != nil {
		return fmt.Errorf("compiling lexicon: %w", err)
	}
	eng.Lexicon = lex

	phrases, err := eng.Sets.List(ctx, SetAdPhrases)
	if err != nil {
		return fmt.Errorf("loading advertising phrases: %w", err)
	}
	eng.Ads = signals.NewAdDetector(phrases)

	if eng.Money == nil {
		eng.Money = signals.NewMoneyDetector()
	}
	if eng.Spam == (signals.SpamDetector{}) {
		eng.Spam = signals.DefaultSpamDetector()
	}
	return nil
}
