package rules

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/chatguard/chatguard/automod"
	"github.com/chatguard/chatguard/automod/engine"
	"github.com/chatguard/chatguard/automod/keyword"
	"github.com/chatguard/chatguard/automod/setstore"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRulesFixtures(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := engineFixture(t)

	testCases := []struct {
		op     automod.MessageOp
		expect string
	}{
		{op: automod.MessageOp{Text: "привет всем"}, expect: "allow"},
		{op: automod.MessageOp{Text: "спасибо, очень круто!"}, expect: "allow"},
		{op: automod.MessageOp{Text: "ну ты с у к а"}, expect: "delete(profanity)"},
		{op: automod.MessageOp{Text: "ну ты сука", SenderIsAdmin: true}, expect: "allow"},
		{op: automod.MessageOp{Text: "рабо\u200bта, пиши в лс +79001234567"}, expect: "delete(advertising)"},
		{op: automod.MessageOp{Text: "отдам за 2500 руб"}, expect: "delete(monetary_solicitation)"},
		{op: automod.MessageOp{Text: "всего 150₽"}, expect: "delete(monetary_solicitation)"},
		{op: automod.MessageOp{Text: "нас уже 2500 человек"}, expect: "allow"},
		{op: automod.MessageOp{Text: strings.Repeat("👍 ", 10)}, expect: "delete(emoji_spam)"},
		{op: automod.MessageOp{Text: strings.Repeat("👍 ", 9)}, expect: "allow"},
		{op: automod.MessageOp{Text: "дааааааа"}, expect: "delete(emoji_spam)"},
		{op: automod.MessageOp{HasMedia: true}, expect: "delete(empty_media)"},
		{op: automod.MessageOp{HasMedia: true, FileName: "заработок_онлайн.jpg"}, expect: "delete(advertising)"},
		{op: automod.MessageOp{HasMedia: true, Text: "смотрите", FileName: "скидки.pdf"}, expect: "delete(advertising)"},
		{op: automod.MessageOp{HasMedia: true, Text: "фото с отпуска"}, expect: "allow"},
		{op: automod.MessageOp{HasMedia: true, Text: "фото с отпуска", OCRText: "пиши в лс"}, expect: "delete(advertising)"},
		{op: automod.MessageOp{HasMedia: true, Text: "ok", OCRText: "f u c k"}, expect: "delete(profanity)"},
		{op: automod.MessageOp{HasMedia: true, Text: "ok", OCRText: "всего 300$"}, expect: "delete(monetary_solicitation)"},
	}
	for i, tc := range testCases {
		op := tc.op
		op.ChatID = -100
		op.UserID = int64(i + 1)
		op.MessageID = int64(i + 1)
		op.DryRun = true
		assert.Equal(tc.expect, eng.Evaluate(ctx, op).String(), "case %d: %q", i, tc.op.Text)
	}
}

func TestUnlabeledMediaPolicy(t *testing.T) {
	assert := assert.New(t)
	eng := engineFixture(t)

	op := automod.MessageOp{ChatID: -100, UserID: 1, MessageID: 1, HasMedia: true}
	v := evalRule(t, &eng, UnlabeledMediaRule, op)
	assert.NotNil(v)
	assert.Equal(automod.ReasonEmptyMedia, v.Reason)

	eng.Config.DeleteUnlabeledMedia = false
	assert.Nil(evalRule(t, &eng, UnlabeledMediaRule, op))

	// suspicious filenames are always removed
	op.FileName = "пиши в лс.png"
	v = evalRule(t, &eng, UnlabeledMediaRule, op)
	assert.NotNil(v)
	assert.Equal(automod.ReasonAdvertising, v.Reason)

	// captioned media is left to the other rules
	op.Text = "котик"
	assert.Nil(evalRule(t, &eng, UnlabeledMediaRule, op))
}

func TestAdminExemptRule(t *testing.T) {
	assert := assert.New(t)
	eng := engineFixture(t)

	op := automod.MessageOp{ChatID: -100, UserID: 1, MessageID: 1, Text: "hi"}
	assert.Nil(evalRule(t, &eng, AdminExemptRule, op))

	op.SenderIsAdmin = true
	v := evalRule(t, &eng, AdminExemptRule, op)
	assert.NotNil(v)
	assert.True(v.IsAllow())
}

func TestProcessMessageEndToEnd(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := engineFixture(t)
	mp := eng.Platform.(*engine.MockPlatform)

	v := eng.ProcessMessage(ctx, automod.InboundMessage{ChatID: -100, UserID: 1, MessageID: 1, Text: "рабо\u200bта, пиши в лс +79001234567"})
	assert.Equal(automod.ActionDelete, v.Action)
	assert.Equal(automod.ReasonAdvertising, v.Reason)

	v = eng.ProcessMessage(ctx, automod.InboundMessage{ChatID: -100, UserID: 2, MessageID: 2, HasMedia: true})
	assert.Equal(automod.ReasonEmptyMedia, v.Reason)

	v = eng.ProcessMessage(ctx, automod.InboundMessage{ChatID: -100, UserID: 3, MessageID: 3, Text: "спасибо, очень круто!"})
	assert.True(v.IsAllow())

	assert.Equal(2, len(mp.Deleted))
	assert.Equal([]string{"👍 Репутация +1 (итого 1)"}, mp.Replies)

	score, err := eng.Reputation.Get(ctx, -100, 3)
	assert.NoError(err)
	assert.Equal(1, score)

	stats, err := eng.ChatStats(ctx, -100)
	assert.NoError(err)
	assert.Equal(3, stats.MessagesDay)
	assert.Equal(3, stats.SendersDay)
	assert.Equal(2, stats.DeletesDay)
}

func TestFloodRuleEndToEnd(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := engineFixture(t)
	mp := eng.Platform.(*engine.MockPlatform)
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		offset float64
		expect string
	}{
		{offset: 0, expect: "allow"},
		{offset: 1, expect: "allow"},
		{offset: 2, expect: "ban(flood)"},
		{offset: 15, expect: "allow"},
	}
	for i, tc := range testCases {
		msg := automod.InboundMessage{
			ChatID:    -100,
			UserID:    9,
			MessageID: int64(i + 1),
			Text:      "привет",
			Timestamp: start.Add(time.Duration(tc.offset * float64(time.Second))),
		}
		assert.Equal(tc.expect, eng.ProcessMessage(ctx, msg).String())
	}
	assert.Equal(1, len(mp.Banned))
}

func TestReputationRule(t *testing.T) {
	assert := assert.New(t)
	eng := engineFixture(t)

	testCases := []struct {
		text  string
		grant bool
	}{
		{text: "Спасибо!", grant: true},
		{text: "это super полезно", grant: true},
		{text: "thanks a lot", grant: true},
		{text: "thanksgiving", grant: false},
		{text: "/rep спасибо", grant: false},
		{text: "ничего особенного", grant: false},
	}
	for _, tc := range testCases {
		mc := engine.NewMessageContext(context.Background(), &eng, automod.MessageOp{ChatID: -100, UserID: 1, MessageID: 1, Text: tc.text})
		assert.NoError(ReputationRule(&mc))
		eff := engine.ExtractEffects(&mc.BaseContext)
		assert.Equal(tc.grant, eff.ReputationGrant, tc.text)
	}
}

func TestConfigureEngineCustomSets(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := engineFixture(t)

	sets := setstore.NewMemSetStore()
	sets.Put(SetBadWords, []string{"кринж"})
	sets.Put(SetAdPhrases, []string{"промокод"})
	sets.Put(SetPositiveWords, DefaultPositiveWords)
	eng.Sets = sets
	assert.NoError(ConfigureEngine(ctx, &eng, keyword.DefaultOptions()))

	op := automod.MessageOp{ChatID: -100, UserID: 1, MessageID: 1, DryRun: true}
	op.Text = "полный к-р-и-н-ж"
	assert.Equal("delete(profanity)", eng.Evaluate(ctx, op).String())
	op.Text = "лови промокод"
	assert.Equal("delete(advertising)", eng.Evaluate(ctx, op).String())
	op.Text = "пиши в лс"
	assert.Equal("allow", eng.Evaluate(ctx, op).String())

	eng.Sets = setstore.NewMemSetStore()
	assert.Error(ConfigureEngine(ctx, &eng, keyword.DefaultOptions()))
}

func TestCaptures(t *testing.T) {
	for _, capture := range engine.MustLoadCapture("testdata/capture_messages.json") {
		t.Run(capture.Name, func(t *testing.T) {
			eng := engineFixture(t)
			assert.NoError(t, engine.ProcessCaptureRules(&eng, capture))
		})
	}
}
