package rules

import (
	"context"
	"testing"

	"github.com/chatguard/chatguard/automod"
	"github.com/chatguard/chatguard/automod/engine"
	"github.com/chatguard/chatguard/automod/keyword"
)

func engineFixture(t *testing.T) automod.Engine {
	eng := engine.EngineTestFixture()
	eng.Rules = DefaultRules()
	eng.Sets = DefaultSets()
	if err := ConfigureEngine(context.Background(), &eng, keyword.DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	return eng
}

// runs a single rule against op, returning the verdict it recorded (if any)
func evalRule(t *testing.T, eng *automod.Engine, rule automod.MessageRuleFunc, op automod.MessageOp) *automod.Verdict {
	mc := engine.NewMessageContext(context.Background(), eng, op)
	if err := rule(&mc); err != nil {
		t.Fatal(err)
	}
	eff := engine.ExtractEffects(&mc.BaseContext)
	return eff.Verdict
}
