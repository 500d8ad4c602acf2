package rules

import (
	"github.com/chatguard/chatguard/automod"
)

// The message rules run in priority order; the first rule to decide ends evaluation.
func DefaultRules() automod.RuleSet {
	rules := automod.RuleSet{
		MessageRules: []automod.MessageRuleFunc{
			ChatActivityRule,
			AdminExemptRule,
			ProfanityRule,
			AdvertisingRule,
			MonetaryRule,
			EmojiSpamRule,
			UnlabeledMediaRule,
			MediaSolicitationRule,
			ImageTextRule,
			FloodRule,
		},
		AllowedRules: []automod.MessageRuleFunc{
			ReputationRule,
		},
	}
	return rules
}
