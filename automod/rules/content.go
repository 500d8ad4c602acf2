package rules

import (
	"github.com/chatguard/chatguard/automod"
)

var _ automod.MessageRuleFunc = AdminExemptRule

func AdminExemptRule(c *automod.MessageContext) error {
	if c.Message.SenderIsAdmin {
		c.AllowExempt()
	}
	return nil
}

var _ automod.MessageRuleFunc = ProfanityRule

func ProfanityRule(c *automod.MessageContext) error {
	if word := c.MatchLexicon(c.Message.Text); word != "" {
		c.Delete(automod.ReasonProfanity, word)
	}
	return nil
}

var _ automod.MessageRuleFunc = AdvertisingRule

func AdvertisingRule(c *automod.MessageContext) error {
	if phrase := c.MatchAdvertising(c.Message.Text); phrase != "" {
		c.Delete(automod.ReasonAdvertising, phrase)
	}
	return nil
}

var _ automod.MessageRuleFunc = MonetaryRule

func MonetaryRule(c *automod.MessageContext) error {
	if amount := c.MatchMonetary(c.Message.Text); amount != "" {
		c.Delete(automod.ReasonMonetary, amount)
	}
	return nil
}

var _ automod.MessageRuleFunc = EmojiSpamRule

func EmojiSpamRule(c *automod.MessageContext) error {
	if kind := c.MatchSpam(c.Message.Text); kind != "" {
		c.Delete(automod.ReasonEmojiSpam, kind)
	}
	return nil
}
