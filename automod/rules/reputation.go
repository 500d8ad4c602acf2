package rules

import (
	"strings"

	"github.com/chatguard/chatguard/automod"
	"github.com/chatguard/chatguard/automod/keyword"
)

var _ automod.MessageRuleFunc = ReputationRule

// Grants the sender reputation for an allowed message containing a positive word.
func ReputationRule(c *automod.MessageContext) error {
	if IsCommand(c.Message.Text) {
		return nil
	}
	for _, tok := range keyword.TokenizeText(c.Message.Text) {
		if c.InSet(SetPositiveWords, tok) {
			c.GrantReputation(tok)
			return nil
		}
	}
	return nil
}

// Bot commands start with a slash, eg "/rep" or "/top@chatguard_bot".
func IsCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}
