package rules

import (
	"github.com/chatguard/chatguard/automod"
)

var _ automod.MessageRuleFunc = FloodRule

func FloodRule(c *automod.MessageContext) error {
	if c.CheckFlood() {
		c.Ban(automod.ReasonFlood, "")
	}
	return nil
}
