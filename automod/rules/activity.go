package rules

import (
	"strconv"

	"github.com/chatguard/chatguard/automod"
)

var _ automod.MessageRuleFunc = ChatActivityRule

// Counts messages and distinct senders per chat. Never decides.
func ChatActivityRule(c *automod.MessageContext) error {
	chat := strconv.FormatInt(c.Message.ChatID, 10)
	c.Increment("chat-messages", chat)
	c.IncrementDistinct("chat-senders", chat, strconv.FormatInt(c.Message.UserID, 10))
	return nil
}
