package rules

import (
	"strings"

	"github.com/chatguard/chatguard/automod"
)

var _ automod.MessageRuleFunc = UnlabeledMediaRule

// Media without any caption is deleted, either as advertising (suspicious filename) or, if the policy is enabled, just for being unlabeled.
func UnlabeledMediaRule(c *automod.MessageContext) error {
	if !c.Message.HasMedia || strings.TrimSpace(c.Message.Text) != "" {
		return nil
	}
	if phrase := c.MatchAdvertising(c.Message.FileName); phrase != "" {
		c.Delete(automod.ReasonAdvertising, "file:"+phrase)
		return nil
	}
	if c.Config().DeleteUnlabeledMedia {
		c.Delete(automod.ReasonEmptyMedia, c.Message.FileName)
	}
	return nil
}

var _ automod.MessageRuleFunc = MediaSolicitationRule

// Captioned media: solicitation in the caption or in the attachment filename.
func MediaSolicitationRule(c *automod.MessageContext) error {
	if !c.Message.HasMedia || strings.TrimSpace(c.Message.Text) == "" {
		return nil
	}
	for _, text := range []string{c.Message.Text, c.Message.FileName} {
		if phrase := c.MatchAdvertising(text); phrase != "" {
			c.Delete(automod.ReasonAdvertising, phrase)
			return nil
		}
		if amount := c.MatchMonetary(text); amount != "" {
			c.Delete(automod.ReasonMonetary, amount)
			return nil
		}
	}
	return nil
}

var _ automod.MessageRuleFunc = ImageTextRule

// Repeats the profanity, advertising and monetary checks against text recognized in an attached image.
func ImageTextRule(c *automod.MessageContext) error {
	if !c.Message.HasMedia && c.Message.OCRText == "" {
		return nil
	}
	text := c.ImageText()
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if word := c.MatchLexicon(text); word != "" {
		c.Delete(automod.ReasonProfanity, "ocr:"+word)
		return nil
	}
	if phrase := c.MatchAdvertising(text); phrase != "" {
		c.Delete(automod.ReasonAdvertising, "ocr:"+phrase)
		return nil
	}
	if amount := c.MatchMonetary(text); amount != "" {
		c.Delete(automod.ReasonMonetary, "ocr:"+amount)
	}
	return nil
}
