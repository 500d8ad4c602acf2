package engine

// Holds configuration of which rules should be run, and helps dispatch messages to those rules.
type RuleSet struct {
	// Run in order. The first rule which records a verdict ends evaluation.
	MessageRules []MessageRuleFunc
	// Run after MessageRules, only when the message is going to be allowed. Verdicts recorded by these rules are ignored.
	AllowedRules []MessageRuleFunc
}

// Executes message rules in priority order. Only dispatches execution, does no other de-dupe or pre/post processing.
func (r *RuleSet) CallMessageRules(c *MessageContext) error {
	for _, f := range r.MessageRules {
		err := f(c)
		if err != nil {
			return err
		}
		if c.effects.Verdict != nil {
			break
		}
	}
	if !c.effects.FinalVerdict().IsAllow() {
		return nil
	}
	saved := c.effects.Verdict
	for _, f := range r.AllowedRules {
		err := f(c)
		if err != nil {
			return err
		}
	}
	c.effects.Verdict = saved
	return nil
}
