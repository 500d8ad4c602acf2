package engine

import (
	"fmt"
)

type Action string

const (
	ActionAllow  Action = "allow"
	ActionDelete Action = "delete"
	ActionBan    Action = "ban"
)

type Reason string

const (
	ReasonProfanity   Reason = "profanity"
	ReasonAdvertising Reason = "advertising"
	ReasonMonetary    Reason = "monetary_solicitation"
	ReasonEmojiSpam   Reason = "emoji_spam"
	ReasonEmptyMedia  Reason = "empty_media"
	ReasonFlood       Reason = "flood"
)

// The outcome of evaluating a single message. Reason is empty for ALLOW verdicts.
type Verdict struct {
	Action Action `json:"action"`
	Reason Reason `json:"reason,omitempty"`
	// Evidence for the decision: matched word, phrase, amount, etc. Informational only.
	Detail string `json:"detail,omitempty"`
}

func Allow() Verdict {
	return Verdict{Action: ActionAllow}
}

func Delete(reason Reason, detail string) Verdict {
	return Verdict{Action: ActionDelete, Reason: reason, Detail: detail}
}

func Ban(reason Reason, detail string) Verdict {
	return Verdict{Action: ActionBan, Reason: reason, Detail: detail}
}

func (v Verdict) IsAllow() bool {
	return v.Action == "" || v.Action == ActionAllow
}

func (v Verdict) String() string {
	if v.IsAllow() {
		return string(ActionAllow)
	}
	return fmt.Sprintf("%s(%s)", v.Action, v.Reason)
}
