package automod

import (
	"github.com/chatguard/chatguard/automod/countstore"
	"github.com/chatguard/chatguard/automod/engine"
)

type Engine = engine.Engine
type Config = engine.Config
type RuleSet = engine.RuleSet

type Verdict = engine.Verdict
type Action = engine.Action
type Reason = engine.Reason

type Notifier = engine.Notifier
type SlackNotifier = engine.SlackNotifier
type NATSNotifier = engine.NATSNotifier

type Platform = engine.Platform
type AdminOracle = engine.AdminOracle
type TextExtractor = engine.TextExtractor

type MessageContext = engine.MessageContext
type MessageOp = engine.MessageOp
type MessageRef = engine.MessageRef
type InboundMessage = engine.InboundMessage
type ChatStats = engine.ChatStats

type MessageRuleFunc = engine.MessageRuleFunc

var (
	ActionAllow  = engine.ActionAllow
	ActionDelete = engine.ActionDelete
	ActionBan    = engine.ActionBan

	ReasonProfanity   = engine.ReasonProfanity
	ReasonAdvertising = engine.ReasonAdvertising
	ReasonMonetary    = engine.ReasonMonetary
	ReasonEmojiSpam   = engine.ReasonEmojiSpam
	ReasonEmptyMedia  = engine.ReasonEmptyMedia
	ReasonFlood       = engine.ReasonFlood

	PeriodTotal = countstore.PeriodTotal
	PeriodDay   = countstore.PeriodDay
	PeriodHour  = countstore.PeriodHour
)
