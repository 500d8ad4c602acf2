// Auto-moderation rules engine for group chats.
//
// This package (`github.com/chatguard/chatguard/automod`) contains a "rules engine" which decides, for every inbound chat message, whether to allow it, delete it, or ban the sender. Messages are checked against an obfuscation-tolerant profanity lexicon, advertising and monetary solicitation detectors, emoji and character-repetition spam heuristics, and a per-user sliding-window flood tracker. Rules run in priority order and the first decision wins. Side effects (deletions, bans, reputation grants) are de-duplicated per message, so redelivered messages are never actioned twice.
//
// Counters, sets, caches and flags live behind small store interfaces (see the `*store` sub-packages), with in-process and redis or SQL implementations.
//
// See `cmd/chatguard` for a daemon built on this package.
package automod
