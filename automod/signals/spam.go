package signals

import (
	"unicode"

	"github.com/rivo/uniseg"

	"github.com/chatguard/chatguard/automod/keyword"
)

const (
	DefaultEmojiThreshold  = 10
	DefaultRepeatThreshold = 5
)

// SpamDetector flags messages stuffed with emoji, or with a single character repeated many times in a row.
type SpamDetector struct {
	// a message with at least this many emoji is spam; zero disables the check
	EmojiThreshold int
	// a run of at least this many identical characters is spam; zero disables the check
	RepeatThreshold int
}

func DefaultSpamDetector() SpamDetector {
	return SpamDetector{
		EmojiThreshold:  DefaultEmojiThreshold,
		RepeatThreshold: DefaultRepeatThreshold,
	}
}

// Match returns "emoji" or "repeat" depending on which check tripped, or empty string.
func (d SpamDetector) Match(text string) string {
	if text == "" {
		return ""
	}
	if d.EmojiThreshold > 0 && CountEmoji(text) >= d.EmojiThreshold {
		return "emoji"
	}
	if d.RepeatThreshold > 0 && LongestRun(keyword.Normalize(text)) >= d.RepeatThreshold {
		return "repeat"
	}
	return ""
}

func (d SpamDetector) Matches(text string) bool {
	return d.Match(text) != ""
}

func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF:
		// mahjong and cards, enclosed alphanumerics and flags, pictographs, emoticons, transport, extended pictographs
		return true
	case r >= 0x2600 && r <= 0x27BF:
		// misc symbols and dingbats
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		return r == 0x2B50 || r == 0x2B55 || (r >= 0x2B05 && r <= 0x2B07) || (r >= 0x2B1B && r <= 0x2B1C)
	case r == 0x231A || r == 0x231B || r == 0x23F0 || r == 0x23F3 || (r >= 0x23E9 && r <= 0x23EC):
		return true
	}
	return false
}

// CountEmoji counts emoji as user-perceived characters: a multi-codepoint sequence such as a ZWJ family counts once.
func CountEmoji(text string) int {
	n := 0
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		for _, r := range gr.Runes() {
			if isEmojiRune(r) {
				n++
				break
			}
		}
	}
	return n
}

// LongestRun returns the length of the longest run of a single repeated character. Whitespace and digits are ignored, so long numbers and indentation do not count.
func LongestRun(text string) int {
	best, cur := 0, 0
	var prev rune = -1
	for _, r := range text {
		if unicode.IsSpace(r) || unicode.IsDigit(r) {
			prev, cur = -1, 0
			continue
		}
		if r == prev {
			cur++
		} else {
			prev, cur = r, 1
		}
		if cur > best {
			best = cur
		}
	}
	return best
}
