package keyword

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonTokenChars = regexp.MustCompile(`[^\pL\pN\s]+`)
	nonSlugChars  = regexp.MustCompile(`[^\pL\pN]+`)
)

// newFolder returns a fresh transformer chain. Transformers carry state, so a chain must not be shared between goroutines.
func newFolder() transform.Transformer {
	return transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.In(unicode.Cf)),
		norm.NFC,
	)
}

// Normalize canonicalizes free-form chat text before any matching: invalid UTF-8 is replaced, invisible format characters (zero-width spaces and joiners, soft hyphens, direction marks) are dropped, combining marks are folded away, and the result is lower-cased.
//
// Folding is lossy on purpose for Cyrillic as well: "ё" becomes "е" and "й" becomes "и". Everything compared against normalized text must itself be passed through Normalize.
func Normalize(text string) string {
	clean := strings.ToValidUTF8(text, "\ufffd")
	out, _, err := transform.String(newFolder(), clean)
	if err != nil {
		slog.Warn("unicode normalization error", "err", err)
		out = clean
	}
	return strings.ToLower(out)
}

// Splits free-form text in to tokens, including lower-case, unicode normalization, and some unicode folding.
func TokenizeText(text string) []string {
	split := nonTokenChars.ReplaceAllString(Normalize(text), " ")
	return strings.Fields(split)
}

// Takes an arbitrary string and returns a version with all non-letter, non-digit characters removed, folded and lower-cased.
func Slugify(orig string) string {
	return nonSlugChars.ReplaceAllString(Normalize(orig), "")
}
