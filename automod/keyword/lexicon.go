package keyword

import (
	"slices"
	"strings"
)

// DefaultBadWords is the built-in profanity lexicon. Entries are roots: a root matches anywhere inside a longer word.
var DefaultBadWords = []string{
	"бляд",
	"блят",
	"хуй",
	"хуе",
	"пизд",
	"ебат",
	"ебан",
	"ебал",
	"ебло",
	"еблан",
	"заеб",
	"уебок",
	"уебищ",
	"сука",
	"суки",
	"мудак",
	"мудил",
	"пидор",
	"пидар",
	"гандон",
	"шлюха",
	"шлюхи",
	"залуп",
	"долбаеб",
	"долбоеб",
	"мразь",
	"fuck",
	"bitch",
	"cunt",
	"whore",
}

// Entry is one lexicon word together with its spelling variants.
type Entry struct {
	Base     string
	Variants []string
}

// Variants expands a base word into the spellings a user might type to break up a word: the word itself, and its letters joined by spaces, hyphens, or underscores.
func Variants(base string) []string {
	letters := strings.Split(base, "")
	return []string{
		base,
		strings.Join(letters, " "),
		strings.Join(letters, "-"),
		strings.Join(letters, "_"),
	}
}

// NewEntry normalizes a base word and expands its variants.
func NewEntry(base string) Entry {
	norm := Normalize(strings.TrimSpace(base))
	return Entry{
		Base:     norm,
		Variants: Variants(norm),
	}
}

// Lexicon is an ordered list of entries. Order is significant: the first entry with a matching variant is reported.
type Lexicon []Entry

// NewLexicon builds a lexicon from base words, skipping blank and duplicate words (after normalization). Input order is preserved.
func NewLexicon(words []string) Lexicon {
	seen := make(map[string]bool, len(words))
	lex := make(Lexicon, 0, len(words))
	for _, w := range words {
		e := NewEntry(w)
		if e.Base == "" || seen[e.Base] {
			continue
		}
		seen[e.Base] = true
		lex = append(lex, e)
	}
	return lex
}

// Bases returns the base words, in order.
func (lex Lexicon) Bases() []string {
	out := make([]string, 0, len(lex))
	for _, e := range lex {
		out = append(out, e.Base)
	}
	return out
}

// Contains reports whether a (normalized) base word is present.
func (lex Lexicon) Contains(base string) bool {
	return slices.ContainsFunc(lex, func(e Entry) bool { return e.Base == Normalize(base) })
}
