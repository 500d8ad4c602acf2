package keyword

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	DefaultFillerBound = 3
	maxFillerBound     = 32
)

// Options control how lexicon variants are compiled.
type Options struct {
	// Maximum number of non-alphanumeric characters tolerated between two consecutive letters of a word. Zero requires the letters to be adjacent.
	FillerBound int
}

func DefaultOptions() Options {
	return Options{FillerBound: DefaultFillerBound}
}

// Pattern is a compiled regular expression for a single lexicon variant.
type Pattern struct {
	Base    string
	Variant string
	re      *regexp.Regexp
}

func (p *Pattern) String() string {
	return p.re.String()
}

// Matcher finds lexicon words in arbitrary text, tolerating obfuscation with punctuation, spacing, symbols and invisible characters between letters. A Matcher is immutable after construction and safe for concurrent use.
type Matcher struct {
	patterns []Pattern
	opts     Options
}

const fillerClass = `[^\pL\pN]`

// Builds the regex source for a variant: letters and digits are matched literally, and each gap between them tolerates at most `bound` filler (non-letter, non-digit) characters in total. Separators spelled out in the variant count against the bound, but are always accepted on their own, so a zero bound still matches the variant exactly as written.
func variantExpr(variant string, bound int) string {
	var sb strings.Builder
	sb.WriteString("(?i)")
	gap := []rune{}
	started := false
	for _, r := range variant {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			gap = append(gap, r)
			continue
		}
		if started {
			sb.WriteString(gapExpr(string(gap), len(gap), bound))
		} else {
			// leading separators are kept literally
			sb.WriteString(regexp.QuoteMeta(string(gap)))
		}
		gap = gap[:0]
		started = true
		sb.WriteString(regexp.QuoteMeta(string(r)))
	}
	sb.WriteString(regexp.QuoteMeta(string(gap)))
	return sb.String()
}

func gapExpr(sep string, n, bound int) string {
	switch {
	case n == 0 && bound == 0:
		return ""
	case n == 0:
		return fmt.Sprintf("%s{0,%d}", fillerClass, bound)
	case n >= bound:
		return regexp.QuoteMeta(sep)
	}
	q := regexp.QuoteMeta(sep)
	extra := fmt.Sprintf("%s{0,%d}", fillerClass, bound-n)
	return "(?:" + q + extra + "|" + extra + q + ")"
}

// Compile builds a Matcher from a lexicon. Patterns are evaluated in lexicon order, and in variant order within an entry.
func Compile(lex Lexicon, opts Options) (*Matcher, error) {
	if opts.FillerBound < 0 || opts.FillerBound > maxFillerBound {
		return nil, fmt.Errorf("filler bound out of range [0, %d]: %d", maxFillerBound, opts.FillerBound)
	}
	m := Matcher{
		patterns: []Pattern{},
		opts:     opts,
	}
	for _, e := range lex {
		for _, v := range e.Variants {
			re, err := regexp.Compile(variantExpr(v, opts.FillerBound))
			if err != nil {
				return nil, fmt.Errorf("compiling lexicon variant %q: %w", v, err)
			}
			m.patterns = append(m.patterns, Pattern{Base: e.Base, Variant: v, re: re})
		}
	}
	return &m, nil
}

// MustCompile is like Compile but panics on error. Intended for package-level defaults.
func MustCompile(lex Lexicon, opts Options) *Matcher {
	m, err := Compile(lex, opts)
	if err != nil {
		panic(err)
	}
	return m
}

// Match returns the base word of the first pattern found in text, or empty string. Text is normalized before matching.
func (m *Matcher) Match(text string) string {
	if m == nil || text == "" {
		return ""
	}
	norm := Normalize(text)
	for i := range m.patterns {
		if m.patterns[i].re.MatchString(norm) {
			return m.patterns[i].Base
		}
	}
	return ""
}

func (m *Matcher) Matches(text string) bool {
	return m.Match(text) != ""
}

// Number of compiled patterns.
func (m *Matcher) Len() int {
	return len(m.patterns)
}

func (m *Matcher) Options() Options {
	return m.opts
}
