package keyword

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcherObfuscation(t *testing.T) {
	assert := assert.New(t)

	m, err := Compile(NewLexicon([]string{"сука", "fuck"}), DefaultOptions())
	assert.NoError(err)
	assert.Equal(8, m.Len())

	fixtures := []struct {
		text string
		base string
	}{
		{text: "", base: ""},
		{text: "сука", base: "сука"},
		{text: "СУКА", base: "сука"},
		{text: "ну ты и сучара", base: ""},
		{text: "ах ты сукааа", base: "сука"},
		{text: "с у к а", base: "сука"},
		{text: "с-у-к-а", base: "сука"},
		{text: "с_у_к_а", base: "сука"},
		{text: "с.у.к.а", base: "сука"},
		{text: "с*у*к*а!!!", base: "сука"},
		{text: "с..у..к..а", base: "сука"},
		{text: "с...у...к...а", base: "сука"},
		{text: "с....у....к....а", base: ""},
		{text: "с\u200bу\u200bк\u200bа", base: "сука"},
		{text: "с\u00adука", base: "сука"},
		{text: "акус", base: ""},
		{text: "куса", base: ""},
		{text: "F.U.C.K", base: "fuck"},
		{text: "what the f u c k", base: "fuck"},
		{text: "спасибо, очень круто!", base: ""},
		{text: "s.u.k.a", base: ""},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.base, m.Match(fix.text), fix.text)
		assert.Equal(fix.base != "", m.Matches(fix.text), fix.text)
	}
}

func TestMatcherZeroFiller(t *testing.T) {
	assert := assert.New(t)

	m, err := Compile(NewLexicon([]string{"сука"}), Options{FillerBound: 0})
	assert.NoError(err)

	// literal variants still apply
	assert.True(m.Matches("с у к а"))
	assert.True(m.Matches("с-у-к-а"))
	assert.True(m.Matches("сука"))
	assert.False(m.Matches("с.у.к.а"))
	assert.False(m.Matches("с  у  к  а"))
}

func TestMatcherSeparatorWithinBound(t *testing.T) {
	assert := assert.New(t)

	m := MustCompile(NewLexicon([]string{"fuck"}), Options{FillerBound: 3})

	fixtures := []struct {
		text  string
		match bool
	}{
		{text: "f-u-c-k", match: true},
		{text: "f - u - c - k", match: true},
		{text: "f_-_u_-_c_-_k", match: true},
		{text: "f!!!u!!!c!!!k", match: true},
		{text: "f---u---c---k", match: true},
		{text: "f----u----c----k", match: false},
		{text: "f-------u-------c-------k", match: false},
		{text: "f       u       c       k", match: false},
		{text: "f_______u_______c_______k", match: false},
		{text: "f!!!!u!!!!c!!!!k", match: false},
		{text: "f  !!u  !!c  !!k", match: false},
	}
	for _, fix := range fixtures {
		assert.Equal(fix.match, m.Matches(fix.text), fix.text)
	}
}

func interleave(word, filler string) string {
	return strings.Join(strings.Split(word, ""), filler)
}

func reverse(word string) string {
	r := []rune(word)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func rotate(word string) string {
	r := []rune(word)
	return string(append(r[1:], r[0]))
}

func TestMatcherDefaultLexicon(t *testing.T) {
	assert := assert.New(t)

	full := MustCompile(NewLexicon(DefaultBadWords), DefaultOptions())
	for _, bound := range []int{0, 1, DefaultFillerBound, 5} {
		for _, word := range DefaultBadWords {
			e := NewEntry(word)
			m := MustCompile(Lexicon{e}, Options{FillerBound: bound})

			for _, v := range Variants(e.Base) {
				assert.Equal(e.Base, m.Match(v), "bound=%d variant %q", bound, v)
				assert.Equal(e.Base, m.Match("ну "+v+"!"), "bound=%d variant %q in a sentence", bound, v)
				if bound == DefaultFillerBound {
					assert.True(full.Matches(v), "default lexicon, variant %q", v)
				}
			}

			if bound > 0 {
				within := interleave(e.Base, strings.Repeat("!", bound))
				assert.Equal(e.Base, m.Match(within), "bound=%d %q", bound, within)
				mixed := interleave(e.Base, " "+strings.Repeat("*", bound-1))
				assert.Equal(e.Base, m.Match(mixed), "bound=%d %q", bound, mixed)
			}
			over := interleave(e.Base, strings.Repeat("!", bound+1))
			assert.Equal("", m.Match(over), "bound=%d %q", bound, over)
			if bound > 0 {
				// a lone separator is always accepted, so only longer runs can exceed the bound
				overSpaced := interleave(e.Base, "-"+strings.Repeat("!", bound))
				assert.Equal("", m.Match(overSpaced), "bound=%d %q", bound, overSpaced)
			}

			if rev := reverse(e.Base); rev != e.Base {
				assert.Equal("", m.Match(rev), "bound=%d reversed %q", bound, rev)
			}
			if rot := rotate(e.Base); rot != e.Base {
				assert.Equal("", m.Match(rot), "bound=%d shuffled %q", bound, rot)
			}
		}
	}
}

func TestMatcherOrder(t *testing.T) {
	assert := assert.New(t)

	m := MustCompile(NewLexicon([]string{"сука", "мразь"}), DefaultOptions())
	assert.Equal("сука", m.Match("мразь и сука"))

	m = MustCompile(NewLexicon([]string{"мразь", "сука"}), DefaultOptions())
	assert.Equal("мразь", m.Match("мразь и сука"))
}

func TestMatcherFolding(t *testing.T) {
	assert := assert.New(t)

	m := MustCompile(NewLexicon(DefaultBadWords), DefaultOptions())
	assert.Equal("хуи", m.Match("ХУЙНЯ какая-то"))
	assert.Equal("долбаеб", m.Match("ну ты долбаёб"))
	assert.Equal("", m.Match("заплатил два рубля за корабль"))
	assert.Equal("", m.Match("Привет всем, как дела?"))

	var nilMatcher *Matcher
	assert.Equal("", nilMatcher.Match("сука"))
}

func TestCompileBounds(t *testing.T) {
	assert := assert.New(t)

	_, err := Compile(NewLexicon([]string{"a"}), Options{FillerBound: -1})
	assert.Error(err)
	_, err = Compile(NewLexicon([]string{"a"}), Options{FillerBound: 1000})
	assert.Error(err)

	m, err := Compile(Lexicon{}, DefaultOptions())
	assert.NoError(err)
	assert.False(m.Matches("anything"))
}
