package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariants(t *testing.T) {
	assert := assert.New(t)

	assert.Equal([]string{"abc", "a b c", "a-b-c", "a_b_c"}, Variants("abc"))
	assert.Equal([]string{"сука", "с у к а", "с-у-к-а", "с_у_к_а"}, Variants("сука"))
}

func TestNewLexicon(t *testing.T) {
	assert := assert.New(t)

	lex := NewLexicon([]string{"Сука", "", "  ", "сука", "МРАЗЬ", "хуё", "хуе"})
	assert.Equal([]string{"сука", "мразь", "хуе"}, lex.Bases())
	assert.True(lex.Contains("СУКА"))
	assert.False(lex.Contains("привет"))
	for _, e := range lex {
		assert.Equal(4, len(e.Variants))
		assert.Equal(e.Base, e.Variants[0])
	}

	assert.Equal(len(DefaultBadWords), len(NewLexicon(DefaultBadWords)))
}
