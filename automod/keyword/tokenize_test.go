package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		text string
		out  string
	}{
		{text: "", out: ""},
		{text: "ПРИВЕТ", out: "привет"},
		{text: "Ёлка", out: "елка"},
		{text: "Gdańsk", out: "gdansk"},
		{text: "ра\u200bбо\u200cта", out: "работа"},
		{text: "с\u00adу\u2060ка", out: "сука"},
		{text: "bad\xffbyte", out: "bad\ufffdbyte"},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, Normalize(fix.text), fix.text)
	}
}

func TestTokenizeText(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		text string
		out  []string
	}{
		{text: "", out: []string{}},
		{text: "Hello, โลก!", out: []string{"hello", "โลก"}},
		{text: "Gdańsk", out: []string{"gdansk"}},
		{text: "Спасибо, очень КРУТО!", out: []string{"спасибо", "очень", "круто"}},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, TokenizeText(fix.text))
	}
}

func TestSlugify(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("пишивлс", Slugify("Пиши в ЛС!"))
	assert.Equal("promo2024jpg", Slugify("promo_2024.JPG"))
	assert.Equal("", Slugify("..."))
}
