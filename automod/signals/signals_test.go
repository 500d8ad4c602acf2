package signals

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdDetector(t *testing.T) {
	assert := assert.New(t)

	d := NewAdDetector(DefaultAdPhrases)

	fixtures := []struct {
		text string
		out  string
	}{
		{text: "", out: ""},
		{text: "Привет всем, как дела?", out: ""},
		{text: "Пиши в ЛС, расскажу", out: "пиши в лс"},
		{text: "ра\u200bбо\u200bта, пиши в лс +7900...", out: "пиши в лс"},
		{text: "Лёгкий ЗАРАБОТОК без вложений", out: "заработ"},
		{text: "огромные скидки только сегодня", out: "скидк"},
		{text: "очень дёшево отдам", out: "дешев"},
		{text: "смотри https://example.com/x", out: "link:https://example.com/x"},
		{text: "канал t.me/some_channel", out: "link:t.me/some_channel"},
		{text: "звони 8 900 123 45 67", out: "phone:8 900 123 45 67"},
		{text: "в 18:00 у входа", out: ""},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, d.Match(fix.text), fix.text)
		assert.Equal(fix.out != "", d.Matches(fix.text), fix.text)
	}

	d.Links = false
	d.Phones = false
	assert.False(d.Matches("смотри https://example.com/x"))
	assert.False(d.Matches("звони 8 900 123 45 67"))

	var nilDetector *AdDetector
	assert.False(nilDetector.Matches("пиши в лс"))
}

func TestNewAdDetectorNormalizesPhrases(t *testing.T) {
	assert := assert.New(t)

	d := NewAdDetector([]string{"  Пиши В ЛС ", "пиши в лс", "", "Дёшево"})
	assert.Equal([]string{"пиши в лс", "дешево"}, d.Phrases())
	assert.True(d.Matches("ДЕШЁВО!"))
}

func TestMoneyDetector(t *testing.T) {
	assert := assert.New(t)

	d := NewMoneyDetector()

	fixtures := []struct {
		text string
		out  string
	}{
		{text: "", out: ""},
		{text: "всего 150₽", out: "150₽"},
		{text: "цена 2500 руб", out: "2500 руб"},
		{text: "цена 2500 руб.", out: "2500 руб."},
		{text: "отдам за 3000 рублей", out: "3000 рублей"},
		{text: "стоит 99,99€", out: "99,99€"},
		{text: "за 100$ в день", out: "100$"},
		{text: "Earn 500 USD weekly", out: "500 usd"},
		{text: "200 баксов", out: "200 баксов"},
		{text: "цена:1200р. торг", out: "1200р."},
		{text: "в 2500 рабочих днях", out: ""},
		{text: "купил 20 рубашек", out: ""},
		{text: "встреча в 10 часов", out: ""},
		{text: "всего 5$", out: ""},
		{text: "код a150₽", out: ""},
		{text: "100 usdt", out: ""},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, d.Match(fix.text), fix.text)
		assert.Equal(fix.out != "", d.Matches(fix.text), fix.text)
	}
}

func TestCountEmoji(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0, CountEmoji(""))
	assert.Equal(0, CountEmoji("просто текст"))
	assert.Equal(3, CountEmoji("привет 😀 как 🎉 дела ☀"))
	assert.Equal(2, CountEmoji("👍 ok 👍"))
	// variation selector belongs to the preceding character
	assert.Equal(1, CountEmoji("❤\ufe0f"))
}

func TestSpamDetector(t *testing.T) {
	assert := assert.New(t)

	d := DefaultSpamDetector()

	nine := "😀😁😂🤣😃😄😅😆😉"
	ten := nine + "😊"
	assert.Equal(9, CountEmoji(nine))
	assert.Equal("", d.Match(nine))
	assert.Equal("emoji", d.Match(ten))
	assert.Equal("emoji", d.Match("акция! "+ten+" заходи"))

	assert.Equal("repeat", d.Match("Ааааа"))
	assert.Equal("repeat", d.Match("ну!!!!!"))
	assert.Equal("", d.Match("аааа"))
	assert.Equal("", d.Match("телефон 100000000"))
	assert.Equal("", d.Match("отступ          конец"))
	assert.Equal("", d.Match("Привет всем, как дела?"))

	off := SpamDetector{}
	assert.False(off.Matches(ten))
	assert.False(off.Matches("ааааааааа"))
}

func TestLongestRun(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0, LongestRun(""))
	assert.Equal(1, LongestRun("abc"))
	assert.Equal(3, LongestRun("abbbc"))
	assert.Equal(2, LongestRun("aa 11111 aa"))
	assert.Equal(6, LongestRun(strings.Repeat("я", 6)))
}
