package signals

import (
	"strings"

	"github.com/chatguard/chatguard/automod/helpers"
	"github.com/chatguard/chatguard/automod/keyword"
)

// DefaultAdPhrases are substrings which indicate solicitation or advertising in group chats.
var DefaultAdPhrases = []string{
	"пиши в лс",
	"пишите в лс",
	"напиши в лс",
	"в личку",
	"в личные сообщения",
	"пишите в личку",
	"заработ",
	"подработ",
	"пассивный доход",
	"доход от",
	"работа на дому",
	"удаленная работа",
	"набираю людей",
	"набираем людей",
	"ищу партнеров",
	"скидк",
	"дешев",
	"подписывайтесь",
	"подпишись",
	"переходи по ссылке",
	"ссылка в профиле",
	"ставки на спорт",
	"казино",
	"earn money",
	"work from home",
	"dm me",
	"write me in private",
	"joinchat",
}

// AdDetector matches advertising phrases by literal containment, and explicit links or phone numbers when enabled.
type AdDetector struct {
	phrases []string
	// treat links (URLs, messenger invite links) as advertising
	Links bool
	// treat phone numbers as advertising
	Phones bool
}

func NewAdDetector(phrases []string) *AdDetector {
	norm := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if n := keyword.Normalize(strings.TrimSpace(p)); n != "" {
			norm = append(norm, n)
		}
	}
	return &AdDetector{
		phrases: helpers.DedupeStrings(norm),
		Links:   true,
		Phones:  true,
	}
}

// Match returns a short description of the first advertising signal found, or empty string.
func (d *AdDetector) Match(text string) string {
	if d == nil || text == "" {
		return ""
	}
	norm := keyword.Normalize(text)
	for _, p := range d.phrases {
		if strings.Contains(norm, p) {
			return p
		}
	}
	if d.Links {
		if links := helpers.ExtractTextLinks(norm); len(links) > 0 {
			return "link:" + links[0]
		}
	}
	if d.Phones {
		if phones := helpers.ExtractPhoneNumbers(norm); len(phones) > 0 {
			return "phone:" + phones[0]
		}
	}
	return ""
}

func (d *AdDetector) Matches(text string) bool {
	return d.Match(text) != ""
}

func (d *AdDetector) Phrases() []string {
	return d.phrases
}
