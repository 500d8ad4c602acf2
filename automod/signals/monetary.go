package signals

import (
	"regexp"

	"github.com/chatguard/chatguard/automod/keyword"
)

// An amount (two or more digits, optional decimal part) immediately followed, with at most one space, by a currency unit. The amount must not be glued to a preceding digit or letter, and a letter unit must end at a word edge, so "2500 рабочих" or "руб" inside "рубашка" do not count.
var moneyRegex = regexp.MustCompile(`(?:^|[^\pL\pN])([0-9]{2,7}(?:[.,][0-9]{1,2})?\s?(?:₽|\$|€|£|₴|₸|руб(?:лей|ля|ль|\.)?|р\.|usd|eur|евро|доллар(?:ов|а)?|долл\.?|бакс(?:ов|а)?|грн|гривен|тенге|dollars?|bucks|euros?))(?:[^\pL\pN]|$)`)

// MoneyDetector reports messages which quote a price or an amount of money.
type MoneyDetector struct {
	re *regexp.Regexp
}

func NewMoneyDetector() *MoneyDetector {
	return &MoneyDetector{re: moneyRegex}
}

// Match returns the matched amount including its unit, or empty string.
func (d *MoneyDetector) Match(text string) string {
	if d == nil || text == "" {
		return ""
	}
	m := d.re.FindStringSubmatch(keyword.Normalize(text))
	if m == nil {
		return ""
	}
	return m[1]
}

func (d *MoneyDetector) Matches(text string) bool {
	return d.Match(text) != ""
}
