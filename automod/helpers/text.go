package helpers

import (
	"fmt"
	"regexp"

	"github.com/spaolacci/murmur3"
)

func DedupeStrings(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range in {
		if !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}
	return out
}

// returns a fast, compact hash of a string
//
// current implementation uses murmur3, default seed, and hex encoding
func HashOfString(s string) string {
	val := murmur3.Sum64([]byte(s))
	return fmt.Sprintf("%016x", val)
}

// same as HashOfString, for raw bytes (eg, downloaded images)
func HashOfBytes(b []byte) string {
	val := murmur3.Sum64(b)
	return fmt.Sprintf("%016x", val)
}

var (
	linkRegexes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://[^\s]+`),
		regexp.MustCompile(`(?i)\b(?:t|telegram)\.me/[a-z0-9_+/]+`),
		regexp.MustCompile(`(?i)\bwa\.me/[0-9]+`),
		regexp.MustCompile(`(?i)\bjoinchat/[a-z0-9_\-]+`),
	}
	phoneRegexes = []*regexp.Regexp{
		regexp.MustCompile(`(\+7|\b8)[\s\-\(]*\d{3}[\s\-\)]*\d{3}[\s\-]*\d{2}[\s\-]*\d{2}\b`),
		regexp.MustCompile(`\+\d{1,3}[\s\-]?\(?\d{3}\)?[\s\-]?\d{3}[\s\-]?\d{2}[\s\-]?\d{2}\b`),
	}
)

// Extracts explicit links: URLs with a scheme, and messenger invite/contact links (which are commonly posted without a scheme). Bare domain names are not extracted.
func ExtractTextLinks(raw string) []string {
	var out []string
	for _, re := range linkRegexes {
		out = append(out, re.FindAllString(raw, -1)...)
	}
	return DedupeStrings(out)
}

// Extracts phone numbers in common Russian and international formats.
func ExtractPhoneNumbers(raw string) []string {
	var out []string
	for _, re := range phoneRegexes {
		out = append(out, re.FindAllString(raw, -1)...)
	}
	return DedupeStrings(out)
}
