package keyword

import "slices"

// Helper to check a single token against a list of tokens
func TokenInSet(tok string, set []string) bool {
	return slices.Contains(set, tok)
}

// Returns the first token which is also found in set, or empty string.
func FirstTokenInSet(tokens []string, set map[string]bool) string {
	for _, tok := range tokens {
		if set[tok] {
			return tok
		}
	}
	return ""
}
