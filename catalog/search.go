package catalog

import "strings"

// Tokenize lower-cases query and splits it on whitespace.
func Tokenize(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// MatchAll reports whether every token is a substring of at least one
// field. Fields are compared lower-cased; tokens must already be.
func MatchAll(tokens []string, fields ...string) bool {
	lowered := make([]string, len(fields))
	for i, f := range fields {
		lowered[i] = strings.ToLower(f)
	}
	for _, tok := range tokens {
		found := false
		for _, f := range lowered {
			if strings.Contains(f, tok) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
