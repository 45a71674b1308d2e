package common

import "strings"

// MatchKeywords returns the keywords found as substrings of text, in keyword order.
// Matching is case-sensitive; callers lower-case text when they need otherwise.
func MatchKeywords(text string, keywords []string) []string {
	var found []string
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			found = append(found, kw)
		}
	}
	return found
}

// ContainsAny reports whether text contains at least one of the keywords.
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
