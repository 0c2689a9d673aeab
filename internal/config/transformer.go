package config

import (
	"strings"
	"unicode"
)

// ToSlug converts a team name to the lowercase dash-case used for file names.
//
// Examples:
//   - "Accounting" → "accounting"
//   - "Bank Feeds Team" → "bank-feeds-team"
//   - "payroll_ops" → "payroll-ops"
//   - "CustomerSuccess" → "customer-success"
func ToSlug(s string) string {
	words := splitWords(s)
	for i, word := range words {
		words[i] = strings.ToLower(word)
	}
	return strings.Join(words, "-")
}

// splitWords splits a string into words based on separators and case changes.
// Characters other than letters and digits act as separators.
func splitWords(s string) []string {
	var words []string
	var current strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		case unicode.IsUpper(r):
			// lowercase → uppercase transition starts a word
			if i > 0 && current.Len() > 0 && unicode.IsLower(runes[i-1]) {
				words = append(words, current.String())
				current.Reset()
			}
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		words = append(words, current.String())
	}
	return words
}
