/*
Package learning derives categorization quality signals from the feedback ledger.

Every function here is a pure query over a ledger snapshot, the team's
configuration and (where needed) the signals the feedback refers to. Nothing
is cached between calls; recomputing after an append reflects the new entry.

  - Accuracy: overall and per actual category
  - Misclassifications: (predicted, actual) pairs ranked by count
  - SuggestKeywords: frequent tokens in signals routed away from a category
  - EffectivenessHistory / Trend: is a category getting better or worse
  - SimilarTeams / BootstrapNewTeam: seed a new team from the closest existing one
*/
package learning

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// minTokenLength is the shortest token kept by Tokenize.
const minTokenLength = 3

// stopWords are dropped by Tokenize. Besides common English function words it
// carries support-desk filler that shows up in nearly every signal.
var stopWords = map[string]struct{}{
	"about": {}, "after": {}, "again": {}, "all": {}, "also": {}, "and": {},
	"any": {}, "are": {}, "been": {}, "before": {}, "being": {}, "but": {},
	"can": {}, "cannot": {}, "could": {}, "did": {}, "does": {}, "doing": {},
	"for": {}, "from": {}, "get": {}, "got": {}, "had": {}, "has": {},
	"have": {}, "here": {}, "how": {}, "into": {}, "its": {}, "just": {},
	"more": {}, "most": {}, "not": {}, "now": {}, "only": {}, "our": {},
	"out": {}, "over": {}, "some": {}, "than": {}, "that": {}, "the": {},
	"their": {}, "them": {}, "then": {}, "there": {}, "they": {}, "this": {},
	"too": {}, "under": {}, "very": {}, "was": {}, "were": {}, "what": {},
	"when": {}, "where": {}, "which": {}, "who": {}, "why": {}, "will": {},
	"with": {}, "would": {}, "you": {}, "your": {},
	"customer": {}, "customers": {}, "issue": {}, "issues": {}, "please": {},
	"problem": {}, "problems": {}, "user": {}, "users": {}, "help": {},
}

// IsStopWord reports whether token is in the fixed stop-word set.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// Tokenize lowercases text, splits on anything that is not a letter or digit
// and drops short tokens and stop words. Order and duplicates are preserved.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minTokenLength || IsStopWord(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// TokenSet returns the distinct tokens of all texts.
func TokenSet(texts ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, text := range texts {
		for _, tok := range Tokenize(text) {
			set[tok] = struct{}{}
		}
	}
	return set
}

// sortedKeys returns the set members in lexicographic order.
func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
