package learning

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/supportinsights/support-insights/internal/model"
)

const (
	// DefaultTopK is the number of keywords suggested per category.
	DefaultTopK = 5

	// maxExampleSignals caps example signal IDs on a suggestion.
	maxExampleSignals = 5
)

// SuggestKeywords proposes keywords for category from signals the analyst
// filed under it but the engine did not predict as it.
//
// Frequency is the number of sample signals containing the token, so a word
// repeated inside one signal counts once. Tokens the category already lists
// are excluded. The second return value is false when there is no sample or
// no candidate token.
func SuggestKeywords(
	history []model.CategorizationFeedback,
	signals []model.SupportSignal,
	category model.CategoryConfiguration,
	topK int,
) (model.KeywordSuggestion, bool) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	byID := make(map[string]model.SupportSignal, len(signals))
	for _, s := range signals {
		byID[s.ID] = s
	}

	var sample []model.SupportSignal
	seen := make(map[string]struct{})
	for _, fb := range history {
		if fb.ActualCategory != category.Name || fb.Predicted() == category.Name {
			continue
		}
		if _, dup := seen[fb.SignalID]; dup {
			continue
		}
		s, ok := byID[fb.SignalID]
		if !ok {
			continue
		}
		seen[fb.SignalID] = struct{}{}
		sample = append(sample, s)
	}
	if len(sample) == 0 {
		return model.KeywordSuggestion{}, false
	}

	existing := make(map[string]struct{})
	for _, kw := range category.Keywords {
		existing[strings.ToLower(strings.TrimSpace(kw))] = struct{}{}
	}

	freq := make(map[string]int)
	for _, s := range sample {
		for tok := range TokenSet(s.Text()) {
			if _, known := existing[tok]; known {
				continue
			}
			freq[tok]++
		}
	}
	if len(freq) == 0 {
		return model.KeywordSuggestion{}, false
	}

	tokens := make([]string, 0, len(freq))
	for tok := range freq {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if freq[tokens[i]] != freq[tokens[j]] {
			return freq[tokens[i]] > freq[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})
	if len(tokens) > topK {
		tokens = tokens[:topK]
	}

	size := float64(len(sample))
	suggestion := model.KeywordSuggestion{
		CategoryName:      category.Name,
		SuggestedKeywords: tokens,
		Candidates:        make([]model.KeywordCandidate, 0, len(tokens)),
	}
	for _, tok := range tokens {
		suggestion.Candidates = append(suggestion.Candidates, model.KeywordCandidate{
			Keyword:    tok,
			Frequency:  freq[tok],
			Confidence: math.Min(float64(freq[tok])/size, 1.0),
		})
	}
	suggestion.Confidence = suggestion.Candidates[0].Confidence

	for i := 0; i < len(sample) && i < maxExampleSignals; i++ {
		suggestion.ExampleSignalIDs = append(suggestion.ExampleSignalIDs, sample[i].ID)
	}

	suggestion.Reasoning = fmt.Sprintf(
		"%q appears in %d of %d signals filed under %s that were not predicted as %s",
		tokens[0], freq[tokens[0]], len(sample), category.Name, category.Name,
	)
	return suggestion, true
}
