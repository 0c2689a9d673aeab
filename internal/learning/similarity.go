package learning

import (
	"math"
	"sort"

	"github.com/supportinsights/support-insights/internal/model"
)

// TeamKeywordSet returns the tokenized union of every category keyword of cfg.
func TeamKeywordSet(cfg model.TeamConfiguration) map[string]struct{} {
	set := make(map[string]struct{})
	for _, cat := range cfg.Categories {
		for _, kw := range cat.Keywords {
			for _, tok := range Tokenize(kw) {
				set[tok] = struct{}{}
			}
		}
	}
	return set
}

// Jaccard returns |a ∩ b| / |a ∪ b| and the shared members, sorted.
// Two empty sets have similarity 0.
func Jaccard(a, b map[string]struct{}) (float64, []string) {
	if len(a) == 0 || len(b) == 0 {
		return 0, nil
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	shared := make(map[string]struct{})
	for k := range small {
		if _, ok := large[k]; ok {
			shared[k] = struct{}{}
		}
	}
	union := len(a) + len(b) - len(shared)
	return math.Min(float64(len(shared))/float64(union), 1.0), sortedKeys(shared)
}

// SimilarTeams ranks existing teams by Jaccard similarity between the
// candidate signals' token set and each team's keyword token set. Teams with
// zero similarity are left out. Ties are broken by team name; topN <= 0
// returns every similar team.
func SimilarTeams(signals []model.SupportSignal, configs []model.TeamConfiguration, topN int) []model.SimilarTeam {
	texts := make([]string, 0, len(signals))
	for _, s := range signals {
		texts = append(texts, s.Text())
	}
	candidate := TokenSet(texts...)

	var similar []model.SimilarTeam
	for _, cfg := range configs {
		score, shared := Jaccard(candidate, TeamKeywordSet(cfg))
		if score <= 0 {
			continue
		}
		similar = append(similar, model.SimilarTeam{
			TeamName:        cfg.TeamName,
			SimilarityScore: score,
			SharedKeywords:  shared,
		})
	}

	sort.Slice(similar, func(i, j int) bool {
		if similar[i].SimilarityScore != similar[j].SimilarityScore {
			return similar[i].SimilarityScore > similar[j].SimilarityScore
		}
		return similar[i].TeamName < similar[j].TeamName
	})
	if topN > 0 && len(similar) > topN {
		similar = similar[:topN]
	}
	return similar
}
