package learning

import (
	"strings"

	"github.com/supportinsights/support-insights/internal/model"
)

// BootstrapResult is a suggested starting configuration for a new team.
type BootstrapResult struct {
	TeamName             string                          `json:"teamName"`
	SuggestedCategories  []model.CategoryConfiguration   `json:"suggestedCategories"`
	SuggestedDataSources []model.DataSourceConfiguration `json:"suggestedDataSources"`

	// ConfidenceScore is the best match's similarity, 0 when nothing matched.
	ConfidenceScore float64             `json:"confidenceScore"`
	SimilarTeams    []model.SimilarTeam `json:"similarTeams"`
}

// BootstrapNewTeam seeds teamName from the existing teams closest to the
// candidate signals. Categories are merged from every team tied for the best
// similarity; data sources come from the single best match. With no similar
// team the result is empty with confidence 0, meaning start from defaults.
func BootstrapNewTeam(teamName string, signals []model.SupportSignal, configs []model.TeamConfiguration) BootstrapResult {
	byName := make(map[string]model.TeamConfiguration, len(configs))
	others := make([]model.TeamConfiguration, 0, len(configs))
	for _, cfg := range configs {
		if cfg.TeamName == teamName {
			continue
		}
		byName[cfg.TeamName] = cfg
		others = append(others, cfg)
	}

	result := BootstrapResult{
		TeamName:             teamName,
		SuggestedCategories:  []model.CategoryConfiguration{},
		SuggestedDataSources: []model.DataSourceConfiguration{},
		SimilarTeams:         SimilarTeams(signals, others, 0),
	}
	if len(result.SimilarTeams) == 0 {
		return result
	}

	best := result.SimilarTeams[0]
	result.ConfidenceScore = best.SimilarityScore

	var tied []model.TeamConfiguration
	for _, st := range result.SimilarTeams {
		if st.SimilarityScore != best.SimilarityScore {
			break
		}
		tied = append(tied, byName[st.TeamName])
	}
	result.SuggestedCategories = mergeCategories(tied)

	for _, ds := range byName[best.TeamName].DataSources {
		result.SuggestedDataSources = append(result.SuggestedDataSources, copyDataSource(ds))
	}
	return result
}

// Configuration turns the result into a team configuration with empty triage settings.
func (r BootstrapResult) Configuration(displayName string) model.TeamConfiguration {
	if displayName == "" {
		displayName = r.TeamName
	}
	return model.TeamConfiguration{
		TeamName:    r.TeamName,
		DisplayName: displayName,
		Categories:  r.SuggestedCategories,
		DataSources: r.SuggestedDataSources,
		TriageSettings: model.TriageConfiguration{
			HighPriorityCategories: []string{},
			CategoryDefaultScores:  map[string]float64{},
		},
	}
}

// mergeCategories unions categories by case-insensitive name in first-seen
// order. Keywords are unioned, the lowest priority kept, and a category is
// active if any source has it active.
func mergeCategories(teams []model.TeamConfiguration) []model.CategoryConfiguration {
	var merged []model.CategoryConfiguration
	index := make(map[string]int)
	keywordSeen := make(map[string]map[string]struct{})

	for _, team := range teams {
		for _, cat := range team.Categories {
			key := strings.ToLower(cat.Name)
			i, ok := index[key]
			if !ok {
				i = len(merged)
				index[key] = i
				keywordSeen[key] = make(map[string]struct{})
				merged = append(merged, model.CategoryConfiguration{
					Name:     cat.Name,
					Keywords: []string{},
					Priority: cat.Priority,
					IsActive: cat.IsActive,
				})
			}
			m := &merged[i]
			if cat.Priority < m.Priority {
				m.Priority = cat.Priority
			}
			m.IsActive = m.IsActive || cat.IsActive
			for _, kw := range cat.Keywords {
				norm := strings.ToLower(strings.TrimSpace(kw))
				if norm == "" {
					continue
				}
				if _, dup := keywordSeen[key][norm]; dup {
					continue
				}
				keywordSeen[key][norm] = struct{}{}
				m.Keywords = append(m.Keywords, kw)
			}
		}
	}
	return merged
}

func copyDataSource(ds model.DataSourceConfiguration) model.DataSourceConfiguration {
	out := model.DataSourceConfiguration{SourceType: ds.SourceType, IsEnabled: ds.IsEnabled}
	if ds.Settings != nil {
		out.Settings = make(map[string]string, len(ds.Settings))
		for k, v := range ds.Settings {
			out.Settings[k] = v
		}
	}
	return out
}
