package model

import "strings"

// TeamConfiguration is an immutable snapshot of one team's setup.
// It is replaced whole through the configuration store, never edited in place.
type TeamConfiguration struct {
	TeamName       string                    `json:"teamName"`
	DisplayName    string                    `json:"displayName"`
	Categories     []CategoryConfiguration   `json:"categories"`
	DataSources    []DataSourceConfiguration `json:"dataSources"`
	TriageSettings TriageConfiguration       `json:"triageSettings"`
}

// CategoryConfiguration describes one category and the keywords that select it.
type CategoryConfiguration struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`

	// Priority breaks score ties; lower wins.
	Priority int  `json:"priority"`
	IsActive bool `json:"isActive"`
}

// DataSourceConfiguration enables a source type for a team.
type DataSourceConfiguration struct {
	SourceType string `json:"sourceType"`
	IsEnabled  bool   `json:"isEnabled"`

	// Settings carries provider parameters such as "path", "channel" or "repo".
	Settings map[string]string `json:"settings,omitempty"`
}

// TriageConfiguration controls manual scoring during triage.
type TriageConfiguration struct {
	EnableManualScoring    bool               `json:"enableManualScoring"`
	DefaultScore           float64            `json:"defaultScore"`
	HighPriorityCategories []string           `json:"highPriorityCategories"`
	CategoryDefaultScores  map[string]float64 `json:"categoryDefaultScores"`
}

// ActiveCategories returns the active categories in configuration order.
func (c TeamConfiguration) ActiveCategories() []CategoryConfiguration {
	active := make([]CategoryConfiguration, 0, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.IsActive {
			active = append(active, cat)
		}
	}
	return active
}

// Category looks up a category by name, case-insensitively.
func (c TeamConfiguration) Category(name string) (CategoryConfiguration, bool) {
	for _, cat := range c.Categories {
		if strings.EqualFold(cat.Name, name) {
			return cat, true
		}
	}
	return CategoryConfiguration{}, false
}

// EnabledDataSources returns the data sources with IsEnabled set.
func (c TeamConfiguration) EnabledDataSources() []DataSourceConfiguration {
	var enabled []DataSourceConfiguration
	for _, ds := range c.DataSources {
		if ds.IsEnabled {
			enabled = append(enabled, ds)
		}
	}
	return enabled
}

// IsHighPriority reports whether category is listed as high priority.
func (t TriageConfiguration) IsHighPriority(category string) bool {
	for _, c := range t.HighPriorityCategories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// ScoreFor returns the default manual score for a category.
func (t TriageConfiguration) ScoreFor(category string) float64 {
	if score, ok := t.CategoryDefaultScores[category]; ok {
		return score
	}
	return t.DefaultScore
}

// HasKeyword reports whether the category already carries keyword.
func (c CategoryConfiguration) HasKeyword(keyword string) bool {
	for _, k := range c.Keywords {
		if strings.EqualFold(strings.TrimSpace(k), keyword) {
			return true
		}
	}
	return false
}
