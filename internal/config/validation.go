package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/supportinsights/support-insights/internal/model"
)

// Validate checks a team configuration before it is saved.
func Validate(cfg model.TeamConfiguration) error {
	if err := validate(cfg); err != nil {
		return &InvalidConfigError{
			Message: err.Error(),
			Hint:    "Fix the team definition and save again",
		}
	}
	return nil
}

func validate(cfg model.TeamConfiguration) error {
	if ToSlug(cfg.TeamName) == "" {
		return errors.New("team name must contain at least one letter or digit")
	}

	var problems []string
	seen := make(map[string]bool, len(cfg.Categories))
	for i, cat := range cfg.Categories {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			problems = append(problems, fmt.Sprintf("category %d: empty name", i))
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			problems = append(problems, fmt.Sprintf("category '%s': duplicate name", name))
		}
		seen[key] = true
		if cat.Priority < 0 {
			problems = append(problems, fmt.Sprintf("category '%s': negative priority", name))
		}
	}

	for i, ds := range cfg.DataSources {
		if strings.TrimSpace(ds.SourceType) == "" {
			problems = append(problems, fmt.Sprintf("data source %d: empty sourceType", i))
		}
	}

	for _, hp := range cfg.TriageSettings.HighPriorityCategories {
		if !seen[strings.ToLower(strings.TrimSpace(hp))] {
			problems = append(problems, fmt.Sprintf("high priority category '%s' is not defined", hp))
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
