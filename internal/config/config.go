/*
Package config handles loading, saving, and validating team configurations and
application settings.

Each team is stored as one JSON file in the teams directory
(~/.support-insights/teams by default), named after the team's slug:

	{
	  "teamName": "accounting",
	  "displayName": "Accounting",
	  "categories": [
	    {"name": "BankFeeds", "keywords": ["bank feed", "sync"], "priority": 1, "isActive": true}
	  ],
	  "dataSources": [
	    {"sourceType": "csv", "isEnabled": true, "settings": {"path": "/data/jira.csv"}}
	  ],
	  "triageSettings": {
	    "enableManualScoring": true,
	    "defaultScore": 5,
	    "highPriorityCategories": ["BankFeeds"],
	    "categoryDefaultScores": {"BankFeeds": 8}
	  }
	}

Application settings live in ~/.support-insights/config.yaml; see Settings.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/supportinsights/support-insights/internal/model"
)

const teamFileExt = ".json"

// Store keeps one configuration file per team. A saved configuration replaces
// the previous one whole; readers always see a complete snapshot.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore creates a store over dir. The directory is created on first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the teams directory.
func (s *Store) Dir() string {
	return s.dir
}

// PathFor returns the file path used for teamName.
func (s *Store) PathFor(teamName string) string {
	return filepath.Join(s.dir, ToSlug(teamName)+teamFileExt)
}

// Get loads a team's configuration. ok is false when the team has none.
func (s *Store) Get(ctx context.Context, teamName string) (model.TeamConfiguration, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.TeamConfiguration{}, false, err
	}
	if ToSlug(teamName) == "" {
		return model.TeamConfiguration{}, false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, err := LoadFrom(s.PathFor(teamName))
	var notFound *ConfigNotFoundError
	if errors.As(err, &notFound) {
		return model.TeamConfiguration{}, false, nil
	}
	if err != nil {
		return model.TeamConfiguration{}, false, err
	}
	return cfg, true, nil
}

// MustGet is Get with absence reported as model.ErrTeamNotFound.
func (s *Store) MustGet(ctx context.Context, teamName string) (model.TeamConfiguration, error) {
	cfg, ok, err := s.Get(ctx, teamName)
	if err != nil {
		return model.TeamConfiguration{}, err
	}
	if !ok {
		return model.TeamConfiguration{}, &TeamNotFoundError{TeamName: teamName}
	}
	return cfg, nil
}

// List loads every team configuration, sorted by team name. An absent
// directory means no teams.
func (s *Store) List(ctx context.Context) ([]model.TeamConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return []model.TeamConfiguration{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read teams directory: %w", err)
	}

	configs := []model.TeamConfiguration{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != teamFileExt {
			continue
		}
		cfg, err := LoadFrom(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	sort.Slice(configs, func(i, j int) bool {
		return configs[i].TeamName < configs[j].TeamName
	})
	return configs, nil
}

// Save validates cfg and replaces the team's file.
func (s *Store) Save(ctx context.Context, cfg model.TeamConfiguration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := Validate(cfg); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create teams directory: %w", err)
	}
	return SaveTo(cfg, s.PathFor(cfg.TeamName))
}

// ListEnabledDataSources returns the enabled data sources of a team.
func (s *Store) ListEnabledDataSources(ctx context.Context, teamName string) ([]model.DataSourceConfiguration, error) {
	cfg, err := s.MustGet(ctx, teamName)
	if err != nil {
		return nil, err
	}
	return cfg.EnabledDataSources(), nil
}

// NewTeamConfiguration returns a starter configuration with no categories.
func NewTeamConfiguration(teamName, displayName string) model.TeamConfiguration {
	teamName = strings.TrimSpace(teamName)
	if displayName == "" {
		displayName = teamName
	}
	return model.TeamConfiguration{
		TeamName:    teamName,
		DisplayName: displayName,
		Categories:  []model.CategoryConfiguration{},
		DataSources: []model.DataSourceConfiguration{},
		TriageSettings: model.TriageConfiguration{
			DefaultScore:           5,
			HighPriorityCategories: []string{},
			CategoryDefaultScores:  map[string]float64{},
		},
	}
}
