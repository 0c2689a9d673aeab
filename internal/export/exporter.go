/*
Package export turns feedback ledgers into training datasets.

The exporter walks each team's ledger once, mapping entries to training
examples and counting category and team distributions as it goes. Export
collects the result in memory; WriteJSON streams it straight to a writer so
large histories never need to be held at once.
*/
package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/supportinsights/support-insights/internal/categorize"
	"github.com/supportinsights/support-insights/internal/ledger"
	"github.com/supportinsights/support-insights/internal/model"
)

// ConfigLookup resolves a team configuration.
type ConfigLookup interface {
	Get(ctx context.Context, teamName string) (model.TeamConfiguration, bool, error)
}

// SignalLookup resolves the signal a feedback entry refers to.
type SignalLookup interface {
	GetSignal(ctx context.Context, teamName, signalID string) (model.SupportSignal, bool, error)
}

// Distributions are the counts gathered during a fold.
type Distributions struct {
	Category map[string]int
	Team     map[string]int
	Examples int
}

// Exporter builds training datasets from a ledger.
type Exporter struct {
	ledger  ledger.Ledger
	configs ConfigLookup
	signals SignalLookup
	now     func() time.Time
}

// NewExporter creates an exporter over the given collaborators.
func NewExporter(l ledger.Ledger, configs ConfigLookup, signals SignalLookup) *Exporter {
	return &Exporter{
		ledger:  l,
		configs: configs,
		signals: signals,
		now:     time.Now,
	}
}

// resolveTeams returns teamNames under their configured spelling, or every
// team in the ledger when empty.
func (e *Exporter) resolveTeams(ctx context.Context, teamNames []string) ([]string, error) {
	if len(teamNames) > 0 {
		resolved := make([]string, 0, len(teamNames))
		for _, team := range teamNames {
			cfg, ok, err := e.configs.Get(ctx, team)
			if err != nil {
				return nil, fmt.Errorf("load config for %s: %w", team, err)
			}
			if ok {
				team = cfg.TeamName
			}
			resolved = append(resolved, team)
		}
		return resolved, nil
	}
	teams, err := e.ledger.Teams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ledger teams: %w", err)
	}
	if teams == nil {
		teams = []string{}
	}
	return teams, nil
}

// Fold walks every team's ledger once, calling fn for each entry at or after
// from, and returns the distributions of the examples it produced.
func (e *Exporter) Fold(
	ctx context.Context,
	teamNames []string,
	from time.Time,
	fn func(model.TrainingExample) error,
) (Distributions, error) {
	dist := Distributions{
		Category: make(map[string]int),
		Team:     make(map[string]int),
	}

	for _, team := range teamNames {
		cfg, ok, err := e.configs.Get(ctx, team)
		if err != nil {
			return dist, fmt.Errorf("load config for %s: %w", team, err)
		}
		if ok {
			team = cfg.TeamName
		}

		err = e.ledger.Scan(ctx, team, func(fb model.CategorizationFeedback) error {
			if fb.Timestamp.Before(from) {
				return nil
			}
			ex, err := e.example(ctx, team, cfg, fb)
			if err != nil {
				return err
			}
			dist.Category[ex.TrueCategory]++
			dist.Team[team]++
			dist.Examples++
			return fn(ex)
		})
		if err != nil {
			return dist, fmt.Errorf("export %s: %w", team, err)
		}
	}
	return dist, nil
}

// example maps one feedback entry. The confidence score is recomputed against
// the predicted category's current keywords.
func (e *Exporter) example(
	ctx context.Context,
	team string,
	cfg model.TeamConfiguration,
	fb model.CategorizationFeedback,
) (model.TrainingExample, error) {
	ex := model.TrainingExample{
		ID:                fb.ID,
		TrueCategory:      fb.ActualCategory,
		PredictedCategory: fb.PredictedCategory,
		TeamContext:       team,
		Timestamp:         fb.Timestamp,
		WasCorrect:        fb.WasCorrect(),
	}

	signal, ok, err := e.signals.GetSignal(ctx, team, fb.SignalID)
	if err != nil {
		return ex, fmt.Errorf("load signal %s: %w", fb.SignalID, err)
	}
	if !ok {
		return ex, nil
	}
	ex.InputText = signal.Text()
	ex.Source = signal.Source

	if fb.PredictedCategory != nil {
		if cat, found := cfg.Category(*fb.PredictedCategory); found {
			score := categorize.ScoreText(strings.ToLower(ex.InputText), cat.Keywords)
			ex.ConfidenceScore = categorize.Confidence(score)
		}
	}
	return ex, nil
}

// Export builds the full dataset in memory. Empty teamNames exports every team.
func (e *Exporter) Export(ctx context.Context, teamNames []string, from time.Time) (model.TrainingDataset, error) {
	teams, err := e.resolveTeams(ctx, teamNames)
	if err != nil {
		return model.TrainingDataset{}, err
	}

	ds := model.TrainingDataset{
		GeneratedAt:      e.now().UTC(),
		Teams:            teams,
		FromDate:         from,
		TrainingExamples: []model.TrainingExample{},
	}
	dist, err := e.Fold(ctx, teams, from, func(ex model.TrainingExample) error {
		ds.TrainingExamples = append(ds.TrainingExamples, ex)
		return nil
	})
	if err != nil {
		return model.TrainingDataset{}, err
	}
	ds.CategoryDistribution = dist.Category
	ds.TeamDistribution = dist.Team
	return ds, nil
}
