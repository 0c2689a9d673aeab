/*
Package insights wires sources, categorization, storage and learning into the
operations the CLI exposes: ingesting signals, triaging them, and reading the
learning views derived from triage feedback.
*/
package insights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/supportinsights/support-insights/internal/categorize"
	"github.com/supportinsights/support-insights/internal/config"
	"github.com/supportinsights/support-insights/internal/learning"
	"github.com/supportinsights/support-insights/internal/model"
	"github.com/supportinsights/support-insights/internal/sources"
	"github.com/supportinsights/support-insights/internal/storage"
)

// ConfigStore is the subset of config.Store the service needs.
type ConfigStore interface {
	Get(ctx context.Context, teamName string) (model.TeamConfiguration, bool, error)
	List(ctx context.Context) ([]model.TeamConfiguration, error)
	Save(ctx context.Context, cfg model.TeamConfiguration) error
}

// SignalIndex receives signals for full-text search.
type SignalIndex interface {
	IndexSignals(teamName string, signals []model.SupportSignal) error
}

// Service coordinates the support-insights workflow for all teams.
type Service struct {
	configs  ConfigStore
	store    storage.Storage
	index    SignalIndex
	registry *sources.Registry
	engine   *categorize.Engine
	learning learning.Options
	logger   *zap.Logger
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithIndex enables search indexing of ingested and triaged signals.
func WithIndex(index SignalIndex) Option {
	return func(s *Service) { s.index = index }
}

// WithEngine replaces the default categorization engine.
func WithEngine(engine *categorize.Engine) Option {
	return func(s *Service) { s.engine = engine }
}

// WithLearningOptions overrides the learning defaults.
func WithLearningOptions(opts learning.Options) Option {
	return func(s *Service) { s.learning = opts }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a service.
func NewService(configs ConfigStore, store storage.Storage, registry *sources.Registry, opts ...Option) *Service {
	s := &Service{
		configs:  configs,
		store:    store,
		registry: registry,
		engine:   categorize.NewEngine(),
		learning: learning.DefaultOptions(),
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("insights")
	return s
}

// Team returns a team's configuration or an error matching model.ErrTeamNotFound.
// Lookups accept any spelling that slugs to the same file; callers key storage
// by the returned TeamName.
func (s *Service) Team(ctx context.Context, teamName string) (model.TeamConfiguration, error) {
	cfg, ok, err := s.configs.Get(ctx, teamName)
	if err != nil {
		return model.TeamConfiguration{}, err
	}
	if !ok {
		return model.TeamConfiguration{}, &config.TeamNotFoundError{TeamName: teamName}
	}
	return cfg, nil
}

// TriageResult describes a recorded triage decision.
type TriageResult struct {
	Signal   model.SupportSignal
	Feedback model.CategorizationFeedback
}

// Triage records an analyst's category for a signal. The signal's category and
// manual score are overwritten and a feedback entry is appended whose
// prediction is the engine's provisional category. Both writes are stored
// atomically.
//
// score overrides the configured default; when nil and manual scoring is
// enabled the category default (or the team default) is used.
func (s *Service) Triage(ctx context.Context, teamName, signalID, actual string, score *float64) (TriageResult, error) {
	cfg, err := s.Team(ctx, teamName)
	if err != nil {
		return TriageResult{}, err
	}
	teamName = cfg.TeamName
	cat, ok := cfg.Category(actual)
	if !ok {
		return TriageResult{}, fmt.Errorf("%w: %q for team %s", model.ErrInvalidCategory, actual, teamName)
	}

	sig, ok, err := s.store.GetSignal(ctx, teamName, signalID)
	if err != nil {
		return TriageResult{}, err
	}
	if !ok {
		return TriageResult{}, fmt.Errorf("%w: %s", model.ErrSignalNotFound, signalID)
	}

	predicted := s.provisional(sig, cfg)

	manual := score
	if manual == nil && cfg.TriageSettings.EnableManualScoring {
		manual = model.Float64Ptr(cfg.TriageSettings.ScoreFor(cat.Name))
	}

	fb := model.NewFeedback(signalID, predicted, cat.Name, s.now())
	if err := s.store.RecordTriage(ctx, teamName, fb, manual); err != nil {
		return TriageResult{}, fmt.Errorf("record triage: %w", err)
	}

	sig.Category = model.StringPtr(cat.Name)
	sig.ManualScore = manual
	sig.NeedsReview = false
	sig.Triaged = true
	s.indexSignals(teamName, []model.SupportSignal{sig})

	s.logger.Info("signal triaged",
		zap.String("team", teamName),
		zap.String("signal", signalID),
		zap.String("predicted", fb.Predicted()),
		zap.String("actual", cat.Name),
	)
	return TriageResult{Signal: sig, Feedback: fb}, nil
}

// provisional returns the category the engine assigned, or nil when it
// assigned none. An untriaged signal with zero confidence carries a source
// label rather than an engine result. Once a signal has been triaged its
// stored category is the analyst's, so the engine is asked again.
func (s *Service) provisional(sig model.SupportSignal, cfg model.TeamConfiguration) *string {
	if !sig.Triaged {
		if sig.Confidence == 0 {
			return nil
		}
		return sig.Category
	}
	return s.engine.Categorize(sig, cfg).Category
}

// Learning returns the learning view for a team.
func (s *Service) Learning(ctx context.Context, teamName string) (model.TeamLearningData, error) {
	cfg, err := s.Team(ctx, teamName)
	if err != nil {
		return model.TeamLearningData{}, err
	}
	teamName = cfg.TeamName
	history, err := s.store.History(ctx, teamName)
	if err != nil {
		return model.TeamLearningData{}, err
	}
	signals, err := s.store.ListSignals(ctx, teamName, storage.SignalQuery{})
	if err != nil {
		return model.TeamLearningData{}, err
	}
	return learning.BuildTeamLearningData(cfg, history, signals, s.learning), nil
}

// Signals lists a team's stored signals.
func (s *Service) Signals(ctx context.Context, teamName string, q storage.SignalQuery) ([]model.SupportSignal, error) {
	cfg, err := s.Team(ctx, teamName)
	if err != nil {
		return nil, err
	}
	return s.store.ListSignals(ctx, cfg.TeamName, q)
}

// SimilarTeams ranks configured teams by keyword overlap with signals.
func (s *Service) SimilarTeams(ctx context.Context, signals []model.SupportSignal, topN int) ([]model.SimilarTeam, error) {
	configs, err := s.configs.List(ctx)
	if err != nil {
		return nil, err
	}
	return learning.SimilarTeams(signals, configs, topN), nil
}

// BootstrapRequest describes a new team to bootstrap.
type BootstrapRequest struct {
	TeamName    string
	DisplayName string
	Signals     []model.SupportSignal

	// Save persists the suggested configuration when true.
	Save bool
}

// ErrTeamExists is returned when bootstrapping would overwrite a team.
var ErrTeamExists = errors.New("team already exists")

// Bootstrap suggests a configuration for a new team from the most similar
// existing teams, optionally saving it.
func (s *Service) Bootstrap(ctx context.Context, req BootstrapRequest) (learning.BootstrapResult, error) {
	if req.Save {
		if _, ok, err := s.configs.Get(ctx, req.TeamName); err != nil {
			return learning.BootstrapResult{}, err
		} else if ok {
			return learning.BootstrapResult{}, fmt.Errorf("%w: %s", ErrTeamExists, req.TeamName)
		}
	}

	configs, err := s.configs.List(ctx)
	if err != nil {
		return learning.BootstrapResult{}, err
	}
	result := learning.BootstrapNewTeam(req.TeamName, req.Signals, configs)

	if req.Save {
		if err := s.configs.Save(ctx, result.Configuration(req.DisplayName)); err != nil {
			return learning.BootstrapResult{}, fmt.Errorf("save bootstrapped team: %w", err)
		}
		s.logger.Info("team bootstrapped",
			zap.String("team", req.TeamName),
			zap.Int("categories", len(result.SuggestedCategories)),
			zap.Float64("confidence", result.ConfidenceScore),
		)
	}
	return result, nil
}

func (s *Service) indexSignals(teamName string, signals []model.SupportSignal) {
	if s.index == nil || len(signals) == 0 {
		return
	}
	if err := s.index.IndexSignals(teamName, signals); err != nil {
		s.logger.Warn("failed to index signals", zap.String("team", teamName), zap.Error(err))
	}
}
