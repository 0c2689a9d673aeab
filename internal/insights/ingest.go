package insights

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/supportinsights/support-insights/internal/model"
	"github.com/supportinsights/support-insights/internal/sources"
	"github.com/supportinsights/support-insights/internal/storage"
)

// SourceReport is the outcome of reading one data source.
type SourceReport struct {
	SourceType string
	Fetched    int
	Saved      int
	Err        error
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	TeamName    string
	Sources     []SourceReport
	Saved       int
	NeedsReview int
}

// Err joins the per-source errors, or returns nil when every source succeeded.
func (r IngestReport) Err() error {
	var errs []error
	for _, src := range r.Sources {
		if src.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", src.SourceType, src.Err))
		}
	}
	return errors.Join(errs...)
}

// Ingest pulls every enabled data source of a team, categorizes the signals
// and stores them. A failing source does not stop the others; its error is
// kept in the report. Signals read before a source failed are still stored.
func (s *Service) Ingest(ctx context.Context, teamName string) (IngestReport, error) {
	cfg, err := s.Team(ctx, teamName)
	if err != nil {
		return IngestReport{}, err
	}
	teamName = cfg.TeamName

	report := IngestReport{TeamName: cfg.TeamName, Sources: []SourceReport{}}
	for _, ds := range cfg.EnabledDataSources() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		src := s.ingestSource(ctx, teamName, cfg, ds)
		report.Saved += src.Saved
		report.Sources = append(report.Sources, src)
	}

	if report.Saved > 0 {
		stored, err := s.store.ListSignals(ctx, teamName, storage.SignalQuery{})
		if err != nil {
			return report, err
		}
		for _, sig := range stored {
			if sig.NeedsReview {
				report.NeedsReview++
			}
		}
		// Index what is stored so triage decisions that survived re-ingestion
		// are what search sees.
		s.indexSignals(teamName, stored)
	}

	s.logger.Info("ingestion finished",
		zap.String("team", teamName),
		zap.Int("sources", len(report.Sources)),
		zap.Int("saved", report.Saved),
		zap.Int("needsReview", report.NeedsReview),
	)
	return report, nil
}

func (s *Service) ingestSource(ctx context.Context, teamName string, cfg model.TeamConfiguration, ds model.DataSourceConfiguration) SourceReport {
	rep := SourceReport{SourceType: ds.SourceType}

	src, err := s.registry.Open(ds)
	if err != nil {
		rep.Err = err
		s.logger.Warn("cannot open source", zap.String("team", teamName), zap.String("source", ds.SourceType), zap.Error(err))
		return rep
	}

	signals, err := sources.Collect(ctx, src)
	rep.Fetched = len(signals)
	if err != nil {
		rep.Err = err
		s.logger.Warn("source failed", zap.String("team", teamName), zap.String("source", ds.SourceType), zap.Int("fetched", rep.Fetched), zap.Error(err))
	}

	categorized := s.Categorize(cfg, signals)
	saved, err := s.store.SaveSignals(ctx, teamName, categorized)
	if err != nil {
		rep.Err = errors.Join(rep.Err, fmt.Errorf("save signals: %w", err))
		return rep
	}
	rep.Saved = saved
	return rep
}

// Categorize assigns provisional categories. A label carried by the source is
// kept when the engine finds no category, still flagged for review. A review
// flag set by the source is never cleared.
func (s *Service) Categorize(cfg model.TeamConfiguration, signals []model.SupportSignal) []model.SupportSignal {
	out := make([]model.SupportSignal, len(signals))
	for i, sig := range signals {
		applied := s.engine.Apply(sig, cfg)
		applied.NeedsReview = applied.NeedsReview || sig.NeedsReview
		if applied.Category == nil && sig.Category != nil {
			if cat, ok := cfg.Category(*sig.Category); ok {
				applied.Category = model.StringPtr(cat.Name)
				applied.NeedsReview = true
			}
		}
		out[i] = applied
	}
	return out
}
