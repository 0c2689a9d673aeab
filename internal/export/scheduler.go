package export

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job describes one scheduled snapshot.
type Job struct {
	// Teams to export; empty means every team in the ledger.
	Teams []string

	// Dir receives one training-<timestamp>.json file per run.
	Dir string

	// Lookback limits each snapshot to entries newer than now-Lookback.
	// Zero exports the whole history.
	Lookback time.Duration
}

// Scheduler runs exports on standard 5-field cron expressions.
type Scheduler struct {
	cron     *cron.Cron
	exporter *Exporter
	logger   *zap.Logger
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(exporter *Exporter, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
		exporter: exporter,
		logger:   logger,
	}
}

// Add registers job under the cron expression spec.
func (s *Scheduler) Add(spec string, job Job) (cron.EntryID, error) {
	if job.Dir == "" {
		return 0, fmt.Errorf("export job: output directory not set")
	}
	id, err := s.cron.AddFunc(spec, func() {
		if _, err := s.RunOnce(context.Background(), job); err != nil {
			s.logger.Error("scheduled export failed", zap.String("schedule", spec), zap.Error(err))
		}
	})
	if err != nil {
		return 0, fmt.Errorf("invalid export schedule %q: %w", spec, err)
	}
	s.logger.Info("export scheduled", zap.String("schedule", spec), zap.String("dir", job.Dir))
	return id, nil
}

// RunOnce performs one snapshot and returns the written path.
func (s *Scheduler) RunOnce(ctx context.Context, job Job) (string, error) {
	now := s.exporter.now().UTC()
	var from time.Time
	if job.Lookback > 0 {
		from = now.Add(-job.Lookback)
	}

	path := filepath.Join(job.Dir, fmt.Sprintf("training-%s.json", now.Format("20060102T150405Z")))
	dist, err := s.exporter.WriteFile(ctx, path, job.Teams, from)
	if err != nil {
		return "", err
	}
	s.logger.Info("export written",
		zap.String("path", path),
		zap.Int("examples", dist.Examples),
		zap.Int("teams", len(dist.Team)),
	)
	return path, nil
}

// Next returns the next activation time of every registered job.
func (s *Scheduler) Next() []time.Time {
	entries := s.cron.Entries()
	next := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		next = append(next, e.Schedule.Next(time.Now()))
	}
	return next
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}
