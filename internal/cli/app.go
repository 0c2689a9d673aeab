/*
Package cli implements the support-insights commands.

Every command that touches state builds an app from the settings file named
by --config (default ~/.support-insights/config.yaml) plus SUPPORT_INSIGHTS_*
environment overrides, and closes it before returning.
*/
package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/supportinsights/support-insights/internal/categorize"
	"github.com/supportinsights/support-insights/internal/config"
	"github.com/supportinsights/support-insights/internal/export"
	"github.com/supportinsights/support-insights/internal/insights"
	"github.com/supportinsights/support-insights/internal/logging"
	"github.com/supportinsights/support-insights/internal/model"
	"github.com/supportinsights/support-insights/internal/search"
	"github.com/supportinsights/support-insights/internal/sources"
	"github.com/supportinsights/support-insights/internal/storage"
)

// Persistent flag names.
const (
	flagConfig   = "config"
	flagLogLevel = "log-level"
)

// app holds the collaborators a command needs.
type app struct {
	settings *config.Settings
	logger   *zap.Logger
	configs  *config.Store
	store    *storage.SQLiteStorage
	index    *search.Indexer
	registry *sources.Registry
	engine   *categorize.Engine
	service  *insights.Service
}

// appOptions selects optional parts of the app.
type appOptions struct {
	// index opens the persistent search index.
	index bool
}

// newApp loads settings and opens storage. Callers must Close the app.
func newApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	settings, err := config.LoadSettings(stringFlag(cmd, flagConfig))
	if err != nil {
		return nil, err
	}
	if level := stringFlag(cmd, flagLogLevel); level != "" {
		settings.Log.Level = level
	}

	logger, err := logging.New(logging.Config{
		Level:  settings.Log.Level,
		Format: settings.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	a := &app{
		settings: settings,
		logger:   logger,
		configs:  config.NewStore(settings.Paths.TeamsDir),
		registry: sources.DefaultRegistry(sources.Options{
			Logger:      logger,
			SlackToken:  settings.Slack.Token,
			GitHubToken: settings.GitHub.Token,
			RateLimit:   rate.Limit(settings.Sources.RateLimit),
		}),
		engine: categorize.NewEngine(
			categorize.WithPolicy(categorize.ParsePolicy(settings.Review.Policy)),
			categorize.WithReviewThreshold(settings.Review.Threshold),
		),
	}

	store, err := storage.Open(settings.Paths.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.store = store

	serviceOpts := []insights.Option{
		insights.WithEngine(a.engine),
		insights.WithLogger(logger),
	}
	if opts.index {
		index, err := search.NewIndexerWithPath(settings.Paths.Index, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open search index: %w", err)
		}
		a.index = index
		serviceOpts = append(serviceOpts, insights.WithIndex(index))
	}

	a.service = insights.NewService(a.configs, a.store, a.registry, serviceOpts...)
	return a, nil
}

// Close releases the index and the database.
func (a *app) Close() {
	if a.index != nil {
		if err := a.index.Close(); err != nil {
			a.logger.Warn("failed to close search index", zap.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close storage", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func (a *app) exporter() *export.Exporter {
	return export.NewExporter(a.store, a.configs, a.store)
}

func stringFlag(cmd *cobra.Command, name string) string {
	f := cmd.Flag(name)
	if f == nil {
		return ""
	}
	return f.Value.String()
}

// readSignalsFile reads a CSV or JSONL file, chosen by extension.
func readSignalsFile(ctx context.Context, path string, logger *zap.Logger) ([]model.SupportSignal, error) {
	var src sources.Source
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		src = sources.NewCSVSource(path, logger)
	case ".jsonl", ".ndjson":
		src = sources.NewJSONLSource(path, logger)
	default:
		return nil, fmt.Errorf("unsupported signal file %q: use .csv or .jsonl", path)
	}
	return sources.Collect(ctx, src)
}

// dateLayouts are accepted by --since, --until and --from.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC3339", s)
}
