/*
Package sources provides readers that turn external systems into support signals.

Supported source types:
  - csv: a Jira-style CSV export (Summary, Description, Category, Created, Resolved, Review_Flag)
  - jsonl: one JSON signal per line
  - slack: messages of one Slack channel
  - github: issues of one GitHub repository

Every source yields a lazy, finite sequence. Calling Signals again restarts
from the beginning. Records that cannot be parsed are logged and skipped.
*/
package sources

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/supportinsights/support-insights/internal/model"
)

// Source supplies support signals for one configured data source.
type Source interface {
	// Name returns the source type (e.g., "csv").
	Name() string

	// Signals returns the source's signals in source order. A non-nil error
	// ends the sequence.
	Signals(ctx context.Context) iter.Seq2[model.SupportSignal, error]
}

// Options carries what factories need beyond the per-team settings.
type Options struct {
	Logger      *zap.Logger
	SlackToken  string
	GitHubToken string

	// RateLimit bounds API page requests per second. Zero uses DefaultRateLimit.
	RateLimit rate.Limit
}

// DefaultRateLimit is the page request rate for API-backed sources.
const DefaultRateLimit rate.Limit = 5

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) limiter() *rate.Limiter {
	limit := o.RateLimit
	if limit == 0 {
		limit = DefaultRateLimit
	}
	return rate.NewLimiter(limit, 1)
}

// Factory builds a Source from a team's data source configuration.
type Factory func(cfg model.DataSourceConfiguration, opts Options) (Source, error)

// Registry maps source types to factories.
type Registry struct {
	factories map[string]Factory
	opts      Options
}

// NewRegistry returns an empty registry.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		opts:      opts,
	}
}

// DefaultRegistry returns a registry with every built-in source type.
func DefaultRegistry(opts Options) *Registry {
	r := NewRegistry(opts)
	r.Register("csv", NewCSVFromConfig)
	r.Register("jsonl", NewJSONLFromConfig)
	r.Register("slack", NewSlackFromConfig)
	r.Register("github", NewGitHubFromConfig)
	return r
}

// Register adds or replaces the factory for sourceType.
func (r *Registry) Register(sourceType string, f Factory) {
	r.factories[normalizeType(sourceType)] = f
}

// Types returns the registered source types, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Open builds the source for cfg.
func (r *Registry) Open(cfg model.DataSourceConfiguration) (Source, error) {
	f, ok := r.factories[normalizeType(cfg.SourceType)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownSourceType, cfg.SourceType)
	}
	return f(cfg, r.opts)
}

// Collect drains a source. On error it returns the signals read so far.
func Collect(ctx context.Context, src Source) ([]model.SupportSignal, error) {
	var signals []model.SupportSignal
	for sig, err := range src.Signals(ctx) {
		if err != nil {
			return signals, fmt.Errorf("source %s: %w", src.Name(), err)
		}
		signals = append(signals, sig)
	}
	return signals, nil
}

func normalizeType(sourceType string) string {
	return strings.ToLower(strings.TrimSpace(sourceType))
}

// requireSetting returns a non-empty setting or an error naming it.
func requireSetting(cfg model.DataSourceConfiguration, key string) (string, error) {
	v := strings.TrimSpace(cfg.Settings[key])
	if v == "" {
		return "", fmt.Errorf("%s source: missing %q setting", cfg.SourceType, key)
	}
	return v, nil
}
