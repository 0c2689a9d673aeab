package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/supportinsights/support-insights/internal/model"
)

// JiraTimeLayout is the date format of Jira CSV exports.
const JiraTimeLayout = "02/01/2006 15:04"

var csvTimeLayouts = []string{
	JiraTimeLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Header aliases, matched case-insensitively.
var csvColumns = map[string][]string{
	"id":          {"issue key", "key", "id"},
	"title":       {"summary", "title"},
	"description": {"description"},
	"category":    {"category"},
	"created":     {"created", "timestamp"},
	"resolved":    {"resolved"},
	"review":      {"review_flag", "needs_review"},
}

// CSVSource reads a CSV export from disk.
type CSVSource struct {
	path   string
	logger *zap.Logger
}

// NewCSVSource creates a CSV source for path.
func NewCSVSource(path string, logger *zap.Logger) *CSVSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVSource{path: path, logger: logger.Named("csv")}
}

// NewCSVFromConfig is the registry factory. It requires the "path" setting.
func NewCSVFromConfig(cfg model.DataSourceConfiguration, opts Options) (Source, error) {
	path, err := requireSetting(cfg, "path")
	if err != nil {
		return nil, err
	}
	return NewCSVSource(path, opts.logger()), nil
}

// Name returns "csv".
func (s *CSVSource) Name() string {
	return "csv"
}

// Signals streams the file's rows. An empty or header-only file yields nothing.
func (s *CSVSource) Signals(ctx context.Context) iter.Seq2[model.SupportSignal, error] {
	return func(yield func(model.SupportSignal, error) bool) {
		f, err := os.Open(s.path)
		if err != nil {
			yield(model.SupportSignal{}, fmt.Errorf("open csv: %w", err))
			return
		}
		defer f.Close()

		r := csv.NewReader(f)
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true

		header, err := r.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(model.SupportSignal{}, fmt.Errorf("read csv header: %w", err))
			return
		}
		cols := mapColumns(header)

		prefix := strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
		row := 0
		for {
			if err := ctx.Err(); err != nil {
				yield(model.SupportSignal{}, err)
				return
			}

			record, err := r.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			row++
			// Required columns only matter once there is a row to read.
			if row == 1 {
				if err := s.checkColumns(cols); err != nil {
					yield(model.SupportSignal{}, err)
					return
				}
			}

			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				s.logger.Warn("skipping malformed csv row", zap.String("path", s.path), zap.Int("row", row), zap.Error(err))
				continue
			}
			if err != nil {
				yield(model.SupportSignal{}, fmt.Errorf("read csv: %w", err))
				return
			}

			sig, err := s.parseRecord(cols, record, prefix, row)
			if err != nil {
				s.logger.Warn("skipping malformed csv row", zap.String("path", s.path), zap.Int("row", row), zap.Error(err))
				continue
			}
			if !yield(sig, nil) {
				return
			}
		}
	}
}

func (s *CSVSource) checkColumns(cols map[string]int) error {
	if _, ok := cols["title"]; !ok {
		return fmt.Errorf("csv %s: no Summary column", s.path)
	}
	if _, ok := cols["created"]; !ok {
		return fmt.Errorf("csv %s: no Created column", s.path)
	}
	return nil
}

func (s *CSVSource) parseRecord(cols map[string]int, record []string, prefix string, row int) (model.SupportSignal, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	title := field("title")
	if title == "" {
		return model.SupportSignal{}, errors.New("empty summary")
	}
	created, err := parseCSVTime(field("created"))
	if err != nil {
		return model.SupportSignal{}, fmt.Errorf("created: %w", err)
	}

	sig := model.SupportSignal{
		ID:          field("id"),
		Title:       title,
		Description: field("description"),
		Source:      s.Name(),
		Timestamp:   created,
		NeedsReview: parseFlag(field("review")),
	}
	if sig.ID == "" {
		sig.ID = fmt.Sprintf("%s-%d", prefix, row)
	}
	if category := field("category"); category != "" {
		sig.Category = model.StringPtr(category)
	}
	if resolved := field("resolved"); resolved != "" {
		t, err := parseCSVTime(resolved)
		if err != nil {
			s.logger.Debug("ignoring unparseable resolved date", zap.String("value", resolved))
		} else {
			sig.ResolvedAt = &t
		}
	}
	return sig, nil
}

func mapColumns(header []string) map[string]int {
	cols := make(map[string]int)
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for name, aliases := range csvColumns {
			if _, seen := cols[name]; seen {
				continue
			}
			for _, alias := range aliases {
				if h == alias {
					cols[name] = i
				}
			}
		}
	}
	return cols
}

func parseCSVTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range csvTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", v)
}

func parseFlag(v string) bool {
	switch strings.ToLower(v) {
	case "true", "yes", "y", "1":
		return true
	}
	return false
}
