package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportinsights/support-insights/internal/insights"
	"github.com/supportinsights/support-insights/internal/model"
	"github.com/supportinsights/support-insights/internal/report"
	"github.com/supportinsights/support-insights/internal/search"
)

const cliSignals = `{"id":"s1","title":"Bank feed not syncing","timestamp":"2025-04-01T09:00:00Z"}
{"id":"s2","title":"TLS certificate expired","timestamp":"2025-04-02T09:00:00Z"}
{"id":"s3","title":"Printer jammed","timestamp":"2025-05-01T09:00:00Z"}
`

type workspace struct {
	dir        string
	configPath string
	signals    string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()

	signals := filepath.Join(dir, "signals.jsonl")
	require.NoError(t, os.WriteFile(signals, []byte(cliSignals), 0o644))

	settings := fmt.Sprintf(`paths:
  teams_dir: %s
  db: %s
  index: %s
  export_dir: %s
log:
  level: error
`, filepath.Join(dir, "teams"), filepath.Join(dir, "insights.db"), filepath.Join(dir, "index.bleve"), filepath.Join(dir, "exports"))
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(settings), 0o644))

	return &workspace{dir: dir, configPath: configPath, signals: signals}
}

// run executes the root command against the workspace settings.
func (w *workspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", w.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (w *workspace) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := w.run(t, args...)
	require.NoError(t, err, "support-insights %s", strings.Join(args, " "))
	return out
}

func (w *workspace) initAccounting(t *testing.T) {
	t.Helper()
	out := w.mustRun(t, "team", "init", "accounting",
		"--display-name", "Accounting",
		"--category", "BankFeeds:bank feed,sync",
		"--category", "Certificate:certificate,tls",
		"--source", "jsonl:path="+w.signals,
		"--manual-scoring",
	)
	assert.Contains(t, out, "Team accounting saved")
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "support-insights", cmd.Use)
	assert.NotNil(t, cmd.PersistentFlags().Lookup(flagConfig))
	assert.NotNil(t, cmd.PersistentFlags().Lookup(flagLogLevel))

	want := []string{
		"team", "ingest", "triage", "stats", "suggest", "trend", "similar",
		"summary", "search", "export", "schedule-export", "version",
	}
	for _, name := range want {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestCommandHelp(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"root", []string{"--help"}, "append-only feedback ledger"},
		{"team init", []string{"team", "init", "--help"}, "Name:keyword one,keyword two"},
		{"export", []string{"export", "--help"}, "--format"},
		{"search", []string{"search", "--help"}, "--reindex"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCmd()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	w := newWorkspace(t)
	out := w.mustRun(t, "version")
	assert.Contains(t, out, "Version:  dev")
	assert.Contains(t, out, "Commit:")
	assert.Contains(t, out, "Built:")
}

func TestTeamCommands(t *testing.T) {
	w := newWorkspace(t)

	out := w.mustRun(t, "team", "list")
	assert.Contains(t, out, "No teams configured.")

	w.initAccounting(t)

	_, err := w.run(t, "team", "init", "accounting")
	require.Error(t, err)
	assert.True(t, errors.Is(err, insights.ErrTeamExists))

	w.mustRun(t, "team", "init", "accounting", "--force",
		"--display-name", "Accounting",
		"--category", "BankFeeds:bank feed,sync",
		"--category", "Certificate:certificate,tls",
		"--source", "jsonl:path="+w.signals,
	)

	var teams []model.TeamConfiguration
	require.NoError(t, json.Unmarshal([]byte(w.mustRun(t, "team", "list", "--json")), &teams))
	require.Len(t, teams, 1)
	assert.Equal(t, "accounting", teams[0].TeamName)
	assert.Len(t, teams[0].Categories, 2)

	out = w.mustRun(t, "team", "show", "accounting")
	assert.Contains(t, out, "Accounting (accounting)")
	assert.Contains(t, out, "BankFeeds")
	assert.Contains(t, out, "bank feed, sync")
	assert.Contains(t, out, "jsonl (enabled)")

	_, err = w.run(t, "team", "show", "payroll")
	require.Error(t, err)
}

func TestTeamBootstrap(t *testing.T) {
	w := newWorkspace(t)
	w.initAccounting(t)

	sample := filepath.Join(w.dir, "sample.jsonl")
	require.NoError(t, os.WriteFile(sample, []byte(`{"id":"p1","title":"Bank feed sync failed","timestamp":"2025-04-01T09:00:00Z"}
`), 0o644))

	out := w.mustRun(t, "team", "bootstrap", "payroll", "--signals", sample, "--save")
	assert.Contains(t, out, "Bootstrap for payroll")
	assert.Contains(t, out, "accounting")

	out = w.mustRun(t, "team", "show", "payroll")
	assert.Contains(t, out, "BankFeeds")

	_, err := w.run(t, "team", "bootstrap", "payroll", "--signals", filepath.Join(w.dir, "sample.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported signal file")
}

func TestIngestTriageAndReports(t *testing.T) {
	w := newWorkspace(t)
	w.initAccounting(t)

	var ingested ingestReportJSON
	require.NoError(t, json.Unmarshal([]byte(w.mustRun(t, "ingest", "accounting", "--json")), &ingested))
	assert.Equal(t, "accounting", ingested.TeamName)
	assert.Equal(t, 3, ingested.Saved)
	assert.Equal(t, 1, ingested.NeedsReview)
	require.Len(t, ingested.Sources, 1)
	assert.Equal(t, "jsonl", ingested.Sources[0].SourceType)
	assert.Empty(t, ingested.Sources[0].Error)

	out := w.mustRun(t, "triage", "accounting", "s2", "BankFeeds")
	assert.Contains(t, out, "s2 recategorized: Certificate -> BankFeeds")
	assert.Contains(t, out, "score: 5")

	out = w.mustRun(t, "triage", "accounting", "s1", "bankfeeds", "--score", "9")
	assert.Contains(t, out, "s1 confirmed as BankFeeds")
	assert.Contains(t, out, "score: 9")

	_, err := w.run(t, "triage", "accounting", "s1", "Payroll")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidCategory))

	_, err = w.run(t, "triage", "accounting", "missing", "BankFeeds")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrSignalNotFound))

	t.Run("stats", func(t *testing.T) {
		var stats struct {
			CategorizationAccuracy float64 `json:"categorizationAccuracy"`
			FeedbackCount          int     `json:"feedbackCount"`
		}
		require.NoError(t, json.Unmarshal([]byte(w.mustRun(t, "stats", "accounting", "--json")), &stats))
		assert.Equal(t, 2, stats.FeedbackCount)
		assert.InDelta(t, 0.5, stats.CategorizationAccuracy, 1e-9)

		out := w.mustRun(t, "stats", "accounting")
		assert.Contains(t, out, "accuracy: 50.0%")
		assert.Contains(t, out, "Misclassifications:")
	})

	t.Run("summary", func(t *testing.T) {
		var summary report.Summary
		require.NoError(t, json.Unmarshal([]byte(w.mustRun(t, "summary", "accounting", "--json")), &summary))
		assert.Equal(t, 3, summary.Total)
		assert.Equal(t, 1, summary.Flagged)
		assert.Equal(t, 2, summary.UniqueCategories)

		csvPath := filepath.Join(w.dir, "out", "flagged.csv")
		out := w.mustRun(t, "summary", "accounting", "--review", "flagged", "--csv", csvPath)
		assert.Contains(t, out, "Support insights for accounting")
		assert.Contains(t, out, "Filtered signals written to")

		f, err := os.Open(csvPath)
		require.NoError(t, err)
		defer f.Close()
		records, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "s3", records[1][0])

		_, err = w.run(t, "summary", "accounting", "--review", "sometimes")
		require.Error(t, err)
	})

	t.Run("search", func(t *testing.T) {
		var results []search.SearchResult
		require.NoError(t, json.Unmarshal([]byte(w.mustRun(t, "search", "certificate", "--team", "accounting", "--json")), &results))
		require.NotEmpty(t, results)
		assert.Equal(t, "s2", results[0].SignalID)
		assert.Equal(t, "BankFeeds", results[0].Category)

		out := w.mustRun(t, "search", "--team", "accounting", "--reindex", "--counts")
		assert.Contains(t, out, "Reindexed 3 signals for accounting")
		assert.Contains(t, out, "BankFeeds")

		_, err := w.run(t, "search", "--reindex")
		require.Error(t, err)
	})

	t.Run("export", func(t *testing.T) {
		out := w.mustRun(t, "export", "--format", "jsonl")
		scanner := bufio.NewScanner(strings.NewReader(out))
		var lines int
		for scanner.Scan() {
			var ex model.TrainingExample
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &ex))
			assert.Equal(t, "accounting", ex.TeamContext)
			lines++
		}
		assert.Equal(t, 2, lines)

		path := filepath.Join(w.dir, "exports", "training.json")
		out = w.mustRun(t, "export", "--team", "accounting", "--output", path)
		assert.Contains(t, out, "Exported 2 examples from 1 teams")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var dataset model.TrainingDataset
		require.NoError(t, json.Unmarshal(data, &dataset))
		assert.Len(t, dataset.TrainingExamples, 2)
		assert.Equal(t, 2, dataset.CategoryDistribution["BankFeeds"])

		_, err = w.run(t, "export", "--format", "xml")
		require.Error(t, err)
	})
}

func TestStatsWithoutFeedback(t *testing.T) {
	w := newWorkspace(t)
	w.initAccounting(t)

	out := w.mustRun(t, "stats", "accounting")
	assert.Contains(t, out, "No triage feedback recorded yet")

	out = w.mustRun(t, "trend", "accounting")
	assert.Contains(t, out, "No trends")
}

func TestSimilarCommand(t *testing.T) {
	w := newWorkspace(t)
	w.initAccounting(t)

	out := w.mustRun(t, "similar", "--signals", w.signals)
	assert.Contains(t, out, "Similar teams (3 signals)")
	assert.Contains(t, out, "accounting")

	_, err := w.run(t, "similar")
	require.Error(t, err)
}
