package export

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportinsights/support-insights/internal/categorize"
	"github.com/supportinsights/support-insights/internal/ledger"
	"github.com/supportinsights/support-insights/internal/model"
)

var t0 = time.Date(2025, 2, 3, 8, 0, 0, 0, time.UTC)

type fakeConfigs map[string]model.TeamConfiguration

func (f fakeConfigs) Get(_ context.Context, team string) (model.TeamConfiguration, bool, error) {
	cfg, ok := f[team]
	return cfg, ok, nil
}

type fakeSignals map[string]model.SupportSignal

func (f fakeSignals) GetSignal(_ context.Context, _ string, id string) (model.SupportSignal, bool, error) {
	s, ok := f[id]
	return s, ok, nil
}

func fixture(t *testing.T) *Exporter {
	t.Helper()
	ctx := context.Background()

	l := ledger.NewMemoryLedger()
	record := func(team, id, predicted, actual string, at time.Time) {
		require.NoError(t, l.Record(ctx, team, model.NewFeedback(id, model.StringPtr(predicted), actual, at)))
	}
	record("accounting", "s1", "Certificate", "BankFeeds", t0)
	record("accounting", "s2", "Certificate", "BankFeeds", t0.Add(time.Hour))
	record("accounting", "s3", "Certificate", "BankFeeds", t0.Add(2*time.Hour))
	record("accounting", "s4", "Certificate", "Certificate", t0.Add(3*time.Hour))
	record("payroll", "p1", "Payslips", "Payslips", t0.Add(4*time.Hour))

	configs := fakeConfigs{
		"accounting": {
			TeamName: "accounting",
			Categories: []model.CategoryConfiguration{
				{Name: "Certificate", Keywords: []string{"certificate", "tls"}, IsActive: true},
				{Name: "BankFeeds", Keywords: []string{"bank", "feed"}, IsActive: true},
			},
		},
	}
	signals := fakeSignals{
		"s1": {ID: "s1", Title: "Bank feed down", Source: "csv"},
		"s2": {ID: "s2", Title: "Bank feed", Description: "missing lines", Source: "csv"},
		"s3": {ID: "s3", Title: "Feed stuck", Source: "slack"},
		"s4": {ID: "s4", Title: "TLS certificate", Description: "renewal", Source: "github"},
	}

	e := NewExporter(l, configs, signals)
	e.now = func() time.Time { return t0.Add(24 * time.Hour) }
	return e
}

func TestExportFiltersAndCounts(t *testing.T) {
	e := fixture(t)

	ds, err := e.Export(context.Background(), []string{"accounting"}, t0.Add(time.Hour))
	require.NoError(t, err)

	require.Len(t, ds.TrainingExamples, 3)
	assert.Equal(t, []string{"accounting"}, ds.Teams)
	assert.Equal(t, map[string]int{"BankFeeds": 2, "Certificate": 1}, ds.CategoryDistribution)
	assert.Equal(t, map[string]int{"accounting": 3}, ds.TeamDistribution)

	first := ds.TrainingExamples[0]
	assert.Equal(t, "Bank feed missing lines", first.InputText)
	assert.Equal(t, "BankFeeds", first.TrueCategory)
	assert.False(t, first.WasCorrect)
	assert.Equal(t, 0.0, first.ConfidenceScore)
	assert.Equal(t, "accounting", first.TeamContext)

	last := ds.TrainingExamples[2]
	assert.True(t, last.WasCorrect)
	assert.Equal(t, "github", last.Source)
	want := categorize.Confidence(categorize.KeywordWeight("certificate") + categorize.KeywordWeight("tls"))
	assert.InDelta(t, want, last.ConfidenceScore, 1e-9)
}

func TestExportAllTeams(t *testing.T) {
	e := fixture(t)

	ds, err := e.Export(context.Background(), nil, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{"accounting", "payroll"}, ds.Teams)
	assert.Len(t, ds.TrainingExamples, 5)
	assert.Equal(t, 1, ds.TeamDistribution["payroll"])

	// payroll has no config and p1 no stored signal; the example is still emitted.
	p1 := ds.TrainingExamples[4]
	assert.Equal(t, "", p1.InputText)
	assert.True(t, p1.WasCorrect)
}

func TestExportResolvesTeamAlias(t *testing.T) {
	e := fixture(t)
	configs := e.configs.(fakeConfigs)
	configs["Accounting"] = configs["accounting"]

	ds, err := e.Export(context.Background(), []string{"Accounting"}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{"accounting"}, ds.Teams)
	assert.Len(t, ds.TrainingExamples, 4)
	assert.Equal(t, map[string]int{"accounting": 4}, ds.TeamDistribution)
	assert.Equal(t, "accounting", ds.TrainingExamples[0].TeamContext)
}

func TestWriteJSONMatchesExport(t *testing.T) {
	e := fixture(t)
	ctx := context.Background()

	var buf bytes.Buffer
	dist, err := e.WriteJSON(ctx, &buf, nil, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, dist.Examples)

	var decoded model.TrainingDataset
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	expected, err := e.Export(ctx, nil, t0.Add(2*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, expected.Teams, decoded.Teams)
	assert.Equal(t, expected.CategoryDistribution, decoded.CategoryDistribution)
	assert.Equal(t, expected.TeamDistribution, decoded.TeamDistribution)
	require.Len(t, decoded.TrainingExamples, len(expected.TrainingExamples))
	for i := range expected.TrainingExamples {
		assert.Equal(t, expected.TrainingExamples[i].ID, decoded.TrainingExamples[i].ID)
		assert.Equal(t, expected.TrainingExamples[i].WasCorrect, decoded.TrainingExamples[i].WasCorrect)
	}
	assert.True(t, expected.GeneratedAt.Equal(decoded.GeneratedAt))
}

func TestWriteJSONEmptyLedger(t *testing.T) {
	e := NewExporter(ledger.NewMemoryLedger(), fakeConfigs{}, fakeSignals{})

	var buf bytes.Buffer
	_, err := e.WriteJSON(context.Background(), &buf, nil, time.Time{})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []any{}, decoded["trainingExamples"])
	assert.Equal(t, []any{}, decoded["teams"])
}

func TestWriteJSONL(t *testing.T) {
	e := fixture(t)
	ctx := context.Background()

	var buf bytes.Buffer
	dist, err := e.WriteJSONL(ctx, &buf, nil, t0.Add(2*time.Hour))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, dist.Examples)
	for _, line := range lines {
		var ex model.TrainingExample
		require.NoError(t, json.Unmarshal([]byte(line), &ex))
		assert.NotEmpty(t, ex.ID)
	}

	path := filepath.Join(t.TempDir(), "training.jsonl")
	fileDist, err := e.WriteJSONLFile(ctx, path, nil, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, dist, fileDist)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(data))
}

func TestWriteFileLocking(t *testing.T) {
	e := fixture(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out", "training.json")

	_, err := e.WriteFile(ctx, path, nil, time.Time{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	_, err = os.Stat(path + ".lock")
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	held, err := acquireFileLock(path)
	require.NoError(t, err)
	defer releaseFileLock(held)

	_, err = e.WriteFile(ctx, path, nil, time.Time{})
	assert.Error(t, err)
}

func TestSchedulerRunOnce(t *testing.T) {
	e := fixture(t)
	s := NewScheduler(e, nil)
	dir := t.TempDir()

	path, err := s.RunOnce(context.Background(), Job{Dir: dir, Lookback: 22 * time.Hour})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "training-20250204T080000Z.json"), path)

	var ds model.TrainingDataset
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &ds))
	// now is t0+24h, so only entries from t0+2h onward are included.
	assert.Len(t, ds.TrainingExamples, 3)
}

func TestSchedulerAdd(t *testing.T) {
	s := NewScheduler(fixture(t), nil)

	_, err := s.Add("not a schedule", Job{Dir: t.TempDir()})
	assert.Error(t, err)

	_, err = s.Add("0 9 * * 1-5", Job{})
	assert.Error(t, err)

	_, err = s.Add("0 9 * * 1-5", Job{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Len(t, s.Next(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.Run(ctx))
}
