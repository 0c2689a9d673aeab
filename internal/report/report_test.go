package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportinsights/support-insights/internal/model"
	"github.com/supportinsights/support-insights/internal/sources"
)

var t0 = time.Date(2025, 3, 30, 9, 15, 0, 0, time.UTC)

func dashboardSignals() []model.SupportSignal {
	resolved := t0.Add(72 * time.Hour)
	return []model.SupportSignal{
		{ID: "A-1", Title: "Bank feed missing", Timestamp: t0, Category: model.StringPtr("BankFeeds"), ResolvedAt: &resolved},
		{ID: "A-2", Title: "Feed duplicated", Timestamp: t0.Add(24 * time.Hour), Category: model.StringPtr("BankFeeds"), NeedsReview: true},
		{ID: "A-3", Title: "TLS expired", Timestamp: t0.Add(3 * 24 * time.Hour), Category: model.StringPtr("Certificate")},
		{ID: "A-4", Title: "Printer jammed", Timestamp: t0.Add(4 * 24 * time.Hour), NeedsReview: true},
		{ID: "A-5", Title: "Feed late", Timestamp: t0.Add(5 * 24 * time.Hour), Category: model.StringPtr("BankFeeds")},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(dashboardSignals(), Filter{})

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.Flagged)
	assert.Equal(t, 3, s.UniqueCategories)
	assert.Equal(t, 1, s.Resolved)

	assert.Equal(t, []CategoryStats{
		{Category: "BankFeeds", Total: 3, Flagged: 1, Resolved: 1},
		{Category: "Certificate", Total: 1},
		{Category: Uncategorized, Total: 1, Flagged: 1},
	}, s.Categories)

	assert.Equal(t, map[string]int{"YES": 2, "NO": 3}, s.ReviewFlags)

	assert.Equal(t, []MonthCount{
		{Month: "2025-03", Category: "BankFeeds", Count: 2},
		{Month: "2025-04", Category: "BankFeeds", Count: 1},
		{Month: "2025-04", Category: "Certificate", Count: 1},
		{Month: "2025-04", Category: Uncategorized, Count: 1},
	}, s.Timeline)

	require.Len(t, s.Recent, 5)
	assert.Equal(t, "A-5", s.Recent[0].ID)
	assert.Equal(t, "A-1", s.Recent[4].ID)
}

func TestSummarizeRecentLimit(t *testing.T) {
	var signals []model.SupportSignal
	for i := 0; i < 15; i++ {
		signals = append(signals, model.SupportSignal{ID: string(rune('a' + i)), Timestamp: t0.Add(time.Duration(i) * time.Hour)})
	}

	s := Summarize(signals, Filter{})
	require.Len(t, s.Recent, RecentLimit)
	assert.Equal(t, "o", s.Recent[0].ID)
	assert.Equal(t, "a", signals[0].ID, "input order untouched")
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, Filter{})
	assert.Zero(t, s.Total)
	assert.NotNil(t, s.Categories)
	assert.NotNil(t, s.Timeline)
	assert.NotNil(t, s.Recent)
	assert.Empty(t, s.ReviewFlags)
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"A-1", "A-2", "A-3", "A-4", "A-5"}},
		{"category case-insensitive", Filter{Category: "bankfeeds"}, []string{"A-1", "A-2", "A-5"}},
		{"uncategorized", Filter{Category: Uncategorized}, []string{"A-4"}},
		{"flagged", Filter{Review: ReviewFlagged}, []string{"A-2", "A-4"}},
		{"auto-assigned", Filter{Review: ReviewAutoAssigned}, []string{"A-1", "A-3", "A-5"}},
		{"date range", Filter{Since: t0.Add(24 * time.Hour), Until: t0.Add(4 * 24 * time.Hour)}, []string{"A-2", "A-3"}},
		{"combined", Filter{Category: "BankFeeds", Review: ReviewAutoAssigned, Since: t0.Add(time.Hour)}, []string{"A-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, sig := range tt.filter.Apply(dashboardSignals()) {
				got = append(got, sig.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseReviewStatus(t *testing.T) {
	tests := []struct {
		in   string
		want ReviewStatus
		ok   bool
	}{
		{"", ReviewAll, true},
		{"All", ReviewAll, true},
		{"flagged", ReviewFlagged, true},
		{"auto-assigned", ReviewAutoAssigned, true},
		{"AUTO", ReviewAutoAssigned, true},
		{"maybe", ReviewAll, false},
	}
	for _, tt := range tests {
		got, ok := ParseReviewStatus(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
	assert.Equal(t, "auto-assigned", ReviewAutoAssigned.String())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, dashboardSignals()[:4]))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Issue key", "Summary", "Category", "Created", "Resolved", "Review_Flag"}, rows[0])
	assert.Equal(t, []string{"A-1", "Bank feed missing", "BankFeeds", "30/03/2025 09:15", "02/04/2025 09:15", "NO"}, rows[1])
	assert.Equal(t, []string{"A-4", "Printer jammed", "", "03/04/2025 09:15", "", "YES"}, rows[4])
}

func TestWriteCSVReadsBackThroughSource(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, dashboardSignals()))

	path := filepath.Join(t.TempDir(), "download.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	got, err := sources.Collect(context.Background(), sources.NewCSVSource(path, nil))
	require.NoError(t, err)
	require.Len(t, got, 5)

	assert.Equal(t, "A-1", got[0].ID)
	assert.Equal(t, "BankFeeds", got[0].CategoryName())
	assert.True(t, got[0].Timestamp.Equal(t0))
	require.NotNil(t, got[0].ResolvedAt)
	assert.True(t, got[1].NeedsReview)
	assert.Nil(t, got[3].Category)
}
