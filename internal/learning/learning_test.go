package learning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportinsights/support-insights/internal/model"
)

var t0 = time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

func fb(signalID, predicted, actual string, at time.Time) model.CategorizationFeedback {
	var p *string
	if predicted != "" {
		p = model.StringPtr(predicted)
	}
	return model.CategorizationFeedback{
		ID:                signalID + at.Format(time.RFC3339Nano),
		SignalID:          signalID,
		PredictedCategory: p,
		ActualCategory:    actual,
		Timestamp:         at,
	}
}

func scenarioHistory() []model.CategorizationFeedback {
	return []model.CategorizationFeedback{
		fb("s1", "Certificate", "BankFeeds", t0),
		fb("s2", "Certificate", "BankFeeds", t0.Add(time.Hour)),
		fb("s3", "Certificate", "BankFeeds", t0.Add(2*time.Hour)),
		fb("s4", "Certificate", "Certificate", t0.Add(3*time.Hour)),
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("TLS-certificate, needs renewal!! id 42 for the customer")
	assert.Equal(t, []string{"tls", "certificate", "needs", "renewal"}, got)
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("a an of to"))
}

func TestAccuracy(t *testing.T) {
	t.Run("scenario", func(t *testing.T) {
		acc := Accuracy(scenarioHistory())
		assert.Equal(t, 0.25, acc.Overall)
		assert.Equal(t, 4, acc.Total)
		assert.Equal(t, 1, acc.Matches)
		assert.Equal(t, 0.0, acc.PerCategory["BankFeeds"])
		assert.Equal(t, 1.0, acc.PerCategory["Certificate"])
	})

	t.Run("all correct", func(t *testing.T) {
		acc := Accuracy([]model.CategorizationFeedback{
			fb("a", "X", "X", t0), fb("b", "Y", "Y", t0),
		})
		assert.Equal(t, 1.0, acc.Overall)
	})

	t.Run("none correct", func(t *testing.T) {
		acc := Accuracy([]model.CategorizationFeedback{
			fb("a", "X", "Y", t0), fb("b", "", "Y", t0),
		})
		assert.Equal(t, 0.0, acc.Overall)
	})

	t.Run("empty", func(t *testing.T) {
		acc := Accuracy(nil)
		assert.Equal(t, 0.0, acc.Overall)
		assert.Empty(t, acc.PerCategory)
	})

	t.Run("reflects appends", func(t *testing.T) {
		history := scenarioHistory()
		history = append(history, fb("s5", "BankFeeds", "BankFeeds", t0.Add(4*time.Hour)))
		acc := Accuracy(history)
		assert.Equal(t, 5, acc.Total)
		assert.InDelta(t, 0.4, acc.Overall, 1e-9)
	})
}

func TestMisclassificationsScenario(t *testing.T) {
	patterns := Misclassifications(scenarioHistory(), DefaultSampleLimit)
	require.Len(t, patterns, 1)
	require.NotNil(t, patterns[0].PredictedCategory)
	assert.Equal(t, "Certificate", *patterns[0].PredictedCategory)
	assert.Equal(t, "BankFeeds", patterns[0].ActualCategory)
	assert.Equal(t, 3, patterns[0].Count)
	assert.Equal(t, []string{"s1", "s2", "s3"}, patterns[0].ExampleSignalIDs)
}

func TestMisclassificationsOrdering(t *testing.T) {
	history := []model.CategorizationFeedback{
		fb("a", "Tax", "Payroll", t0),
		fb("b", "", "Payroll", t0),
		fb("c", "Billing", "Payroll", t0),
		fb("d", "Tax", "Payroll", t0),
		fb("e", "Tax", "Tax", t0),
	}

	patterns := Misclassifications(history, 1)
	require.Len(t, patterns, 3)
	assert.Equal(t, 2, patterns[0].Count)
	assert.Equal(t, "Tax", *patterns[0].PredictedCategory)
	assert.Len(t, patterns[0].ExampleSignalIDs, 1)

	// Equal counts: no prediction sorts before any named prediction.
	assert.Nil(t, patterns[1].PredictedCategory)
	assert.Equal(t, "Billing", *patterns[2].PredictedCategory)

	for i := 1; i < len(patterns); i++ {
		assert.GreaterOrEqual(t, patterns[i-1].Count, patterns[i].Count)
	}

	history = append(history, fb("f", "Billing", "Payroll", t0))
	again := Misclassifications(history, 1)
	var billing model.MisclassificationPattern
	for _, p := range again {
		if p.PredictedCategory != nil && *p.PredictedCategory == "Billing" {
			billing = p
		}
	}
	assert.Equal(t, 2, billing.Count)
}

func TestMisclassificationsEmpty(t *testing.T) {
	assert.Empty(t, Misclassifications(nil, 5))
	assert.Empty(t, Misclassifications([]model.CategorizationFeedback{fb("a", "X", "X", t0)}, 5))
}

func TestSuggestKeywords(t *testing.T) {
	signals := []model.SupportSignal{
		{ID: "s1", Title: "Reconciliation mismatch on statement"},
		{ID: "s2", Title: "Statement import fails", Description: "bank connection"},
		{ID: "s3", Title: "Reconciliation stuck"},
		{ID: "s4", Title: "Bank feed down"},
	}
	history := []model.CategorizationFeedback{
		fb("s1", "Certificate", "BankFeeds", t0),
		fb("s1", "Certificate", "BankFeeds", t0.Add(time.Minute)),
		fb("s2", "", "BankFeeds", t0),
		fb("s3", "Certificate", "BankFeeds", t0),
		fb("s4", "BankFeeds", "BankFeeds", t0),
		fb("missing", "Certificate", "BankFeeds", t0),
	}
	category := model.CategoryConfiguration{Name: "BankFeeds", Keywords: []string{"bank", "feed"}, IsActive: true}

	s, ok := SuggestKeywords(history, signals, category, 3)
	require.True(t, ok)
	assert.Equal(t, "BankFeeds", s.CategoryName)
	assert.Equal(t, []string{"reconciliation", "statement", "connection"}, s.SuggestedKeywords)
	assert.InDelta(t, 2.0/3.0, s.Confidence, 1e-9)
	assert.Equal(t, []string{"s1", "s2", "s3"}, s.ExampleSignalIDs)
	require.Len(t, s.Candidates, 3)
	assert.Equal(t, 1, s.Candidates[2].Frequency)
	assert.NotContains(t, s.SuggestedKeywords, "bank")
	assert.NotEmpty(t, s.Reasoning)
}

func TestSuggestKeywordsNoSample(t *testing.T) {
	category := model.CategoryConfiguration{Name: "BankFeeds", Keywords: []string{"bank"}}
	_, ok := SuggestKeywords(scenarioHistory()[3:], nil, category, 3)
	assert.False(t, ok)

	_, ok = SuggestKeywords(nil, nil, category, 3)
	assert.False(t, ok)
}

func samples(values ...float64) []model.EffectivenessSample {
	out := make([]model.EffectivenessSample, len(values))
	for i, v := range values {
		out[i] = model.EffectivenessSample{At: t0.Add(time.Duration(i) * 24 * time.Hour), Effectiveness: v, Total: 1}
	}
	return out
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name string
		in   []model.EffectivenessSample
		opts TrendOptions
		want string
	}{
		{"no samples", nil, TrendOptions{}, model.TrendStable},
		{"one sample", samples(0.9), TrendOptions{}, model.TrendStable},
		{"constant", samples(0.5, 0.5, 0.5, 0.5), TrendOptions{}, model.TrendStable},
		{"improving", samples(0.2, 0.3, 0.8, 0.9), TrendOptions{}, model.TrendImproving},
		{"declining", samples(0.9, 0.8, 0.3, 0.2), TrendOptions{}, model.TrendDeclining},
		{"within epsilon", samples(0.50, 0.52), TrendOptions{}, model.TrendStable},
		{"halves", samples(0.5, 0.5, 0.5, 0.9, 0.9, 0.5), TrendOptions{}, model.TrendImproving},
		{"trailing window", samples(0.5, 0.5, 0.5, 0.9, 0.9, 0.5), TrendOptions{Window: 1}, model.TrendDeclining},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Trend("BankFeeds", tt.in, tt.opts)
			assert.Equal(t, tt.want, got.Trend)
			assert.Equal(t, "BankFeeds", got.Pattern)
		})
	}
}

func TestEffectivenessHistory(t *testing.T) {
	day := 24 * time.Hour
	history := []model.CategorizationFeedback{
		fb("a", "Tax", "Tax", t0),
		fb("b", "Payroll", "Tax", t0.Add(time.Hour)),
		fb("c", "Tax", "Tax", t0.Add(day)),
		fb("d", "Tax", "Payroll", t0.Add(day)),
	}

	got := EffectivenessHistory(history, "Tax", day)
	require.Len(t, got, 2)
	assert.Equal(t, 0.5, got[0].Effectiveness)
	assert.Equal(t, 2, got[0].Total)
	assert.Equal(t, 1.0, got[1].Effectiveness)
	assert.True(t, got[0].At.Before(got[1].At))

	assert.Empty(t, EffectivenessHistory(history, "Unknown", day))
}

func teams() []model.TeamConfiguration {
	return []model.TeamConfiguration{
		{
			TeamName: "security",
			Categories: []model.CategoryConfiguration{
				{Name: "Certificate", Keywords: []string{"certificate", "tls"}, Priority: 2, IsActive: true},
			},
			DataSources: []model.DataSourceConfiguration{
				{SourceType: "csv", IsEnabled: true, Settings: map[string]string{"path": "sec.csv"}},
			},
		},
		{
			TeamName: "banking",
			Categories: []model.CategoryConfiguration{
				{Name: "BankFeeds", Keywords: []string{"bank", "feed"}, Priority: 1, IsActive: true},
			},
		},
		{
			TeamName: "identity",
			Categories: []model.CategoryConfiguration{
				{Name: "Access", Keywords: []string{"password reset"}, IsActive: true},
			},
		},
	}
}

func TestSimilarTeams(t *testing.T) {
	signals := []model.SupportSignal{{ID: "n1", Title: "TLS certificate expired"}}

	similar := SimilarTeams(signals, teams(), 5)
	require.Len(t, similar, 1)
	assert.Equal(t, "security", similar[0].TeamName)
	assert.InDelta(t, 2.0/3.0, similar[0].SimilarityScore, 1e-9)
	assert.Equal(t, []string{"certificate", "tls"}, similar[0].SharedKeywords)

	assert.Empty(t, SimilarTeams(nil, teams(), 5))
}

func TestSimilarTeamsTieBreak(t *testing.T) {
	cfgs := []model.TeamConfiguration{
		{TeamName: "zeta", Categories: []model.CategoryConfiguration{{Name: "A", Keywords: []string{"invoice"}}}},
		{TeamName: "alpha", Categories: []model.CategoryConfiguration{{Name: "B", Keywords: []string{"invoice"}}}},
	}
	similar := SimilarTeams([]model.SupportSignal{{Title: "invoice wrong"}}, cfgs, 0)
	require.Len(t, similar, 2)
	assert.Equal(t, "alpha", similar[0].TeamName)
	assert.Equal(t, "zeta", similar[1].TeamName)

	assert.Len(t, SimilarTeams([]model.SupportSignal{{Title: "invoice wrong"}}, cfgs, 1), 1)
}

func TestBootstrapNewTeam(t *testing.T) {
	cfgs := append(teams(), model.TeamConfiguration{
		TeamName: "platform",
		Categories: []model.CategoryConfiguration{
			{Name: "certificate", Keywords: []string{"TLS", "ssl"}, Priority: 1, IsActive: false},
			{Name: "Renewals", Keywords: []string{"certificate"}, Priority: 4, IsActive: true},
		},
		DataSources: []model.DataSourceConfiguration{{SourceType: "slack", IsEnabled: true}},
	})
	signals := []model.SupportSignal{{ID: "n1", Title: "TLS certificate expired"}}

	result := BootstrapNewTeam("newteam", signals, cfgs)
	assert.Equal(t, "newteam", result.TeamName)

	// platform's keyword set {tls, ssl, certificate} scores 2/4, security's scores 2/3.
	assert.InDelta(t, 2.0/3.0, result.ConfidenceScore, 1e-9)
	require.Len(t, result.SuggestedCategories, 1)
	assert.Equal(t, "Certificate", result.SuggestedCategories[0].Name)
	require.Len(t, result.SuggestedDataSources, 1)
	assert.Equal(t, "csv", result.SuggestedDataSources[0].SourceType)

	result.SuggestedDataSources[0].Settings["path"] = "changed"
	assert.Equal(t, "sec.csv", cfgs[0].DataSources[0].Settings["path"])

	cfg := result.Configuration("New Team")
	assert.Equal(t, "newteam", cfg.TeamName)
	assert.Equal(t, "New Team", cfg.DisplayName)
}

func TestBootstrapMergesTiedTeams(t *testing.T) {
	cfgs := []model.TeamConfiguration{
		{
			TeamName: "beta",
			Categories: []model.CategoryConfiguration{
				{Name: "certificate", Keywords: []string{"TLS"}, Priority: 1, IsActive: false},
				{Name: "Renewals", Keywords: []string{"certificate"}, Priority: 4, IsActive: true},
			},
			DataSources: []model.DataSourceConfiguration{{SourceType: "slack", IsEnabled: true}},
		},
		{
			TeamName: "alpha",
			Categories: []model.CategoryConfiguration{
				{Name: "Certificate", Keywords: []string{"certificate", "tls"}, Priority: 2, IsActive: true},
			},
			DataSources: []model.DataSourceConfiguration{{SourceType: "csv", IsEnabled: true}},
		},
	}
	signals := []model.SupportSignal{{Title: "TLS certificate expired"}}

	result := BootstrapNewTeam("gamma", signals, cfgs)
	require.Len(t, result.SimilarTeams, 2)
	assert.Equal(t, "alpha", result.SimilarTeams[0].TeamName)

	require.Len(t, result.SuggestedCategories, 2)
	cert := result.SuggestedCategories[0]
	assert.Equal(t, "Certificate", cert.Name)
	assert.Equal(t, []string{"certificate", "tls"}, cert.Keywords)
	assert.Equal(t, 1, cert.Priority)
	assert.True(t, cert.IsActive)
	assert.Equal(t, "Renewals", result.SuggestedCategories[1].Name)

	require.Len(t, result.SuggestedDataSources, 1)
	assert.Equal(t, "csv", result.SuggestedDataSources[0].SourceType)
}

func TestBootstrapNoMatch(t *testing.T) {
	result := BootstrapNewTeam("newteam", []model.SupportSignal{{Title: "printer jammed"}}, teams())
	assert.Equal(t, 0.0, result.ConfidenceScore)
	assert.Empty(t, result.SuggestedCategories)
	assert.Empty(t, result.SuggestedDataSources)
	assert.Empty(t, result.SimilarTeams)
}

func TestBootstrapSkipsOwnTeam(t *testing.T) {
	result := BootstrapNewTeam("security", []model.SupportSignal{{Title: "TLS certificate expired"}}, teams())
	assert.Equal(t, 0.0, result.ConfidenceScore)
}

func TestBuildTeamLearningData(t *testing.T) {
	cfg := model.TeamConfiguration{
		TeamName: "accounting",
		Categories: []model.CategoryConfiguration{
			{Name: "Certificate", Keywords: []string{"certificate", "tls"}, IsActive: true},
			{Name: "BankFeeds", Keywords: []string{"bank", "feed"}, IsActive: true},
		},
	}
	signals := []model.SupportSignal{
		{ID: "s1", Title: "Reconciliation failing"},
		{ID: "s2", Title: "Reconciliation slow"},
		{ID: "s3", Title: "Reconciliation totals"},
		{ID: "s4", Title: "TLS certificate"},
	}

	data := BuildTeamLearningData(cfg, scenarioHistory(), signals, DefaultOptions())
	assert.Equal(t, "accounting", data.TeamName)
	assert.Equal(t, 0.25, data.CategorizationAccuracy)
	assert.Equal(t, 4, data.FeedbackCount)
	require.Len(t, data.Misclassifications, 1)
	require.Len(t, data.KeywordSuggestions, 1)
	assert.Equal(t, "reconciliation", data.KeywordSuggestions[0].SuggestedKeywords[0])
	assert.Equal(t, 1.0, data.KeywordSuggestions[0].Confidence)
	assert.Len(t, data.PatternTrends, 2)
	assert.Equal(t, t0.Add(3*time.Hour), data.LastUpdated)

	empty := BuildTeamLearningData(cfg, nil, nil, DefaultOptions())
	assert.Equal(t, 0.0, empty.CategorizationAccuracy)
	assert.Empty(t, empty.Misclassifications)
	assert.Empty(t, empty.PatternTrends)
}
