package learning

import (
	"time"

	"github.com/supportinsights/support-insights/internal/model"
)

// Options tunes BuildTeamLearningData.
type Options struct {
	SampleLimit int
	TopK        int
	Bucket      time.Duration
	Trend       TrendOptions
}

// DefaultOptions returns the defaults used by the CLI.
func DefaultOptions() Options {
	return Options{
		SampleLimit: DefaultSampleLimit,
		TopK:        DefaultTopK,
		Bucket:      DefaultBucket,
		Trend:       TrendOptions{Epsilon: DefaultEpsilon},
	}
}

// BuildTeamLearningData assembles the full learning view for one team.
//
// Keyword suggestions and pattern trends are produced per active category;
// categories with no sample or no feedback are skipped. LastUpdated is the
// newest feedback timestamp so the view depends on its inputs only.
func BuildTeamLearningData(
	cfg model.TeamConfiguration,
	history []model.CategorizationFeedback,
	signals []model.SupportSignal,
	opts Options,
) model.TeamLearningData {
	acc := Accuracy(history)
	data := model.TeamLearningData{
		TeamName:               cfg.TeamName,
		CategorizationAccuracy: acc.Overall,
		PerCategoryAccuracy:    acc.PerCategory,
		FeedbackCount:          acc.Total,
		Misclassifications:     Misclassifications(history, opts.SampleLimit),
		KeywordSuggestions:     []model.KeywordSuggestion{},
		PatternTrends:          []model.PatternTrend{},
	}

	for _, fb := range history {
		if fb.Timestamp.After(data.LastUpdated) {
			data.LastUpdated = fb.Timestamp
		}
	}

	for _, cat := range cfg.ActiveCategories() {
		if s, ok := SuggestKeywords(history, signals, cat, opts.TopK); ok {
			data.KeywordSuggestions = append(data.KeywordSuggestions, s)
		}
		samples := EffectivenessHistory(history, cat.Name, opts.Bucket)
		if len(samples) == 0 {
			continue
		}
		data.PatternTrends = append(data.PatternTrends, Trend(cat.Name, samples, opts.Trend))
	}
	return data
}
