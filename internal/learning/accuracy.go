package learning

import (
	"github.com/supportinsights/support-insights/internal/model"
)

// AccuracyReport is the share of feedback entries where the prediction held.
type AccuracyReport struct {
	Overall     float64            `json:"overall"`
	PerCategory map[string]float64 `json:"perCategory"`
	Total       int                `json:"total"`
	Matches     int                `json:"matches"`
}

// Accuracy computes overall = matches/total and, per actual category,
// matches_for(actual)/total_for(actual). An empty history yields zeros.
func Accuracy(history []model.CategorizationFeedback) AccuracyReport {
	report := AccuracyReport{PerCategory: make(map[string]float64)}
	if len(history) == 0 {
		return report
	}

	totals := make(map[string]int)
	matches := make(map[string]int)
	for _, fb := range history {
		totals[fb.ActualCategory]++
		if fb.WasCorrect() {
			matches[fb.ActualCategory]++
			report.Matches++
		}
	}

	report.Total = len(history)
	report.Overall = float64(report.Matches) / float64(report.Total)
	for category, total := range totals {
		report.PerCategory[category] = float64(matches[category]) / float64(total)
	}
	return report
}
