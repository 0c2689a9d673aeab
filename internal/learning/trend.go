package learning

import (
	"sort"
	"time"

	"github.com/supportinsights/support-insights/internal/model"
)

const (
	// DefaultEpsilon is the minimum change in average effectiveness that
	// counts as improving or declining.
	DefaultEpsilon = 0.05

	// DefaultBucket is the width of one effectiveness sample.
	DefaultBucket = 7 * 24 * time.Hour
)

// TrendOptions tunes Trend.
type TrendOptions struct {
	// Epsilon defaults to DefaultEpsilon when zero.
	Epsilon float64

	// Window, when positive and the history holds at least 2*Window samples,
	// compares the trailing Window samples with everything before them.
	// Otherwise the history is split in halves.
	Window int
}

// EffectivenessHistory buckets the feedback for one actual category by time
// and reports, per bucket, the share predicted correctly. Buckets without
// entries are omitted. Samples are in chronological order.
func EffectivenessHistory(history []model.CategorizationFeedback, category string, bucket time.Duration) []model.EffectivenessSample {
	if bucket <= 0 {
		bucket = DefaultBucket
	}

	type tally struct{ total, correct int }
	buckets := make(map[time.Time]*tally)
	for _, fb := range history {
		if fb.ActualCategory != category {
			continue
		}
		at := fb.Timestamp.UTC().Truncate(bucket)
		b, ok := buckets[at]
		if !ok {
			b = &tally{}
			buckets[at] = b
		}
		b.total++
		if fb.WasCorrect() {
			b.correct++
		}
	}

	samples := make([]model.EffectivenessSample, 0, len(buckets))
	for at, b := range buckets {
		samples = append(samples, model.EffectivenessSample{
			At:            at,
			Effectiveness: float64(b.correct) / float64(b.total),
			Total:         b.total,
		})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].At.Before(samples[j].At) })
	return samples
}

// Trend labels a pattern's effectiveness samples. Fewer than two samples is
// always stable.
func Trend(pattern string, samples []model.EffectivenessSample, opts TrendOptions) model.PatternTrend {
	eps := opts.Epsilon
	if eps <= 0 {
		eps = DefaultEpsilon
	}

	result := model.PatternTrend{
		Pattern: pattern,
		Trend:   model.TrendStable,
		Samples: samples,
	}
	if len(samples) < 2 {
		if len(samples) == 1 {
			result.Recent = samples[0].Effectiveness
			result.Prior = samples[0].Effectiveness
		}
		return result
	}

	split := len(samples) / 2
	if opts.Window > 0 && len(samples) >= 2*opts.Window {
		split = len(samples) - opts.Window
	}
	result.Prior = average(samples[:split])
	result.Recent = average(samples[split:])

	switch delta := result.Recent - result.Prior; {
	case delta > eps:
		result.Trend = model.TrendImproving
	case delta < -eps:
		result.Trend = model.TrendDeclining
	}
	return result
}

func average(samples []model.EffectivenessSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s.Effectiveness
	}
	return sum / float64(len(samples))
}
