// Package report builds the dashboard views over a team's stored signals:
// headline metrics, per-category breakdowns, a monthly timeline and a
// filtered CSV download.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/supportinsights/support-insights/internal/model"
)

// Uncategorized labels signals without a category.
const Uncategorized = "Uncategorized"

// RecentLimit is the number of signals listed under Recent.
const RecentLimit = 10

// MonthLayout formats timeline buckets.
const MonthLayout = "2006-01"

// ReviewStatus selects signals by their review flag.
type ReviewStatus int

const (
	// ReviewAll keeps every signal.
	ReviewAll ReviewStatus = iota
	// ReviewFlagged keeps signals flagged for review.
	ReviewFlagged
	// ReviewAutoAssigned keeps signals whose category was accepted automatically.
	ReviewAutoAssigned
)

func (s ReviewStatus) String() string {
	switch s {
	case ReviewFlagged:
		return "flagged"
	case ReviewAutoAssigned:
		return "auto-assigned"
	default:
		return "all"
	}
}

// ParseReviewStatus accepts "all", "flagged" and "auto-assigned" (also
// "auto"), case-insensitively. ok is false for anything else.
func ParseReviewStatus(s string) (ReviewStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ReviewAll, true
	case "flagged", "review":
		return ReviewFlagged, true
	case "auto-assigned", "auto_assigned", "auto":
		return ReviewAutoAssigned, true
	}
	return ReviewAll, false
}

// Filter narrows the signals a summary covers. Zero values mean no filter.
type Filter struct {
	// Category matches case-insensitively; "Uncategorized" selects signals
	// without a category.
	Category string
	Review   ReviewStatus

	// Since is inclusive, Until exclusive.
	Since time.Time
	Until time.Time
}

// Match reports whether sig passes the filter.
func (f Filter) Match(sig model.SupportSignal) bool {
	if f.Category != "" && !strings.EqualFold(categoryOf(sig), f.Category) {
		return false
	}
	switch f.Review {
	case ReviewFlagged:
		if !sig.NeedsReview {
			return false
		}
	case ReviewAutoAssigned:
		if sig.NeedsReview {
			return false
		}
	}
	if !f.Since.IsZero() && sig.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !sig.Timestamp.Before(f.Until) {
		return false
	}
	return true
}

// Apply returns the signals that pass the filter, in input order.
func (f Filter) Apply(signals []model.SupportSignal) []model.SupportSignal {
	out := make([]model.SupportSignal, 0, len(signals))
	for _, sig := range signals {
		if f.Match(sig) {
			out = append(out, sig)
		}
	}
	return out
}

// CategoryStats is one row of the category breakdown.
type CategoryStats struct {
	Category string `json:"category"`
	Total    int    `json:"total"`
	Flagged  int    `json:"flagged"`
	Resolved int    `json:"resolved"`
}

// MonthCount is the number of signals created in one month for one category.
type MonthCount struct {
	Month    string `json:"month"`
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Summary is the dashboard view of a set of signals.
type Summary struct {
	Total            int                   `json:"total"`
	Flagged          int                   `json:"flagged"`
	UniqueCategories int                   `json:"uniqueCategories"`
	Resolved         int                   `json:"resolved"`
	Categories       []CategoryStats       `json:"categories"`
	ReviewFlags      map[string]int        `json:"reviewFlags"`
	Timeline         []MonthCount          `json:"timeline"`
	Recent           []model.SupportSignal `json:"recent"`
}

// Summarize filters signals and computes the dashboard view. Categories are
// ordered by total descending then name; the timeline by month then category.
func Summarize(signals []model.SupportSignal, filter Filter) Summary {
	filtered := filter.Apply(signals)

	summary := Summary{
		Total:       len(filtered),
		Categories:  []CategoryStats{},
		ReviewFlags: map[string]int{},
		Timeline:    []MonthCount{},
		Recent:      []model.SupportSignal{},
	}

	byCategory := map[string]*CategoryStats{}
	type monthKey struct{ month, category string }
	byMonth := map[monthKey]int{}

	for _, sig := range filtered {
		cat := categoryOf(sig)
		stats, ok := byCategory[cat]
		if !ok {
			stats = &CategoryStats{Category: cat}
			byCategory[cat] = stats
		}
		stats.Total++

		summary.ReviewFlags[ReviewFlag(sig)]++
		if sig.NeedsReview {
			summary.Flagged++
			stats.Flagged++
		}
		if sig.ResolvedAt != nil {
			summary.Resolved++
			stats.Resolved++
		}
		if !sig.Timestamp.IsZero() {
			byMonth[monthKey{sig.Timestamp.UTC().Format(MonthLayout), cat}]++
		}
	}

	summary.UniqueCategories = len(byCategory)
	for _, stats := range byCategory {
		summary.Categories = append(summary.Categories, *stats)
	}
	sort.Slice(summary.Categories, func(i, j int) bool {
		a, b := summary.Categories[i], summary.Categories[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Category < b.Category
	})

	for k, n := range byMonth {
		summary.Timeline = append(summary.Timeline, MonthCount{Month: k.month, Category: k.category, Count: n})
	}
	sort.Slice(summary.Timeline, func(i, j int) bool {
		a, b := summary.Timeline[i], summary.Timeline[j]
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.Category < b.Category
	})

	summary.Recent = mostRecent(filtered, RecentLimit)
	return summary
}

// ReviewFlag renders the review flag the way Jira exports carry it.
func ReviewFlag(sig model.SupportSignal) string {
	if sig.NeedsReview {
		return "YES"
	}
	return "NO"
}

func categoryOf(sig model.SupportSignal) string {
	if sig.Category == nil || strings.TrimSpace(*sig.Category) == "" {
		return Uncategorized
	}
	return *sig.Category
}

func mostRecent(signals []model.SupportSignal, n int) []model.SupportSignal {
	recent := make([]model.SupportSignal, len(signals))
	copy(recent, signals)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})
	if len(recent) > n {
		recent = recent[:n]
	}
	return recent
}
