/*
Package categorize assigns support signals to team-defined categories.

Assignment is keyword based. Every active category is scored against the
signal text; each distinct keyword found as a case-insensitive substring adds
1 + ln(len(keyword)), so longer and more specific keywords weigh more and a
keyword repeated many times still counts once.

The default policy picks the highest score, breaking ties by lowest priority
and then by name. PolicyFirstMatch instead walks categories in priority order
and picks the first one with any match.
*/
package categorize

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/supportinsights/support-insights/internal/model"
)

// Policy selects how a winning category is chosen among scored candidates.
type Policy int

const (
	// PolicyWeightedScore picks the highest weighted score, ties by priority then name.
	PolicyWeightedScore Policy = iota

	// PolicyFirstMatch picks the first matching category in priority order.
	PolicyFirstMatch
)

// DefaultReviewThreshold is the confidence below which a signal is flagged for review.
const DefaultReviewThreshold = 0.7

// String returns the policy name used in configuration.
func (p Policy) String() string {
	switch p {
	case PolicyFirstMatch:
		return "first-match"
	default:
		return "weighted-score"
	}
}

// ParsePolicy maps a configuration string to a Policy. Unknown values fall back
// to PolicyWeightedScore.
func ParsePolicy(s string) Policy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first-match", "first_match", "firstmatch":
		return PolicyFirstMatch
	default:
		return PolicyWeightedScore
	}
}

// Result is the outcome of categorizing one signal.
type Result struct {
	// Category is nil when no active category matched.
	Category    *string
	Score       float64
	Confidence  float64
	NeedsReview bool
}

// Engine categorizes signals. It holds no per-call state and is safe for
// concurrent use.
type Engine struct {
	policy          Policy
	reviewThreshold float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy overrides the selection policy.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithReviewThreshold overrides the review confidence threshold.
func WithReviewThreshold(t float64) Option {
	return func(e *Engine) {
		e.reviewThreshold = clamp01(t)
	}
}

// NewEngine creates an engine with the weighted-score policy.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		policy:          PolicyWeightedScore,
		reviewThreshold: DefaultReviewThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the engine's selection policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// candidate is a scored active category.
type candidate struct {
	name     string
	priority int
	score    float64
}

// Categorize scores the signal against cfg and returns the winning category.
func (e *Engine) Categorize(signal model.SupportSignal, cfg model.TeamConfiguration) Result {
	text := strings.ToLower(signal.Text())

	active := cfg.ActiveCategories()
	candidates := make([]candidate, 0, len(active))
	for _, cat := range active {
		candidates = append(candidates, candidate{
			name:     cat.Name,
			priority: cat.Priority,
			score:    ScoreText(text, cat.Keywords),
		})
	}

	var best *candidate
	switch e.policy {
	case PolicyFirstMatch:
		best = firstMatch(candidates)
	default:
		best = highestScore(candidates)
	}

	if best == nil || best.score <= 0 {
		return Result{NeedsReview: true}
	}

	confidence := Confidence(best.score)
	return Result{
		Category:    model.StringPtr(best.name),
		Score:       best.score,
		Confidence:  confidence,
		NeedsReview: confidence < e.reviewThreshold,
	}
}

// CategorizeAll categorizes signals in input order.
func (e *Engine) CategorizeAll(signals []model.SupportSignal, cfg model.TeamConfiguration) []Result {
	results := make([]Result, len(signals))
	for i, s := range signals {
		results[i] = e.Categorize(s, cfg)
	}
	return results
}

// Apply returns a copy of signal with the categorization result written into it.
func (e *Engine) Apply(signal model.SupportSignal, cfg model.TeamConfiguration) model.SupportSignal {
	r := e.Categorize(signal, cfg)
	signal.Category = r.Category
	signal.Confidence = r.Confidence
	signal.NeedsReview = r.NeedsReview
	return signal
}

// highestScore picks the top score, ties by lowest priority then name.
func highestScore(candidates []candidate) *candidate {
	var best *candidate
	for i := range candidates {
		c := &candidates[i]
		if c.score <= 0 {
			continue
		}
		if best == nil || better(c, best) {
			best = c
		}
	}
	return best
}

func better(a, b *candidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.name < b.name
}

// firstMatch picks the first matching category in (priority, name) order.
func firstMatch(candidates []candidate) *candidate {
	ordered := make([]candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].priority != ordered[j].priority {
			return ordered[i].priority < ordered[j].priority
		}
		return ordered[i].name < ordered[j].name
	})
	for i := range ordered {
		if ordered[i].score > 0 {
			return &ordered[i]
		}
	}
	return nil
}

// ScoreText scores already-lowercased text against a keyword list.
func ScoreText(lowerText string, keywords []string) float64 {
	seen := make(map[string]struct{}, len(keywords))
	score := 0.0
	for _, raw := range keywords {
		kw := strings.ToLower(strings.TrimSpace(raw))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		if strings.Contains(lowerText, kw) {
			score += KeywordWeight(kw)
		}
	}
	return score
}

// KeywordWeight is 1 + ln(len(keyword)) with length counted in runes.
func KeywordWeight(keyword string) float64 {
	n := utf8.RuneCountInString(keyword)
	if n == 0 {
		return 0
	}
	return 1 + math.Log(float64(n))
}

// Confidence maps a score to score / (score + 1).
func Confidence(score float64) float64 {
	if score <= 0 {
		return 0
	}
	return clamp01(score / (score + 1))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(v, 1))
}
