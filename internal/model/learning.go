package model

import "time"

// MisclassificationPattern groups feedback entries sharing a (predicted, actual) pair
// where the two differ.
type MisclassificationPattern struct {
	PredictedCategory *string  `json:"predictedCategory,omitempty"`
	ActualCategory    string   `json:"actualCategory"`
	Count             int      `json:"count"`
	ExampleSignalIDs  []string `json:"exampleSignalIds"`
}

// KeywordCandidate is one proposed keyword with its own confidence.
type KeywordCandidate struct {
	Keyword    string  `json:"keyword"`
	Frequency  int     `json:"frequency"`
	Confidence float64 `json:"confidence"`
}

// KeywordSuggestion proposes keywords to add to a category.
type KeywordSuggestion struct {
	CategoryName      string             `json:"categoryName"`
	SuggestedKeywords []string           `json:"suggestedKeywords"`
	Candidates        []KeywordCandidate `json:"candidates"`
	Confidence        float64            `json:"confidence"`
	Reasoning         string             `json:"reasoning"`
	ExampleSignalIDs  []string           `json:"exampleSignalIds"`
}

// EffectivenessSample is the share of correctly predicted entries for a
// pattern within one time bucket.
type EffectivenessSample struct {
	At            time.Time `json:"at"`
	Effectiveness float64   `json:"effectiveness"`
	Total         int       `json:"total"`
}

// Trend labels.
const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDeclining = "declining"
)

// PatternTrend summarizes how a pattern's effectiveness moved over time.
type PatternTrend struct {
	Pattern string                `json:"pattern"`
	Trend   string                `json:"trend"`
	Recent  float64               `json:"recent"`
	Prior   float64               `json:"prior"`
	Samples []EffectivenessSample `json:"samples"`
}

// SimilarTeam is a team whose keyword vocabulary overlaps the candidate signals.
type SimilarTeam struct {
	TeamName        string   `json:"teamName"`
	SimilarityScore float64  `json:"similarityScore"`
	SharedKeywords  []string `json:"sharedKeywords"`
}

// TeamLearningData is the recomputed learning view for one team.
type TeamLearningData struct {
	TeamName               string                     `json:"teamName"`
	CategorizationAccuracy float64                    `json:"categorizationAccuracy"`
	PerCategoryAccuracy    map[string]float64         `json:"perCategoryAccuracy"`
	FeedbackCount          int                        `json:"feedbackCount"`
	Misclassifications     []MisclassificationPattern `json:"misclassifications"`
	KeywordSuggestions     []KeywordSuggestion        `json:"keywordSuggestions"`
	PatternTrends          []PatternTrend             `json:"patternTrends"`
	LastUpdated            time.Time                  `json:"lastUpdated"`
}
