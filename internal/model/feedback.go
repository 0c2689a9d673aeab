package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// CategorizationFeedback records what the engine predicted for a signal and
// what the analyst decided. Entries are append-only.
type CategorizationFeedback struct {
	ID       string `json:"id"`
	SignalID string `json:"signalId"`

	// PredictedCategory is nil when the engine left the signal uncategorized.
	PredictedCategory *string   `json:"predictedCategory,omitempty"`
	ActualCategory    string    `json:"actualCategory"`
	Timestamp         time.Time `json:"timestamp"`
}

// NewFeedback builds a feedback entry with a fresh ULID.
func NewFeedback(signalID string, predicted *string, actual string, at time.Time) CategorizationFeedback {
	return CategorizationFeedback{
		ID:                ulid.Make().String(),
		SignalID:          signalID,
		PredictedCategory: predicted,
		ActualCategory:    actual,
		Timestamp:         at,
	}
}

// WasCorrect reports whether the prediction matched the analyst's category.
func (f CategorizationFeedback) WasCorrect() bool {
	return f.PredictedCategory != nil && *f.PredictedCategory == f.ActualCategory
}

// Predicted returns the predicted category or "" when there was none.
func (f CategorizationFeedback) Predicted() string {
	if f.PredictedCategory == nil {
		return ""
	}
	return *f.PredictedCategory
}
