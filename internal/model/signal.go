/*
Package model defines the records shared by every support-insights component.

Signals arrive from sources, team configurations come from the configuration
store, and feedback entries are appended by triage. Everything else (learning
views, training datasets) is derived from those three.
*/
package model

import "time"

// SupportSignal is a single support issue pulled from a source.
//
// Only Category and ManualScore change after ingestion; triage overwrites them.
type SupportSignal struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`

	// Category is nil until the signal has been categorized.
	Category *string `json:"category,omitempty"`

	// ManualScore is set by triage when manual scoring is enabled.
	ManualScore *float64 `json:"manualScore,omitempty"`

	// Confidence of the automatic assignment, 0 when uncategorized.
	Confidence float64 `json:"confidence"`

	// NeedsReview marks signals an analyst should look at.
	NeedsReview bool `json:"needsReview"`

	// ResolvedAt is copied from sources that track resolution.
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`

	// Triaged is set once an analyst has confirmed or corrected Category.
	Triaged bool `json:"triaged,omitempty"`
}

// Text returns the categorization input for the signal.
func (s SupportSignal) Text() string {
	return s.Title + " " + s.Description
}

// CategoryName returns the assigned category or "" when unset.
func (s SupportSignal) CategoryName() string {
	if s.Category == nil {
		return ""
	}
	return *s.Category
}

// StringPtr returns a pointer to a copy of v.
func StringPtr(v string) *string {
	return &v
}

// Float64Ptr returns a pointer to a copy of v.
func Float64Ptr(v float64) *float64 {
	return &v
}
