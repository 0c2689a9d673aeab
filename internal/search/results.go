/*
Package search implements full-text search over ingested support signals.

Signals are indexed with Bleve (BM25 scoring). Title and description are
analyzed text; team and category are keyword fields used for exact filtering
and category facets.
*/
package search

import "time"

// SearchResult represents a single search hit with relevance score.
type SearchResult struct {
	SignalID    string    `json:"signalId"`
	TeamName    string    `json:"team"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	Category    string    `json:"category,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Score       float64   `json:"score"`
}

// Query scopes a search. Empty Text matches every signal in scope.
type Query struct {
	Text     string
	Team     string
	Category string
	Limit    int
}

// CategoryCount is one category facet bucket.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}
