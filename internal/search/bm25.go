package search

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

const (
	defaultLimit  = 10
	maxFacetTerms = 50
	categoryFacet = "category"
)

var resultFields = []string{"signalId", "team", "title", "description", "source", "category", "timestamp"}

// Search performs BM25 keyword search, optionally scoped to one team.
func (i *Indexer) Search(text, teamName string, limit int) ([]SearchResult, error) {
	return i.SearchQuery(Query{Text: text, Team: teamName, Limit: limit})
}

// SearchQuery performs BM25 search with team and category filters.
func (i *Indexer) SearchQuery(q Query) ([]SearchResult, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	searchRequest := bleve.NewSearchRequestOptions(buildQuery(q), limit, 0, false)
	searchRequest.Fields = resultFields

	results, err := i.bleveIndex.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}
	return convertBleveResults(results), nil
}

// CategoryCounts returns per-category hit counts for q, most frequent first.
// Uncategorized signals are not counted.
func (i *Indexer) CategoryCounts(q Query) ([]CategoryCount, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	searchRequest := bleve.NewSearchRequestOptions(buildQuery(q), 0, 0, false)
	searchRequest.AddFacet(categoryFacet, bleve.NewFacetRequest(categoryFacet, maxFacetTerms))

	results, err := i.bleveIndex.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("bleve facet search failed: %w", err)
	}

	counts := []CategoryCount{}
	facet, ok := results.Facets[categoryFacet]
	if !ok || facet.Terms == nil {
		return counts, nil
	}
	for _, term := range facet.Terms.Terms() {
		counts = append(counts, CategoryCount{Category: term.Term, Count: term.Count})
	}
	sort.SliceStable(counts, func(a, b int) bool {
		if counts[a].Count != counts[b].Count {
			return counts[a].Count > counts[b].Count
		}
		return counts[a].Category < counts[b].Category
	})
	return counts, nil
}

// buildQuery creates (match query) AND (team filter) AND (category filter).
func buildQuery(q Query) query.Query {
	var clauses []query.Query
	if strings.TrimSpace(q.Text) == "" {
		clauses = append(clauses, bleve.NewMatchAllQuery())
	} else {
		clauses = append(clauses, bleve.NewMatchQuery(q.Text))
	}
	if q.Team != "" {
		teamQuery := bleve.NewTermQuery(q.Team)
		teamQuery.SetField("team")
		clauses = append(clauses, teamQuery)
	}
	if q.Category != "" {
		categoryQuery := bleve.NewTermQuery(q.Category)
		categoryQuery.SetField("category")
		clauses = append(clauses, categoryQuery)
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return bleve.NewConjunctionQuery(clauses...)
}

// convertBleveResults converts Bleve hits to SearchResults.
func convertBleveResults(results *bleve.SearchResult) []SearchResult {
	searchResults := make([]SearchResult, 0, len(results.Hits))

	for _, hit := range results.Hits {
		signalID, _ := hit.Fields["signalId"].(string)
		team, _ := hit.Fields["team"].(string)
		title, _ := hit.Fields["title"].(string)
		description, _ := hit.Fields["description"].(string)
		source, _ := hit.Fields["source"].(string)
		category, _ := hit.Fields["category"].(string)

		result := SearchResult{
			SignalID:    signalID,
			TeamName:    team,
			Title:       title,
			Description: description,
			Source:      source,
			Category:    category,
			Score:       hit.Score,
		}
		if ts, ok := hit.Fields["timestamp"].(string); ok {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				result.Timestamp = t
			}
		}
		searchResults = append(searchResults, result)
	}
	return searchResults
}
