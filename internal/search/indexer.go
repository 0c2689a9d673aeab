package search

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/index/scorch"
	"github.com/blevesearch/bleve/v2/mapping"
	"go.uber.org/zap"

	"github.com/supportinsights/support-insights/internal/model"
)

// deletePageSize bounds each lookup when removing a team's documents.
const deletePageSize = 1000

// Indexer manages the search index for all teams' signals.
type Indexer struct {
	bleveIndex bleve.Index
	mu         sync.RWMutex
	indexPath  string
	logger     *zap.Logger
}

// NewIndexer creates a new search indexer with in-memory Bleve index.
func NewIndexer(logger *zap.Logger) (*Indexer, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}
	return &Indexer{
		bleveIndex: index,
		logger:     namedLogger(logger),
	}, nil
}

// NewIndexerWithPath opens or creates a persistent index at indexPath.
func NewIndexerWithPath(indexPath string, logger *zap.Logger) (*Indexer, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	index, err := bleve.Open(indexPath)
	if err != nil {
		index, err = bleve.NewUsing(indexPath, buildIndexMapping(), scorch.Name, scorch.Name, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to open/create index: %w", err)
		}
	}

	return &Indexer{
		bleveIndex: index,
		indexPath:  indexPath,
		logger:     namedLogger(logger),
	}, nil
}

func namedLogger(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.Named("search")
}

// buildIndexMapping creates the Bleve index mapping.
func buildIndexMapping() mapping.IndexMapping {
	signalMapping := bleve.NewDocumentMapping()

	signalMapping.AddFieldMappingsAt("title", bleve.NewTextFieldMapping())
	signalMapping.AddFieldMappingsAt("description", bleve.NewTextFieldMapping())

	// Exact-match fields for filters and facets.
	for _, field := range []string{"team", "category", "source", "signalId"} {
		fm := bleve.NewKeywordFieldMapping()
		fm.IncludeInAll = false
		signalMapping.AddFieldMappingsAt(field, fm)
	}

	timestampMapping := bleve.NewDateTimeFieldMapping()
	timestampMapping.IncludeInAll = false
	signalMapping.AddFieldMappingsAt("timestamp", timestampMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = signalMapping
	return indexMapping
}

// docID scopes signal IDs by team so teams never overwrite each other.
func docID(teamName, signalID string) string {
	return teamName + "/" + signalID
}

// IndexSignals adds or replaces a team's signals.
func (i *Indexer) IndexSignals(teamName string, signals []model.SupportSignal) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.bleveIndex.NewBatch()
	for _, sig := range signals {
		doc := map[string]interface{}{
			"signalId":    sig.ID,
			"team":        teamName,
			"title":       sig.Title,
			"description": sig.Description,
			"source":      sig.Source,
			"timestamp":   sig.Timestamp,
		}
		if sig.Category != nil {
			doc["category"] = *sig.Category
		}

		id := docID(teamName, sig.ID)
		if err := batch.Index(id, doc); err != nil {
			i.logger.Warn("failed to index signal", zap.String("id", id), zap.Error(err))
		}
	}

	if err := i.bleveIndex.Batch(batch); err != nil {
		return fmt.Errorf("failed to batch index signals: %w", err)
	}
	return nil
}

// RemoveTeam removes all of a team's signals (for reindexing).
func (i *Indexer) RemoveTeam(teamName string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	q := bleve.NewTermQuery(teamName)
	q.SetField("team")

	for {
		results, err := i.bleveIndex.Search(bleve.NewSearchRequestOptions(q, deletePageSize, 0, false))
		if err != nil {
			return fmt.Errorf("failed to find team docs: %w", err)
		}
		if len(results.Hits) == 0 {
			return nil
		}

		batch := i.bleveIndex.NewBatch()
		for _, hit := range results.Hits {
			batch.Delete(hit.ID)
		}
		if err := i.bleveIndex.Batch(batch); err != nil {
			return fmt.Errorf("failed to batch delete: %w", err)
		}
	}
}

// Count returns the total number of indexed signals.
func (i *Indexer) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	docCount, err := i.bleveIndex.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to get doc count: %w", err)
	}
	return docCount, nil
}

// Close closes the index and releases resources.
func (i *Indexer) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.bleveIndex != nil {
		return i.bleveIndex.Close()
	}
	return nil
}
