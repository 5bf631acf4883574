package ledger

import (
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/google/uuid"

	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
)

// searchDoc is the indexed projection of a record. Amounts and dates stay in
// the store; search is about finding "that pharmacy transaction", not about
// numeric queries.
type searchDoc struct {
	Merchant    string `json:"merchant"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Account     string `json:"account"`
	Tags        string `json:"tags"`
}

// SearchIndex is a bleve full-text index over ledger records.
type SearchIndex struct {
	index bleve.Index
}

// OpenSearchIndex opens or creates the index at path. An empty path builds
// an in-memory index, used by dry runs and tests.
func OpenSearchIndex(path string) (*SearchIndex, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create search index: %w", err)
		}
		return &SearchIndex{index: idx}, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		idx, err := bleve.New(path, bleve.NewIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create search index at %s: %w", path, err)
		}
		return &SearchIndex{index: idx}, nil
	}

	idx, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open search index at %s: %w", path, err)
	}
	return &SearchIndex{index: idx}, nil
}

// Index adds or reindexes records. Deleted records drop out of the index so
// they stop surfacing in searches.
func (s *SearchIndex) Index(records ...*transaction.Record) error {
	batch := s.index.NewBatch()
	for _, rec := range records {
		id := rec.ID.String()
		if rec.Status == transaction.StatusDeleted {
			batch.Delete(id)
			continue
		}
		doc := searchDoc{
			Merchant:    rec.Merchant,
			Description: rec.Description,
			Category:    rec.Category,
			Account:     rec.Account,
			Tags:        strings.Join(rec.Tags, " "),
		}
		if err := batch.Index(id, doc); err != nil {
			return fmt.Errorf("failed to index record %s: %w", id, err)
		}
	}
	return s.index.Batch(batch)
}

// Search runs a query-string query and returns matching record ids, best
// match first.
func (s *SearchIndex) Search(query string, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 50
	}
	req := bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(query), limit, 0, false)
	res, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue // index entry from a different schema generation
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Close releases the index.
func (s *SearchIndex) Close() error { return s.index.Close() }
