package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/shiori/internal/models"
)

const genresField = "genres"

// BleveIndex implements KeywordIndex using Bleve.
type BleveIndex struct {
	index     bleve.Index
	fuzziness int
}

// Option configures a BleveIndex.
type Option func(*BleveIndex)

// WithFuzziness enables typo tolerant matching with the given edit distance (1 or 2).
func WithFuzziness(n int) Option {
	return func(b *BleveIndex) {
		if n >= 0 && n <= 2 {
			b.fuzziness = n
		}
	}
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer lowercases and tokenizes without stemming, so "dragons" does not match "dragon".
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	for _, field := range []string{"title", "author", "tags", "description"} {
		docMapping.AddFieldMappingsAt(field, text)
	}
	docMapping.AddFieldMappingsAt(genresField, bleve.NewKeywordFieldMapping())
	im.AddDocumentMapping("book", docMapping)
	im.DefaultType = "book"
	im.DefaultMapping = docMapping
	return im
}

// NewBleveIndex creates or opens a Bleve index at path. An empty path creates an in-memory index.
// An existing index is reopened; callers rebuild it from the catalog after startup.
func NewBleveIndex(path string, opts ...Option) (*BleveIndex, error) {
	b := &BleveIndex{}
	for _, opt := range opts {
		opt(b)
	}

	if path == "" {
		index, err := bleve.NewMemOnly(newMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
		}
		b.index = index
		return b, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		b.index = index
		return b, nil
	}

	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	b.index = index
	return b, nil
}

func bookDocument(book *models.Book) map[string]interface{} {
	return map[string]interface{}{
		"title":       book.Title,
		"author":      book.Author,
		"tags":        book.Tags,
		genresField:   book.Genres,
		"description": book.Description,
	}
}

// Index indexes a single book by its ID.
func (b *BleveIndex) Index(ctx context.Context, book *models.Book) error {
	return b.index.Index(book.ID, bookDocument(book))
}

// Rebuild removes every indexed book and indexes books in one batch.
func (b *BleveIndex) Rebuild(ctx context.Context, books []models.Book) error {
	count, err := b.index.DocCount()
	if err != nil {
		return fmt.Errorf("failed to count indexed books: %w", err)
	}

	batch := b.index.NewBatch()
	if count > 0 {
		req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
		req.Size = int(count)
		existing, err := b.index.SearchInContext(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to list indexed books: %w", err)
		}
		for _, hit := range existing.Hits {
			batch.Delete(hit.ID)
		}
	}
	for i := range books {
		if err := batch.Index(books[i].ID, bookDocument(&books[i])); err != nil {
			return fmt.Errorf("failed to index book %s: %w", books[i].ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("Bleve batch failed: %w", err)
	}
	return nil
}

// Search runs a match query over all text fields. An empty query matches every book.
func (b *BleveIndex) Search(ctx context.Context, query, category string, limit int) ([]*KeywordResult, error) {
	if limit <= 0 {
		return []*KeywordResult{}, nil
	}

	var q blevequery.Query
	if strings.TrimSpace(query) == "" {
		q = bleve.NewMatchAllQuery()
	} else {
		mq := bleve.NewMatchQuery(query)
		if b.fuzziness > 0 {
			mq.SetFuzziness(b.fuzziness)
		}
		q = mq
	}
	if category != "" {
		tq := bleve.NewTermQuery(category)
		tq.SetField(genresField)
		q = bleve.NewConjunctionQuery(q, tq)
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*KeywordResult, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &KeywordResult{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// Delete removes a book from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the total number of books in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}
