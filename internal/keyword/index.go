// Package keyword provides ranked full-text search over the book catalog.
package keyword

import (
	"context"

	"github.com/hyperjump/shiori/internal/models"
)

// KeywordIndex defines keyword search operations.
type KeywordIndex interface {
	Index(ctx context.Context, book *models.Book) error
	// Rebuild replaces the whole index content with books.
	Rebuild(ctx context.Context, books []models.Book) error
	// Search returns up to limit hits for query. A non-empty category restricts
	// hits to books carrying exactly that genre.
	Search(ctx context.Context, query, category string, limit int) ([]*KeywordResult, error)
	Delete(ctx context.Context, id string) error
	Close() error
	// DocCount returns the total number of books in the index.
	DocCount() (uint64, error)
}

// KeywordResult is a single keyword search hit.
type KeywordResult struct {
	ID    string
	Score float64
}
