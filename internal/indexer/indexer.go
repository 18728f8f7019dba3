// Package indexer writes books into the catalog store and refreshes the search snapshot.
package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/catalog"
	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/storage"
)

// ErrBookExists is returned when adding a book whose ID is already taken.
var ErrBookExists = errors.New("book already exists")

// Reloader refreshes a read snapshot after the store changed.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Indexer applies catalog changes to storage and then reloads the engine.
type Indexer struct {
	storage  storage.Storage
	loader   *catalog.Loader
	reloader Reloader
	logger   *zap.Logger // optional; when set, logs debug events
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (book added, catalog imported, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer. loader may be nil, in which case a default loader is used.
// reloader may be nil when no snapshot needs refreshing (e.g. one-shot CLI imports).
func NewIndexer(store storage.Storage, loader *catalog.Loader, reloader Reloader, opts ...IndexerOption) *Indexer {
	if loader == nil {
		loader = catalog.NewLoader()
	}
	idx := &Indexer{
		storage:  store,
		loader:   loader,
		reloader: reloader,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// AddBook validates input, assigns a UUID when the ID is empty, and appends the book to the catalog.
func (idx *Indexer) AddBook(ctx context.Context, input *models.BookInput) (*models.Book, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if input.ID == "" {
		input.ID = uuid.New().String()
	}
	if _, err := idx.storage.GetBook(ctx, input.ID); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrBookExists, input.ID)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check book: %w", err)
	}

	book := input.Book()
	normalizeBook(&book)
	if err := idx.storage.CreateBook(ctx, &book); err != nil {
		return nil, fmt.Errorf("failed to store book: %w", err)
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer book added", zap.String("id", book.ID), zap.String("title", book.Title))
	}
	if err := idx.reload(ctx); err != nil {
		return nil, err
	}
	return &book, nil
}

// DeleteBook removes a book from the catalog.
func (idx *Indexer) DeleteBook(ctx context.Context, id string) error {
	if err := idx.storage.DeleteBook(ctx, id); err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer book deleted", zap.String("id", id))
	}
	return idx.reload(ctx)
}

// Import loads a catalog file. With replace the stored catalog becomes exactly the
// file's books in file order; otherwise books are upserted by ID and new ones appended.
// Returns the number of books read from the file.
func (idx *Indexer) Import(ctx context.Context, path string, replace bool) (int, error) {
	books, err := idx.loader.Load(path)
	if err != nil {
		return 0, err
	}
	for i := range books {
		normalizeBook(&books[i])
	}

	if replace {
		if err := idx.storage.ReplaceAll(ctx, books); err != nil {
			return 0, fmt.Errorf("failed to replace catalog: %w", err)
		}
	} else {
		for i := range books {
			if err := idx.upsert(ctx, &books[i]); err != nil {
				return 0, err
			}
		}
	}
	if idx.logger != nil {
		idx.logger.Info("catalog imported",
			zap.String("path", path),
			zap.Int("books", len(books)),
			zap.Bool("replace", replace),
		)
	}
	return len(books), idx.reload(ctx)
}

func (idx *Indexer) upsert(ctx context.Context, book *models.Book) error {
	err := idx.storage.UpdateBook(ctx, book)
	if errors.Is(err, storage.ErrNotFound) {
		err = idx.storage.CreateBook(ctx, book)
	}
	if err != nil {
		return fmt.Errorf("failed to store book %s: %w", book.ID, err)
	}
	return nil
}

// SeedSample fills an empty store with the sample catalog. Reports whether it seeded.
func (idx *Indexer) SeedSample(ctx context.Context) (bool, error) {
	n, err := idx.storage.CountBooks(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count books: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if err := idx.storage.ReplaceAll(ctx, catalog.SampleBooks()); err != nil {
		return false, fmt.Errorf("failed to seed sample catalog: %w", err)
	}
	if idx.logger != nil {
		idx.logger.Info("seeded sample catalog")
	}
	return true, idx.reload(ctx)
}

func (idx *Indexer) reload(ctx context.Context) error {
	if idx.reloader == nil {
		return nil
	}
	if err := idx.reloader.Reload(ctx); err != nil {
		return fmt.Errorf("failed to reload catalog: %w", err)
	}
	return nil
}
