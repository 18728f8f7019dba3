// Package storage defines the persistence interface for the book catalog.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/shiori/internal/models"
)

// ErrNotFound is returned when a book does not exist.
var ErrNotFound = errors.New("book not found")

// Storage persists the catalog. ListBooks returns books in catalog order:
// insertion order, or file order after ReplaceAll.
type Storage interface {
	CreateBook(ctx context.Context, book *models.Book) error
	GetBook(ctx context.Context, id string) (*models.Book, error)
	UpdateBook(ctx context.Context, book *models.Book) error
	DeleteBook(ctx context.Context, id string) error
	ListBooks(ctx context.Context) ([]models.Book, error)

	// ReplaceAll swaps the whole catalog in one transaction.
	ReplaceAll(ctx context.Context, books []models.Book) error

	CountBooks(ctx context.Context) (int64, error)

	Close() error
}
