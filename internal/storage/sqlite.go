package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/shiori/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist. ":memory:" is accepted for tests.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dbPath != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS books (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		author TEXT NOT NULL DEFAULT '',
		year INTEGER NOT NULL DEFAULT 0,
		genres TEXT NOT NULL DEFAULT '[]',
		tags TEXT NOT NULL DEFAULT '[]',
		description TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_books_position ON books(position);
	`
	_, err := db.Exec(schema)
	return err
}

const bookColumns = `id, title, author, year, genres, tags, description, content`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertBook(ctx context.Context, ex execer, b *models.Book, position int64, now time.Time) error {
	genres, tags, err := encodeLists(b)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx,
		`INSERT INTO books (`+bookColumns+`, position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, b.Author, b.Year, genres, tags, b.Description, b.Content, position, now, now,
	)
	return err
}

// CreateBook appends a book to the end of the catalog.
func (s *SQLiteStorage) CreateBook(ctx context.Context, book *models.Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), 0) + 1 FROM books`).Scan(&next); err != nil {
		return err
	}
	if err := insertBook(ctx, tx, book, next, time.Now()); err != nil {
		return fmt.Errorf("failed to insert book %s: %w", book.ID, err)
	}
	return tx.Commit()
}

// GetBook returns a book by ID.
func (s *SQLiteStorage) GetBook(ctx context.Context, id string) (*models.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateBook updates an existing book in place, keeping its catalog position.
func (s *SQLiteStorage) UpdateBook(ctx context.Context, book *models.Book) error {
	genres, tags, err := encodeLists(book)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE books SET title = ?, author = ?, year = ?, genres = ?, tags = ?, description = ?, content = ?, updated_at = ?
		 WHERE id = ?`,
		book.Title, book.Author, book.Year, genres, tags, book.Description, book.Content, time.Now(), book.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, book.ID)
	}
	return nil
}

// DeleteBook removes a book by ID.
func (s *SQLiteStorage) DeleteBook(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// ListBooks returns every book in catalog order.
func (s *SQLiteStorage) ListBooks(ctx context.Context) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := make([]models.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

// ReplaceAll deletes every book and inserts books in order, in one transaction.
func (s *SQLiteStorage) ReplaceAll(ctx context.Context, books []models.Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM books`); err != nil {
		return err
	}
	now := time.Now()
	for i := range books {
		if err := insertBook(ctx, tx, &books[i], int64(i+1), now); err != nil {
			return fmt.Errorf("failed to insert book %s: %w", books[i].ID, err)
		}
	}
	return tx.Commit()
}

// CountBooks returns the number of books.
func (s *SQLiteStorage) CountBooks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBook(row rowScanner) (*models.Book, error) {
	var (
		b            models.Book
		genres, tags string
	)
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Year, &genres, &tags, &b.Description, &b.Content); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(genres), &b.Genres); err != nil {
		return nil, fmt.Errorf("failed to unmarshal genres of %s: %w", b.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &b.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags of %s: %w", b.ID, err)
	}
	return &b, nil
}

func encodeLists(b *models.Book) (string, string, error) {
	genres, err := json.Marshal(nonNil(b.Genres))
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal genres: %w", err)
	}
	tags, err := json.Marshal(nonNil(b.Tags))
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(genres), string(tags), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
