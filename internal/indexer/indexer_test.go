package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/shiori/internal/catalog"
	"github.com/hyperjump/shiori/internal/extract"
	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/storage"
)

type countingReloader struct{ calls int }

func (r *countingReloader) Reload(ctx context.Context) error {
	r.calls++
	return nil
}

func testIndexer(t *testing.T) (*Indexer, storage.Storage, *countingReloader) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	reloader := &countingReloader{}
	loader := catalog.NewLoader(catalog.WithExtractor(extract.NewExtractor()))
	return NewIndexer(store, loader, reloader), store, reloader
}

func TestPreprocess(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello   world  ", "hello world"},
		{"a\n\tb", "a b"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Preprocess(tt.in); got != tt.want {
			t.Errorf("Preprocess(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAddBook_GeneratesID(t *testing.T) {
	idx, store, reloader := testIndexer(t)
	ctx := context.Background()

	book, err := idx.AddBook(ctx, &models.BookInput{
		Title:  "  Dune  ",
		Author: "Frank   Herbert",
		Tags:   []string{" desert ", ""},
	})
	if err != nil {
		t.Fatal(err)
	}
	if book.ID == "" {
		t.Fatal("expected generated id")
	}
	if book.Title != "Dune" || book.Author != "Frank Herbert" {
		t.Errorf("fields not normalized: %+v", book)
	}
	if len(book.Tags) != 1 || book.Tags[0] != "desert" {
		t.Errorf("tags not cleaned: %v", book.Tags)
	}
	if reloader.calls != 1 {
		t.Errorf("expected 1 reload, got %d", reloader.calls)
	}
	if _, err := store.GetBook(ctx, book.ID); err != nil {
		t.Errorf("book not stored: %v", err)
	}
}

func TestAddBook_RejectsDuplicateAndInvalid(t *testing.T) {
	idx, _, _ := testIndexer(t)
	ctx := context.Background()

	if _, err := idx.AddBook(ctx, &models.BookInput{ID: "x", Title: "X"}); err != nil {
		t.Fatal(err)
	}
	if _, err := idx.AddBook(ctx, &models.BookInput{ID: "x", Title: "Y"}); !errors.Is(err, ErrBookExists) {
		t.Errorf("expected ErrBookExists, got %v", err)
	}
	if _, err := idx.AddBook(ctx, &models.BookInput{Title: "   "}); err == nil {
		t.Error("expected validation error for empty title")
	}
}

func TestDeleteBook(t *testing.T) {
	idx, store, _ := testIndexer(t)
	ctx := context.Background()

	if _, err := idx.AddBook(ctx, &models.BookInput{ID: "d", Title: "Delete me"}); err != nil {
		t.Fatal(err)
	}
	if err := idx.DeleteBook(ctx, "d"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetBook(ctx, "d"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := idx.DeleteBook(ctx, "d"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestImport_ReplaceAndUpsert(t *testing.T) {
	idx, store, reloader := testIndexer(t)
	ctx := context.Background()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "hobbit.txt"), []byte("In a hole in the ground\r\nthere lived a hobbit."), 0600); err != nil {
		t.Fatal(err)
	}
	first := filepath.Join(dir, "books.yaml")
	if err := os.WriteFile(first, []byte(`
- id: 2
  title: Dune
- id: 1
  title: The Hobbit
  content_path: hobbit.txt
`), 0600); err != nil {
		t.Fatal(err)
	}
	n, err := idx.Import(ctx, first, true)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 books imported, got %d", n)
	}
	list, _ := store.ListBooks(ctx)
	if len(list) != 2 || list[0].ID != "2" || list[1].ID != "1" {
		t.Fatalf("unexpected catalog: %+v", list)
	}
	if list[1].Content != "In a hole in the ground\nthere lived a hobbit." {
		t.Errorf("content not extracted: %q", list[1].Content)
	}

	second := filepath.Join(dir, "more.json")
	if err := os.WriteFile(second, []byte(`[{"id": 1, "title": "The Hobbit, revised"}, {"id": "3", "title": "Eragon"}]`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := idx.Import(ctx, second, false); err != nil {
		t.Fatal(err)
	}
	list, _ = store.ListBooks(ctx)
	if len(list) != 3 || list[1].Title != "The Hobbit, revised" || list[2].ID != "3" {
		t.Errorf("unexpected catalog after upsert: %+v", list)
	}
	if reloader.calls != 2 {
		t.Errorf("expected 2 reloads, got %d", reloader.calls)
	}
}

func TestImport_InvalidFileLeavesCatalog(t *testing.T) {
	idx, store, _ := testIndexer(t)
	ctx := context.Background()
	if _, err := idx.SeedSample(ctx); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("- id: 1\n  title: A\n- id: 1\n  title: B\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := idx.Import(ctx, bad, true); err == nil {
		t.Fatal("expected duplicate id error")
	}
	if n, _ := store.CountBooks(ctx); n != 5 {
		t.Errorf("catalog should be unchanged, got %d books", n)
	}
}

func TestSeedSample(t *testing.T) {
	idx, store, _ := testIndexer(t)
	ctx := context.Background()

	seeded, err := idx.SeedSample(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !seeded {
		t.Error("expected empty store to be seeded")
	}
	if n, _ := store.CountBooks(ctx); n != 5 {
		t.Errorf("expected 5 books, got %d", n)
	}
	seeded, err = idx.SeedSample(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if seeded {
		t.Error("non-empty store must not be seeded again")
	}
}
