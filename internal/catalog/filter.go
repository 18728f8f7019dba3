// Package catalog filters, lists, loads and validates book catalogs.
package catalog

import (
	"fmt"
	"strings"

	"github.com/hyperjump/shiori/internal/models"
)

// AllCategory is the category value that disables genre filtering.
const AllCategory = "all"

// Filter returns the books matching query and category, in catalog order.
// query is matched case-insensitively as a substring of title, author, tags and
// description; an empty query matches every book. category must be one of the
// book's genres unless it is empty or AllCategory.
func Filter(books []models.Book, query, category string) []models.Book {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Book, 0, len(books))
	for i := range books {
		if matches(&books[i], q, category) {
			out = append(out, books[i])
		}
	}
	return out
}

// Matches reports whether b passes Filter for query and category.
func Matches(b *models.Book, query, category string) bool {
	return matches(b, strings.ToLower(strings.TrimSpace(query)), category)
}

func matches(b *models.Book, q, category string) bool {
	if category != "" && category != AllCategory && !b.HasGenre(category) {
		return false
	}
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack(b)), q)
}

func haystack(b *models.Book) string {
	return b.Title + " " + b.Author + " " + strings.Join(b.Tags, " ") + " " + b.Description
}

// Genres returns AllCategory followed by every distinct genre in first-seen order.
func Genres(books []models.Book) []string {
	seen := make(map[string]struct{})
	out := []string{AllCategory}
	for i := range books {
		for _, g := range books[i].Genres {
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}
	return out
}

// Validate checks that every book has a non-empty unique ID and a title.
func Validate(books []models.Book) error {
	ids := make(map[string]int, len(books))
	for i := range books {
		id := books[i].ID
		if id == "" {
			return fmt.Errorf("book %d: id is required", i+1)
		}
		if strings.TrimSpace(books[i].Title) == "" {
			return fmt.Errorf("book %q: title is required", id)
		}
		if prev, ok := ids[id]; ok {
			return fmt.Errorf("book %d: duplicate id %q (first used by book %d)", i+1, id, prev+1)
		}
		ids[id] = i
	}
	return nil
}
