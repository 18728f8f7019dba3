package indexer

import (
	"strings"
	"unicode"

	"github.com/hyperjump/shiori/internal/models"
)

// Preprocess normalizes a single-line field (trim, collapse whitespace).
func Preprocess(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}

// normalizeBook cleans the metadata fields of b. Content keeps its line structure.
func normalizeBook(b *models.Book) {
	b.Title = Preprocess(b.Title)
	b.Author = Preprocess(b.Author)
	b.Description = Preprocess(b.Description)
	b.Genres = cleanList(b.Genres)
	b.Tags = cleanList(b.Tags)
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = Preprocess(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
