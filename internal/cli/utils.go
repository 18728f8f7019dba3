// Package cli provides CLI output formatting for shiori.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (use text or json)", s)
}

const separator = "─────────────────────────────────────────────────────────"

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	category := response.Category
	if category == "" {
		category = "all"
	}
	fmt.Fprintf(w, "\nFound %d books in %dms (mode: %s, category: %s)\n\n",
		response.Total, response.QueryTime, response.Mode, category)
	for _, r := range response.Results {
		fmt.Fprintln(w, separator)
		if r.Score > 0 {
			fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", r.Rank, r.Score)
		} else {
			fmt.Fprintf(w, "Rank: %d\n", r.Rank)
		}
		writeBook(w, r.Book)
	}
	return nil
}

// WriteRecommendations writes recommendations for a base book to w in the given format.
// base may be nil when the book is unknown.
func WriteRecommendations(w io.Writer, base *models.Book, response *models.RecommendResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	if base == nil {
		fmt.Fprintf(w, "\nNo book with id %q; nothing to recommend.\n", response.BaseID)
		return nil
	}
	fmt.Fprintf(w, "\nBooks similar to %q (%s), %d found in %dms\n\n",
		base.Title, base.ID, len(response.Recommendations), response.QueryTime)
	for _, r := range response.Recommendations {
		fmt.Fprintln(w, separator)
		fmt.Fprintf(w, "Rank: %d | Similarity: %.4f\n", r.Rank, r.Score)
		writeBook(w, r.Book)
	}
	return nil
}

// WriteBooks writes a catalog listing, one line per book.
func WriteBooks(w io.Writer, books []models.Book, format OutputFormat) error {
	if format == OutputJSON {
		if books == nil {
			books = []models.Book{}
		}
		return writeJSON(w, map[string]interface{}{"books": books, "total": len(books)})
	}
	for _, b := range books {
		fmt.Fprintf(w, "%-8s %s", b.ID, b.Title)
		if b.Author != "" {
			fmt.Fprintf(w, " by %s", b.Author)
		}
		if b.Year > 0 {
			fmt.Fprintf(w, " (%d)", b.Year)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "\n%d books\n", len(books))
	return nil
}

// WriteGenres writes the genre list.
func WriteGenres(w io.Writer, genres []string, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]interface{}{"genres": genres})
	}
	for _, g := range genres {
		fmt.Fprintln(w, g)
	}
	return nil
}

func writeBook(w io.Writer, b *models.Book) {
	fmt.Fprintf(w, "ID: %s\n", b.ID)
	fmt.Fprintf(w, "Title: %s\n", b.Title)
	if b.Author != "" {
		fmt.Fprintf(w, "Author: %s\n", b.Author)
	}
	if genres := utils.JoinNonEmpty(b.Genres, ", "); genres != "" {
		fmt.Fprintf(w, "Genres: %s\n", genres)
	}
	if tags := utils.JoinNonEmpty(b.Tags, ", "); tags != "" {
		fmt.Fprintf(w, "Tags: %s\n", tags)
	}
	if b.Description != "" {
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(b.Description, 200))
	}
	fmt.Fprintln(w)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
