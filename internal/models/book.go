// Package models defines core data structures for books, queries, and results.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput marks request validation failures.
var ErrInvalidInput = errors.New("invalid input")

// Book is a single catalog entry. Books are read-only once they enter a catalog snapshot.
type Book struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Author      string   `json:"author" yaml:"author"`
	Year        int      `json:"year" yaml:"year"`
	Genres      []string `json:"genres" yaml:"genres"`
	Tags        []string `json:"tags" yaml:"tags"`
	Description string   `json:"description" yaml:"description"`
	// Content is the optional full text. It is never part of the recommendation token stream.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
	// ContentPath is an import-time pointer to a file to extract Content from.
	ContentPath string `json:"-" yaml:"content_path,omitempty"`
}

// BookInput is the input for adding a book through the API.
type BookInput struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Author      string   `json:"author,omitempty"`
	Year        int      `json:"year,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
	Content     string   `json:"content,omitempty"`
}

// Validate checks required fields and trims surrounding whitespace.
func (in *BookInput) Validate() error {
	in.ID = strings.TrimSpace(in.ID)
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	if in.Year < 0 {
		return fmt.Errorf("%w: year cannot be negative: %d", ErrInvalidInput, in.Year)
	}
	return nil
}

// Book converts the input to a Book. ID must already be set.
func (in *BookInput) Book() Book {
	return Book{
		ID:          in.ID,
		Title:       in.Title,
		Author:      in.Author,
		Year:        in.Year,
		Genres:      append([]string(nil), in.Genres...),
		Tags:        append([]string(nil), in.Tags...),
		Description: in.Description,
		Content:     in.Content,
	}
}

// HasGenre reports whether genre is one of the book's genres (exact match).
func (b *Book) HasGenre(genre string) bool {
	for _, g := range b.Genres {
		if g == genre {
			return true
		}
	}
	return false
}
