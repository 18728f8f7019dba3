// Package lexical turns books into term streams, vocabularies, and term-count vectors.
package lexical

import (
	"strings"

	"github.com/hyperjump/shiori/internal/models"
)

// Tokenize lowercases text and splits it into runs of Latin letters, digits and
// Cyrillic letters. Every other rune separates tokens. Order and multiplicity are kept.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isTokenRune(r)
	})
}

func isTokenRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r >= 'а' && r <= 'я', r == 'ё':
		return true
	}
	return false
}

// BookTerms returns the term stream of a book in field order: title, description,
// tags, genres, author. Tags and genres are lowercased whole and never split.
func BookTerms(b models.Book) []string {
	terms := Tokenize(b.Title)
	terms = append(terms, Tokenize(b.Description)...)
	for _, tag := range b.Tags {
		terms = append(terms, strings.ToLower(tag))
	}
	for _, genre := range b.Genres {
		terms = append(terms, strings.ToLower(genre))
	}
	return append(terms, Tokenize(b.Author)...)
}
