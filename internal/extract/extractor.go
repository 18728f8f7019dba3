// Package extract reads the full text of a book from a content file.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Extractor extracts plain text from book content files (.txt, .md, .pdf, .docx).
type Extractor struct {
	maxRunes int
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithMaxRunes truncates extracted text to n runes. n <= 0 means no limit.
func WithMaxRunes(n int) ExtractorOption {
	return func(e *Extractor) { e.maxRunes = n }
}

// NewExtractor returns a new Extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Supported reports whether path has an extension Extract understands.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".rst", ".text", ".pdf", ".docx":
		return true
	}
	return false
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	if !Supported(path) {
		return "", fmt.Errorf("unsupported content file: %s", filepath.Base(path))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, strings.ToLower(filepath.Ext(path)))
}

// ExtractBytes extracts text from content based on ext (with leading dot).
// Unknown extensions are treated as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = extractPDF(content)
	case ".docx":
		text, err = extractDOCX(content)
	default:
		text = extractPlain(content)
	}
	if err != nil {
		return "", err
	}
	return e.truncate(text), nil
}

func (e *Extractor) truncate(text string) string {
	if e.maxRunes <= 0 || utf8.RuneCountInString(text) <= e.maxRunes {
		return text
	}
	n := 0
	for i := range text {
		if n == e.maxRunes {
			return text[:i]
		}
		n++
	}
	return text
}
