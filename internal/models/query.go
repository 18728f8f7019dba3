package models

import (
	"fmt"
	"strings"
)

// SearchMode selects how a search query is matched against the catalog.
type SearchMode string

const (
	// SearchModeSubstring is a case-insensitive substring match over title, author, tags and description.
	SearchModeSubstring SearchMode = "substring"
	// SearchModeFulltext is a ranked keyword search backed by the full-text index.
	SearchModeFulltext SearchMode = "fulltext"
)

// SearchQuery is a catalog search request. An empty Query matches every book.
type SearchQuery struct {
	Query    string     `json:"query"`
	Category string     `json:"category,omitempty"`
	Mode     SearchMode `json:"mode,omitempty"`
	Limit    int        `json:"limit,omitempty"`
}

// Validate normalizes the query and rejects unknown modes.
// Limit <= 0 means no limit for substring mode; maxLimit caps it when positive.
func (q *SearchQuery) Validate(maxLimit int) error {
	q.Category = strings.TrimSpace(q.Category)
	switch q.Mode {
	case "":
		q.Mode = SearchModeSubstring
	case SearchModeSubstring, SearchModeFulltext:
	default:
		return fmt.Errorf("%w: unknown search mode %q (supported: substring, fulltext)", ErrInvalidInput, q.Mode)
	}
	if q.Limit < 0 {
		q.Limit = 0
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return nil
}
