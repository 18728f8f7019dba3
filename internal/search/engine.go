// Package search provides the catalog engine: search, recommendations and genres
// over an in-memory snapshot of the stored catalog.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/catalog"
	"github.com/hyperjump/shiori/internal/config"
	"github.com/hyperjump/shiori/internal/keyword"
	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/recommend"
	"github.com/hyperjump/shiori/internal/storage"
)

// CatalogObserver is notified with the catalog size after every reload.
type CatalogObserver interface {
	ObserveCatalog(books int)
}

// Engine serves reads from the current catalog snapshot. Reload swaps the
// snapshot atomically; books in a snapshot are never mutated.
type Engine struct {
	storage      storage.Storage
	keywordIndex keyword.KeywordIndex
	recommender  *recommend.Recommender
	searchConfig *config.SearchConfig
	recConfig    *config.RecommendConfig
	logger       *zap.Logger
	observer     CatalogObserver

	// reloadMu serializes Reload so snapshots are published in store order.
	reloadMu sync.Mutex

	mu    sync.RWMutex
	books []models.Book
	byID  map[string]int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithCatalogObserver sets an observer for catalog size changes.
func WithCatalogObserver(o CatalogObserver) Option {
	return func(e *Engine) { e.observer = o }
}

// NewEngine creates an engine with an empty snapshot. Call Reload to load the catalog.
func NewEngine(
	store storage.Storage,
	keywordIndex keyword.KeywordIndex,
	recommender *recommend.Recommender,
	searchCfg *config.SearchConfig,
	recCfg *config.RecommendConfig,
	opts ...Option,
) *Engine {
	e := &Engine{
		storage:      store,
		keywordIndex: keywordIndex,
		recommender:  recommender,
		searchConfig: searchCfg,
		recConfig:    recCfg,
		byID:         map[string]int{},
	}
	if e.recommender == nil {
		e.recommender = recommend.NewRecommender()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reload reads the catalog from storage, rebuilds the full-text index and swaps the snapshot.
// Concurrent calls run one at a time.
func (e *Engine) Reload(ctx context.Context) error {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	books, err := e.storage.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}
	if e.keywordIndex != nil {
		if err := e.keywordIndex.Rebuild(ctx, books); err != nil {
			return fmt.Errorf("failed to rebuild keyword index: %w", err)
		}
	}

	byID := make(map[string]int, len(books))
	for i := range books {
		if _, ok := byID[books[i].ID]; !ok {
			byID[books[i].ID] = i
		}
	}

	e.mu.Lock()
	e.books = books
	e.byID = byID
	e.mu.Unlock()

	if e.observer != nil {
		e.observer.ObserveCatalog(len(books))
	}
	if e.logger != nil {
		e.logger.Info("catalog loaded", zap.Int("books", len(books)))
	}
	return nil
}

// Books returns the current snapshot. Callers must not modify it.
func (e *Engine) Books() []models.Book {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.books
}

// Count returns the number of books in the snapshot.
func (e *Engine) Count() int {
	return len(e.Books())
}

// Get returns a copy of the book with id.
func (e *Engine) Get(id string) (*models.Book, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	i, ok := e.byID[id]
	if !ok {
		return nil, false
	}
	b := e.books[i]
	return &b, true
}

// Genres returns "all" followed by the distinct genres of the snapshot.
func (e *Engine) Genres() []string {
	return catalog.Genres(e.Books())
}

// Search runs a substring or full-text search over the snapshot.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	start := time.Now()
	if query.Mode == "" {
		query.Mode = models.SearchMode(e.searchConfig.DefaultMode)
	}
	if err := query.Validate(e.searchConfig.MaxLimit); err != nil {
		return nil, err
	}

	books := e.Books()
	var results []*models.SearchResult
	if query.Mode == models.SearchModeFulltext && strings.TrimSpace(query.Query) != "" {
		var err error
		results, err = e.searchFulltext(ctx, query)
		if err != nil {
			return nil, err
		}
	} else {
		matched := catalog.Filter(books, query.Query, query.Category)
		if query.Limit > 0 && len(matched) > query.Limit {
			matched = matched[:query.Limit]
		}
		results = make([]*models.SearchResult, len(matched))
		for i := range matched {
			results[i] = &models.SearchResult{Book: &matched[i], Rank: i + 1}
		}
	}

	return &models.SearchResponse{
		Results:   results,
		Total:     len(results),
		Query:     query.Query,
		Category:  query.Category,
		Mode:      query.Mode,
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

func (e *Engine) searchFulltext(ctx context.Context, query *models.SearchQuery) ([]*models.SearchResult, error) {
	if e.keywordIndex == nil {
		return nil, fmt.Errorf("full-text search is not available")
	}
	limit := query.Limit
	if limit == 0 {
		limit = e.searchConfig.DefaultLimit
	}
	category := query.Category
	if category == catalog.AllCategory {
		category = ""
	}

	hits, err := e.keywordIndex.Search(ctx, query.Query, category, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	results := make([]*models.SearchResult, 0, len(hits))
	for _, hit := range hits {
		book, ok := e.Get(hit.ID)
		if !ok {
			continue
		}
		results = append(results, &models.SearchResult{Book: book, Score: hit.Score, Rank: len(results) + 1})
	}
	return results, nil
}

// Recommend returns up to k books most similar to baseID. k is capped at the
// configured maximum. An unknown baseID yields an empty list, not an error.
func (e *Engine) Recommend(ctx context.Context, baseID string, k int) *models.RecommendResponse {
	start := time.Now()
	if maxK := e.recConfig.MaxTopK; maxK > 0 && k > maxK {
		k = maxK
	}

	e.mu.RLock()
	books, byID := e.books, e.byID
	e.mu.RUnlock()

	scored := e.recommender.Recommend(baseID, books, k)
	recs := make([]*models.Recommendation, 0, len(scored))
	for i, s := range scored {
		b := books[byID[s.ID]]
		recs = append(recs, &models.Recommendation{Book: &b, Score: s.Score, Rank: i + 1})
	}
	return &models.RecommendResponse{
		BaseID:          baseID,
		Recommendations: recs,
		QueryTime:       time.Since(start).Milliseconds(),
	}
}
