// Package recommend ranks catalog books by lexical similarity to a base book.
package recommend

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/lexical"
	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/vector"
)

// DefaultTopK is the number of recommendations returned when the caller does not choose.
const DefaultTopK = 4

// Scored is a candidate book ID with its cosine similarity to the base book.
type Scored struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Model is the vocabulary and per-book vectors built from one catalog snapshot.
// Vectors[i] belongs to the i-th book of that snapshot. A Model is read-only.
type Model struct {
	Vocabulary *lexical.Vocabulary
	Vectors    []lexical.Vector
}

// BuildModel builds a vocabulary from books and vectorizes every book exactly once.
func BuildModel(books []models.Book) *Model {
	vocab := lexical.BuildVocabulary(books)
	return &Model{
		Vocabulary: vocab,
		Vectors:    lexical.VectorizeAll(books, vocab),
	}
}

// Recommend returns the IDs of the topK books most similar to baseID.
// It returns an empty slice when baseID is not in books, when topK <= 0,
// or when no other book remains after excluding the base.
func Recommend(baseID string, books []models.Book, topK int) []string {
	return IDs(RecommendScored(baseID, books, topK))
}

// RecommendScored is Recommend with scores attached.
func RecommendScored(baseID string, books []models.Book, topK int) []Scored {
	if topK <= 0 || indexOf(books, baseID) < 0 {
		return []Scored{}
	}
	return rank(BuildModel(books), books, baseID, topK)
}

// IDs extracts the IDs of scored candidates, preserving order.
func IDs(scored []Scored) []string {
	ids := make([]string, len(scored))
	for i, s := range scored {
		ids[i] = s.ID
	}
	return ids
}

// rank scores every book except the base against the base vector. Candidates are
// ordered by descending score; equal scores keep catalog order.
func rank(m *Model, books []models.Book, baseID string, topK int) []Scored {
	base := indexOf(books, baseID)
	if base < 0 || topK <= 0 {
		return []Scored{}
	}
	baseVec := m.Vectors[base]
	candidates := make([]Scored, 0, len(books))
	for i := range books {
		if books[i].ID == baseID {
			continue
		}
		candidates = append(candidates, Scored{
			ID:    books[i].ID,
			Score: vector.CosineSimilarity(baseVec, m.Vectors[i]),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}

func indexOf(books []models.Book, id string) int {
	for i := range books {
		if books[i].ID == id {
			return i
		}
	}
	return -1
}

// Observer receives one call per recommendation request.
type Observer interface {
	ObserveRecommendation(found, cacheHit bool, returned int, elapsed time.Duration)
}

// Recommender wraps Recommend with an optional model cache, logging and metrics.
// It is safe for concurrent use.
type Recommender struct {
	cache    *ModelCache
	logger   *zap.Logger
	observer Observer
}

// Option configures a Recommender.
type Option func(*Recommender)

// WithCache reuses models across requests for identical catalogs.
func WithCache(c *ModelCache) Option {
	return func(r *Recommender) { r.cache = c }
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(r *Recommender) { r.logger = l }
}

// WithObserver sets a metrics observer.
func WithObserver(o Observer) Option {
	return func(r *Recommender) { r.observer = o }
}

// NewRecommender creates a Recommender. Without WithCache every call rebuilds the model.
func NewRecommender(opts ...Option) *Recommender {
	r := &Recommender{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recommend ranks books against baseID and returns up to topK scored candidates.
func (r *Recommender) Recommend(baseID string, books []models.Book, topK int) []Scored {
	start := time.Now()
	found := indexOf(books, baseID) >= 0
	if !found || topK <= 0 {
		r.observe(baseID, found, false, 0, start)
		return []Scored{}
	}

	var (
		model *Model
		hit   bool
	)
	if r.cache != nil {
		model, hit = r.cache.GetOrBuild(books)
	} else {
		model = BuildModel(books)
	}
	out := rank(model, books, baseID, topK)
	r.observe(baseID, true, hit, len(out), start)
	if r.logger != nil {
		r.logger.Debug("recommendations computed",
			zap.String("base_id", baseID),
			zap.Int("catalog_size", len(books)),
			zap.Int("vocabulary_size", model.Vocabulary.Size()),
			zap.Int("returned", len(out)),
			zap.Bool("cache_hit", hit),
		)
	}
	return out
}

func (r *Recommender) observe(baseID string, found, hit bool, returned int, start time.Time) {
	if !found && r.logger != nil {
		r.logger.Debug("recommendation base not in catalog", zap.String("base_id", baseID))
	}
	if r.observer != nil {
		r.observer.ObserveRecommendation(found, hit, returned, time.Since(start))
	}
}
