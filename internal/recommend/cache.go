package recommend

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hyperjump/shiori/internal/models"
)

// ModelCache keeps built models keyed by CatalogHash. Any change to a field that
// feeds the term stream (or to an ID) changes the key, so a cached model is never
// reused for a different catalog.
type ModelCache struct {
	models *lru.Cache[string, *Model]
}

// NewModelCache creates a cache holding up to size models.
func NewModelCache(size int) (*ModelCache, error) {
	c, err := lru.New[string, *Model](size)
	if err != nil {
		return nil, fmt.Errorf("create model cache: %w", err)
	}
	return &ModelCache{models: c}, nil
}

// GetOrBuild returns the cached model for books, building and storing it on a miss.
func (c *ModelCache) GetOrBuild(books []models.Book) (*Model, bool) {
	key := CatalogHash(books)
	if m, ok := c.models.Get(key); ok {
		return m, true
	}
	m := BuildModel(books)
	c.models.Add(key, m)
	return m, false
}

// Len returns the number of cached models.
func (c *ModelCache) Len() int {
	return c.models.Len()
}

// Purge drops every cached model.
func (c *ModelCache) Purge() {
	c.models.Purge()
}

// CatalogHash returns a SHA-256 over the ID and term-bearing fields of every book, in order.
func CatalogHash(books []models.Book) string {
	h := sha256.New()
	writeInt(h, len(books))
	for i := range books {
		b := &books[i]
		writeField(h, b.ID)
		writeField(h, b.Title)
		writeField(h, b.Description)
		writeList(h, b.Tags)
		writeList(h, b.Genres)
		writeField(h, b.Author)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeList(h hash.Hash, values []string) {
	writeInt(h, len(values))
	for _, v := range values {
		writeField(h, v)
	}
}

// writeField length-prefixes s so that adjacent fields cannot run together.
func writeField(h hash.Hash, s string) {
	writeInt(h, len(s))
	_, _ = h.Write([]byte(s))
}

func writeInt(h hash.Hash, n int) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(n))
	_, _ = h.Write(buf[:])
}
