package lexical

import "github.com/hyperjump/shiori/internal/models"

// Vocabulary maps each distinct term of one catalog snapshot to a dense index.
// Indices start at 0 and follow first-seen order. A Vocabulary is immutable once
// built and is only valid for the catalog it was built from.
type Vocabulary struct {
	terms []string
	index map[string]int
}

// BuildVocabulary scans books in catalog order (and each book in BookTerms order)
// and assigns the next free index to every term not seen before.
func BuildVocabulary(books []models.Book) *Vocabulary {
	v := &Vocabulary{index: make(map[string]int)}
	for i := range books {
		for _, term := range BookTerms(books[i]) {
			if _, ok := v.index[term]; ok {
				continue
			}
			v.index[term] = len(v.terms)
			v.terms = append(v.terms, term)
		}
	}
	return v
}

// Size returns the number of distinct terms.
func (v *Vocabulary) Size() int {
	if v == nil {
		return 0
	}
	return len(v.terms)
}

// Index returns the index of term.
func (v *Vocabulary) Index(term string) (int, bool) {
	if v == nil {
		return 0, false
	}
	i, ok := v.index[term]
	return i, ok
}

// Terms returns a copy of the terms in index order.
func (v *Vocabulary) Terms() []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v.terms...)
}
