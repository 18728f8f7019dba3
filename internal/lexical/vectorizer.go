package lexical

import "github.com/hyperjump/shiori/internal/models"

// Vector holds term counts; position i counts the vocabulary term with index i.
type Vector []int

// Vectorize counts the book's terms against v. The result always has length v.Size().
// Terms missing from v (a stale vocabulary) are skipped.
func Vectorize(b models.Book, v *Vocabulary) Vector {
	vec := make(Vector, v.Size())
	for _, term := range BookTerms(b) {
		if i, ok := v.Index(term); ok {
			vec[i]++
		}
	}
	return vec
}

// VectorizeAll vectorizes every book against the same vocabulary, in catalog order.
func VectorizeAll(books []models.Book, v *Vocabulary) []Vector {
	out := make([]Vector, len(books))
	for i := range books {
		out[i] = Vectorize(books[i], v)
	}
	return out
}
