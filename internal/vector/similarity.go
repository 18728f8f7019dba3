// Package vector provides similarity helpers for term-count vectors.
package vector

import "math"

// dot returns the dot product of two count vectors of equal length.
func dot(a, b []int) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// L2Norm returns the L2 norm of a count vector.
func L2Norm(x []int) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns dot(a,b) / (|a| * |b|).
// It is exactly 0 when either vector has zero norm. a and b must come from the
// same vocabulary; vectors of different length are not comparable and yield 0.
func CosineSimilarity(a, b []int) float64 {
	if len(a) != len(b) {
		return 0
	}
	na, nb := L2Norm(a), L2Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot(a, b) / (na * nb)
}
