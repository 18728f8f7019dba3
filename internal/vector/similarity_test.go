package vector

import (
	"math"
	"testing"
)

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	for _, v := range [][]int{{1}, {3, 0, 4}, {0, 0, 7, 1}, {2, 2, 2, 2, 2}} {
		got := CosineSimilarity(v, v)
		if math.Abs(got-1) > 1e-9 {
			t.Errorf("CosineSimilarity(%v, %v) = %v, want 1", v, v, got)
		}
	}
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	zero := []int{0, 0, 0}
	for _, other := range [][]int{{1, 2, 3}, {0, 0, 0}, {5, 0, 0}} {
		if got := CosineSimilarity(zero, other); got != 0 {
			t.Errorf("CosineSimilarity(zero, %v) = %v, want exactly 0", other, got)
		}
		if got := CosineSimilarity(other, zero); got != 0 {
			t.Errorf("CosineSimilarity(%v, zero) = %v, want exactly 0", other, got)
		}
	}
	if got := CosineSimilarity(nil, nil); got != 0 {
		t.Errorf("empty vectors: got %v", got)
	}
}

func TestCosineSimilarity_Values(t *testing.T) {
	tests := []struct {
		name string
		a, b []int
		want float64
	}{
		{"orthogonal", []int{1, 0}, []int{0, 1}, 0},
		{"parallel scaled", []int{1, 2}, []int{2, 4}, 1},
		{"partial overlap", []int{1, 1, 0}, []int{0, 1, 1}, 0.5},
		{"3-4-5", []int{3, 4}, []int{4, 3}, 24.0 / 25.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarity_LengthMismatch(t *testing.T) {
	if got := CosineSimilarity([]int{1, 2}, []int{1, 2, 3}); got != 0 {
		t.Errorf("mismatch: got %v, want 0", got)
	}
	if got := CosineSimilarity([]int{1, 2, 3}, []int{1, 2}); got != 0 {
		t.Errorf("mismatch (longer first): got %v, want 0", got)
	}
}

func TestDotAndNorm(t *testing.T) {
	if got := dot([]int{1, 2, 3}, []int{4, 5, 6}); got != 32 {
		t.Errorf("dot = %v, want 32", got)
	}
	if got := L2Norm([]int{3, 4}); got != 5 {
		t.Errorf("L2Norm = %v, want 5", got)
	}
}
