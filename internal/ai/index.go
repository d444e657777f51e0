package ai

import (
	"fmt"
	"sort"
)

// FlatIndex is an exact inner-product similarity index over dense vectors.
// It holds everything in memory and scans linearly on search, which is fine
// for the per-question candidate sets it is built from. Not safe for
// concurrent mutation; build it, then search it.
type FlatIndex struct {
	dim     int
	vectors [][]float32
	ids     []string
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

// Add appends vectors with their identifiers. Every vector must match the
// index dimension and ids must pair one-to-one with vectors.
func (x *FlatIndex) Add(vectors [][]float32, ids []string) error {
	if len(vectors) != len(ids) {
		return fmt.Errorf("flat index: %d vectors for %d ids", len(vectors), len(ids))
	}
	for i, v := range vectors {
		if len(v) != x.dim {
			return fmt.Errorf("flat index: vector %d has dimension %d, want %d", i, len(v), x.dim)
		}
	}
	x.vectors = append(x.vectors, vectors...)
	x.ids = append(x.ids, ids...)
	return nil
}

// Len reports the number of indexed vectors.
func (x *FlatIndex) Len() int { return len(x.ids) }

// Search returns the ids of up to k vectors with the highest inner product
// against query, best first. An empty index or non-positive k returns nil.
func (x *FlatIndex) Search(query []float32, k int) ([]string, error) {
	if len(query) != x.dim {
		return nil, fmt.Errorf("flat index: query has dimension %d, want %d", len(query), x.dim)
	}
	if k <= 0 || len(x.ids) == 0 {
		return nil, nil
	}

	type scored struct {
		id    string
		score float32
	}
	hits := make([]scored, len(x.ids))
	for i, v := range x.vectors {
		hits[i] = scored{id: x.ids[i], score: dot(query, v)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if k > len(hits) {
		k = len(hits)
	}
	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = hits[i].id
	}
	return out, nil
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
