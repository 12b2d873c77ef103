package retrieval

import (
	"fmt"
	"sort"
)

// match is a single hit from the transient index.
type match struct {
	// index is the position of the note in the loaded collection.
	index int
	// distance is the squared Euclidean distance to the query vector.
	// Lower is more similar.
	distance float64
}

// flatIndex is a brute-force squared-L2 index over one request's note
// vectors. It lives for a single query and is discarded afterwards; nothing
// is cached across requests.
type flatIndex struct {
	vectors [][]float32
	dim     int
}

// newFlatIndex builds an index over the given vectors. All vectors must
// share one dimension.
func newFlatIndex(vectors [][]float32) (*flatIndex, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no vectors to index")
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}
	return &flatIndex{vectors: vectors, dim: dim}, nil
}

// search returns the k nearest vectors by ascending squared-L2 distance.
// Equal distances keep insertion order.
func (idx *flatIndex) search(query []float32, k int) ([]match, error) {
	if len(query) != idx.dim {
		return nil, fmt.Errorf("query has dimension %d, index has %d", len(query), idx.dim)
	}

	matches := make([]match, len(idx.vectors))
	for i, v := range idx.vectors {
		matches[i] = match{index: i, distance: squaredL2(query, v)}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].distance < matches[b].distance
	})

	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

// squaredL2 computes the squared Euclidean distance between two vectors of
// equal length. Accumulates in float64 to keep the sum stable for
// large-magnitude embedding spaces.
func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
