package engine

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Neighbor is a catalog index paired with its similarity to a query item.
type Neighbor struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// SimilarityIndex holds the pairwise cosine similarity of every catalog item.
//
// The full n×n matrix is kept in memory, which bounds practical catalogs to a
// few tens of thousands of items. Larger catalogs need an approximate
// nearest-neighbour index queried per request instead.
type SimilarityIndex struct {
	n      int
	matrix *mat.SymDense
}

// NewSimilarityIndex computes cosine similarity for all pairs of vectors.
// Dot products are accumulated through an inverted term index so only
// co-occurring terms are visited. Zero vectors are dissimilar to everything
// except themselves.
func NewSimilarityIndex(vectors []FeatureVector) (*SimilarityIndex, error) {
	n := len(vectors)
	if n == 0 {
		return &SimilarityIndex{}, nil
	}

	dim := vectors[0].Dim
	norms := make([]float64, n)
	postings := make(map[int][]posting)
	for i, v := range vectors {
		if v.Dim != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, expected %d",
				ErrInvalidConfiguration, i, v.Dim, dim)
		}
		norms[i] = floats.Norm(v.Values, 2)
		for k, col := range v.Indices {
			postings[col] = append(postings[col], posting{doc: i, count: v.Values[k]})
		}
	}

	matrix := mat.NewSymDense(n, nil)
	raw := matrix.RawSymmetric()

	// Postings are in ascending document order, so a < b and (a, b) addresses
	// the stored upper triangle.
	for _, list := range postings {
		for x := 0; x < len(list); x++ {
			a := list[x]
			row := raw.Data[a.doc*raw.Stride:]
			for y := x + 1; y < len(list); y++ {
				b := list[y]
				row[b.doc] += a.count * b.count
			}
		}
	}

	for i := 0; i < n; i++ {
		row := raw.Data[i*raw.Stride:]
		row[i] = 1
		for j := i + 1; j < n; j++ {
			if norms[i] == 0 || norms[j] == 0 {
				row[j] = 0
				continue
			}
			row[j] /= norms[i] * norms[j]
		}
	}

	return &SimilarityIndex{n: n, matrix: matrix}, nil
}

type posting struct {
	doc   int
	count float64
}

// Len returns the number of indexed items.
func (s *SimilarityIndex) Len() int {
	return s.n
}

// Similarity returns the cosine similarity of items i and j.
func (s *SimilarityIndex) Similarity(i, j int) (float64, error) {
	if err := s.checkIndex(i); err != nil {
		return 0, err
	}
	if err := s.checkIndex(j); err != nil {
		return 0, err
	}
	return s.matrix.At(i, j), nil
}

// TopSimilar returns up to k items most similar to item i, excluding i itself,
// ordered by similarity descending and then by lower index.
func (s *SimilarityIndex) TopSimilar(i, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidConfiguration, k)
	}
	if err := s.checkIndex(i); err != nil {
		return nil, err
	}

	neighbors := make([]Neighbor, 0, s.n-1)
	for j := 0; j < s.n; j++ {
		if j == i {
			continue
		}
		neighbors = append(neighbors, Neighbor{Index: j, Score: s.matrix.At(i, j)})
	}

	sort.SliceStable(neighbors, func(a, b int) bool {
		return neighbors[a].Score > neighbors[b].Score
	})

	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

func (s *SimilarityIndex) checkIndex(i int) error {
	if i < 0 || i >= s.n {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrItemOutOfRange, i, s.n)
	}
	return nil
}
