package vectorstore

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Memory is an in-process Store using brute-force cosine similarity.
// Vectors are assumed L2-normalized, so similarity reduces to a dot product.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	points    []Point
	vectors   [][]float64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dimension = dimension
	m.points = nil
	m.vectors = nil
	return nil
}

func (m *Memory) Upsert(_ context.Context, points []Point, vectors [][]float64) error {
	if len(points) != len(vectors) {
		return errors.New("points and vectors length mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vectors {
		if len(v) != m.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	m.points = append(m.points, points...)
	m.vectors = append(m.vectors, vectors...)
	return nil
}

func (m *Memory) Search(_ context.Context, vector []float64, topK int) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if topK <= 0 {
		topK = 3
	}

	results := make([]Result, len(m.points))
	for i := range m.points {
		results[i] = Result{Point: m.points[i], Score: dot(m.vectors[i], vector)}
	}
	// Stable sort keeps insertion order on ties.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
