package vectorstore

import "context"

// Point is a single stored document with its identifying metadata.
type Point struct {
	ID    string
	Title string
	Text  string
}

// Result is a Point with a similarity score attached.
type Result struct {
	Point
	Score float64
}

// Store persists embedding vectors and answers similarity queries.
// Implementations: Memory (in-process brute force) and Qdrant (REST).
type Store interface {
	// Init prepares the backing collection for vectors of the given
	// dimension. Idempotent.
	Init(ctx context.Context, dimension int) error

	// Upsert stores points with their vectors. Vectors must match the
	// dimension passed to Init.
	Upsert(ctx context.Context, points []Point, vectors [][]float64) error

	// Search returns the topK most similar points, best first.
	Search(ctx context.Context, vector []float64, topK int) ([]Result, error)
}
