package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/apetrei/librarian/internal/library"
	"github.com/apetrei/librarian/internal/vectorstore"
)

// Embedder converts text into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Remote ranks books by embedding similarity against a vector store
// collection built once at construction.
type Remote struct {
	embedder Embedder
	store    vectorstore.Store
}

// NewRemote embeds every book summary and loads the vector store collection.
// The returned retriever treats the store's ranking as authoritative.
func NewRemote(ctx context.Context, embedder Embedder, store vectorstore.Store, books []library.Book) (*Remote, error) {
	if len(books) == 0 {
		return nil, errors.New("empty corpus")
	}

	texts := make([]string, len(books))
	points := make([]vectorstore.Point, len(books))
	for i, b := range books {
		texts[i] = b.Summary
		points[i] = vectorstore.Point{
			ID:    strconv.Itoa(i),
			Title: b.Title,
			Text:  b.Summary,
		}
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding corpus: %w", err)
	}
	if err := store.Init(ctx, len(vectors[0])); err != nil {
		return nil, fmt.Errorf("initializing vector store: %w", err)
	}
	if err := store.Upsert(ctx, points, vectors); err != nil {
		return nil, fmt.Errorf("loading vector store: %w", err)
	}

	return &Remote{embedder: embedder, store: store}, nil
}

// Recommend embeds the query and returns the store's top-n titles.
func (r *Remote) Recommend(ctx context.Context, query string, n int) ([]string, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	results, err := r.store.Search(ctx, vec, n)
	if err != nil {
		return nil, fmt.Errorf("searching vector store: %w", err)
	}

	titles := make([]string, 0, len(results))
	for _, res := range results {
		titles = append(titles, res.Title)
	}
	return titles, nil
}
