// Package retrieval answers "which books match this query" over the loaded
// corpus. Two strategies exist: a lexical index built in-process, and a
// remote index backed by an embeddings API and a vector store. The strategy
// is chosen once at startup.
package retrieval

import "context"

// Retriever returns up to n corpus titles ranked by relevance to the query.
type Retriever interface {
	Recommend(ctx context.Context, query string, n int) ([]string, error)
}
