// Package vectordb stores embedded lecture sections for semantic search.
package vectordb

import "context"

// VectorStore stores and searches documents by embedding.
type VectorStore interface {
	// AddDocuments adds or replaces documents.
	AddDocuments(ctx context.Context, docs []Document) error

	// Search performs a semantic search using the query text.
	Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error)

	// Persist saves the store to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the store from the given directory.
	Load(ctx context.Context, dir string) error

	// Count returns the number of documents.
	Count() int
}
