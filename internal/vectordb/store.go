package vectordb

import "context"

// VectorStore defines the interface for storing and searching document
// chunks by embeddings. Implementations must be safe for concurrent use.
type VectorStore interface {
	// AddChunks adds or replaces chunks in the store.
	AddChunks(ctx context.Context, chunks []Chunk) error

	// Search performs a semantic search using the query text. Results are
	// ordered by descending similarity; an empty store yields no results.
	Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error)

	// GetChunks returns every chunk of a document ordered by chunk id.
	GetChunks(ctx context.Context, docName string) ([]Chunk, error)

	// DeleteByDocName removes all chunks of the given document.
	DeleteByDocName(ctx context.Context, docName string) error

	// Persist saves the store's data to the given file.
	Persist(ctx context.Context, path string) error

	// Load restores the store's data from the given file.
	Load(ctx context.Context, path string) error

	// Count returns the total number of chunks in the store.
	Count() int
}
