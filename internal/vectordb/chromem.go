package vectordb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/runbookqa/internal/embeddings"
)

const collectionName = "knowledge_base"

// Options tune how texts are embedded on each side of the index.
type Options struct {
	// QueryPrefix is prepended to search queries before embedding.
	QueryPrefix string
	// DocumentPrefix is prepended to chunk text before embedding.
	DocumentPrefix string
}

// ChromemStore implements VectorStore using chromem-go.
type ChromemStore struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	docFunc    chromem.EmbeddingFunc
	queryFunc  chromem.EmbeddingFunc
}

// NewChromemStore creates a new in-memory ChromemStore.
func NewChromemStore(embedder embeddings.Embedder, opts Options) (*ChromemStore, error) {
	db := chromem.NewDB()
	docFunc := embeddings.ToChromemFunc(embeddings.Prefixed{Embedder: embedder, Prefix: opts.DocumentPrefix})
	queryFunc := embeddings.ToChromemFunc(embeddings.Prefixed{Embedder: embedder, Prefix: opts.QueryPrefix})

	col, err := db.GetOrCreateCollection(collectionName, nil, docFunc)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{
		db:         db,
		collection: col,
		docFunc:    docFunc,
		queryFunc:  queryFunc,
	}, nil
}

func (s *ChromemStore) col() *chromem.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection
}

func (s *ChromemStore) AddChunks(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:       c.ID(),
			Content:  c.Text,
			Metadata: chunkToMetadata(c),
		}
	}
	return s.col().AddDocuments(ctx, docs, 1)
}

func (s *ChromemStore) Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error) {
	col := s.col()
	if limit <= 0 {
		limit = 10
	}

	// chromem-go requires nResults <= collection size.
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	limit = min(limit, count)

	var where map[string]string
	if filter != nil && filter.DocName != nil {
		where = map[string]string{"doc_name": *filter.DocName}
	}

	vec, err := s.queryFunc(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	results, err := col.QueryEmbedding(ctx, vec, limit, where, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			Chunk:      metadataToChunk(r.ID, r.Content, r.Metadata),
			Similarity: r.Similarity,
		}
	}
	return out, nil
}

// GetChunks walks chunk ids upward from zero until the first gap, so it
// never needs to embed anything.
func (s *ChromemStore) GetChunks(ctx context.Context, docName string) ([]Chunk, error) {
	col := s.col()
	var chunks []Chunk
	for i := 0; ; i++ {
		doc, err := col.GetByID(ctx, ChunkKey(docName, i))
		if err != nil {
			break
		}
		chunks = append(chunks, metadataToChunk(doc.ID, doc.Content, doc.Metadata))
	}
	return chunks, nil
}

func (s *ChromemStore) DeleteByDocName(ctx context.Context, docName string) error {
	return s.col().Delete(ctx, map[string]string{"doc_name": docName}, nil)
}

func (s *ChromemStore) Persist(_ context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}
	if err := s.db.ExportToFile(path, true, ""); err != nil {
		return fmt.Errorf("export to file: %w", err)
	}
	return nil
}

func (s *ChromemStore) Load(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.ImportFromFile(path, ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.docFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

// LoadIfExists loads path when the file is present and is a no-op otherwise.
func (s *ChromemStore) LoadIfExists(ctx context.Context, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return s.Load(ctx, path)
}

func (s *ChromemStore) Count() int {
	return s.col().Count()
}
