// Package retrieval turns vector-store lookups into scored evidence for a
// completion prompt.
package retrieval

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/ziadkadry99/runbookqa/internal/vectordb"
)

// DefaultMinSimilarity is the lowest score a hit may have and still count
// as evidence.
const DefaultMinSimilarity = 0.55

// DefaultTopK is the number of neighbours fetched per lookup.
const DefaultTopK = 10

// Hit is one scored chunk returned by a Retriever. Score is a similarity in [0,1].
type Hit struct {
	DocName string  `json:"doc_name"`
	ChunkID int     `json:"chunk_id"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

// Retriever maps a text query to at most topK stored chunks ordered by
// descending similarity. An empty store yields an empty slice, not an error.
type Retriever interface {
	Query(ctx context.Context, text string, topK int) ([]Hit, error)
}

// Searcher is the read side of a vector store.
type Searcher interface {
	Search(ctx context.Context, query string, limit int, filter *vectordb.SearchFilter) ([]vectordb.SearchResult, error)
}

// StoreRetriever adapts a vector store to the Retriever contract.
type StoreRetriever struct {
	store Searcher
}

// NewStoreRetriever wraps a vector store.
func NewStoreRetriever(store Searcher) *StoreRetriever {
	return &StoreRetriever{store: store}
}

func (r *StoreRetriever) Query(ctx context.Context, text string, topK int) ([]Hit, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	results, err := r.store.Search(ctx, text, topK, nil)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, res := range results {
		hits = append(hits, Hit{
			DocName: res.Chunk.DocName,
			ChunkID: res.Chunk.ChunkID,
			Text:    res.Chunk.Text,
			Score:   clamp01(float64(res.Similarity)),
		})
	}
	SortByScore(hits)
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// FromDistance converts a cosine-style distance into a similarity score.
func FromDistance(distance float64) float64 {
	return clamp01(1 - distance)
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}

// SortByScore orders hits by descending score, keeping arrival order on ties.
func SortByScore(hits []Hit) {
	slices.SortStableFunc(hits, func(a, b Hit) int {
		return cmp.Compare(b.Score, a.Score)
	})
}

// Filter keeps the hits whose score is at least minSimilarity, in their
// original order.
func Filter(hits []Hit, minSimilarity float64) []Hit {
	kept := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if h.Score >= minSimilarity {
			kept = append(kept, h)
		}
	}
	return kept
}

// BuildContext concatenates hits into one prompt block, each tagged with
// its score. No hits produce an empty string.
func BuildContext(hits []Hit) string {
	var sb strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&sb, "\n\n--- Retrieved Chunk (score=%.3f) ---\n%s", h.Score, h.Text)
	}
	return sb.String()
}

// Sources returns the distinct document names of hits, sorted.
func Sources(hits []Hit) []string {
	seen := make(map[string]bool, len(hits))
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		if !seen[h.DocName] {
			seen[h.DocName] = true
			out = append(out, h.DocName)
		}
	}
	slices.Sort(out)
	return out
}
