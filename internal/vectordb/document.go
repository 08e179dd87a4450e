package vectordb

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Chunk is one overlapping slice of an ingested document.
type Chunk struct {
	DocName    string
	ChunkID    int
	Text       string
	Source     string
	IngestedAt time.Time
}

// ID is the store key of a chunk: "<doc_name>#<chunk_id>".
func (c Chunk) ID() string {
	return ChunkKey(c.DocName, c.ChunkID)
}

// ChunkKey builds the store key for a document chunk.
func ChunkKey(docName string, chunkID int) string {
	return fmt.Sprintf("%s#%d", docName, chunkID)
}

// SearchResult pairs a chunk with its cosine similarity to the query.
type SearchResult struct {
	Chunk      Chunk
	Similarity float32
}

// SearchFilter allows narrowing search results to one document.
type SearchFilter struct {
	DocName *string
}

func chunkToMetadata(c Chunk) map[string]string {
	return map[string]string{
		"doc_name":    c.DocName,
		"chunk_id":    strconv.Itoa(c.ChunkID),
		"source":      c.Source,
		"ingested_at": c.IngestedAt.UTC().Format(time.RFC3339),
	}
}

func metadataToChunk(id, content string, m map[string]string) Chunk {
	chunkID, err := strconv.Atoi(m["chunk_id"])
	if err != nil {
		// Fall back to the key suffix for records written without metadata.
		if i := strings.LastIndex(id, "#"); i >= 0 {
			chunkID, _ = strconv.Atoi(id[i+1:])
		}
	}
	ingestedAt, _ := time.Parse(time.RFC3339, m["ingested_at"])
	return Chunk{
		DocName:    m["doc_name"],
		ChunkID:    chunkID,
		Text:       content,
		Source:     m["source"],
		IngestedAt: ingestedAt,
	}
}
