package vectordb

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// mockEmbedder returns deterministic embeddings based on text content.
// Shared characters contribute to the same positions, so similar texts
// produce similar vectors.
type mockEmbedder struct {
	dims  int
	calls []string
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		m.calls = append(m.calls, text)
		results[i] = m.deterministicVector(text)
	}
	return results, nil
}

func (m *mockEmbedder) Name() string { return "mock" }

func (m *mockEmbedder) deterministicVector(text string) []float32 {
	vec := make([]float32, m.dims)
	for i, ch := range text {
		idx := (int(ch) + i) % m.dims
		vec[idx] += 1.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

func sampleChunks() []Chunk {
	now := time.Now().Truncate(time.Second)
	return []Chunk{
		{DocName: "01_SAP_TRM_Operational_Procedures", ChunkID: 0, Text: "Daily deal capture in transaction FTR_CREATE", Source: "runbooks/ops.md", IngestedAt: now},
		{DocName: "01_SAP_TRM_Operational_Procedures", ChunkID: 1, Text: "Settlement of money market deals via TBB1 posting", Source: "runbooks/ops.md", IngestedAt: now},
		{DocName: "02_SAP_TRM_Incident_Response", ChunkID: 0, Text: "Escalation path for a liquidity shortfall incident", Source: "runbooks/inc.md", IngestedAt: now},
	}
}

func newStore(t *testing.T, opts Options) (*ChromemStore, *mockEmbedder) {
	t.Helper()
	emb := newMockEmbedder(64)
	store, err := NewChromemStore(emb, opts)
	if err != nil {
		t.Fatalf("NewChromemStore failed: %v", err)
	}
	return store, emb
}

func addSample(t *testing.T, store *ChromemStore, chunks []Chunk) {
	t.Helper()
	if err := store.AddChunks(context.Background(), chunks); err != nil {
		t.Fatalf("AddChunks failed: %v", err)
	}
}

func TestChromemStore_AddAndSearch(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, Options{})
	addSample(t, store, sampleChunks())
	if store.Count() != 3 {
		t.Fatalf("expected 3 chunks, got %d", store.Count())
	}

	results, err := store.Search(ctx, "deal settlement posting", 2, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) == 0 || len(results) > 2 {
		t.Fatalf("expected 1-2 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Similarity == 0 {
			t.Errorf("result %d has zero similarity", i)
		}
		if r.Chunk.DocName == "" {
			t.Errorf("result %d has empty doc name", i)
		}
		if i > 0 && results[i-1].Similarity < r.Similarity {
			t.Errorf("results not sorted by similarity at %d", i)
		}
	}
}

func TestChromemStore_SearchClampsLimitAndHandlesEmpty(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, Options{})

	results, err := store.Search(ctx, "anything", 10, nil)
	if err != nil {
		t.Fatalf("Search on empty store failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}

	addSample(t, store, sampleChunks())
	results, err = store.Search(ctx, "anything", 10, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected limit clamped to 3, got %d", len(results))
	}
}

func TestChromemStore_SearchWithFilter(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, Options{})
	addSample(t, store, sampleChunks())

	doc := "02_SAP_TRM_Incident_Response"
	results, err := store.Search(ctx, "incident", 3, &SearchFilter{DocName: &doc})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected filtered results")
	}
	for _, r := range results {
		if r.Chunk.DocName != doc {
			t.Errorf("filter leaked %q", r.Chunk.DocName)
		}
	}
}

func TestChromemStore_Prefixes(t *testing.T) {
	ctx := context.Background()
	store, emb := newStore(t, Options{QueryPrefix: "query: ", DocumentPrefix: "passage: "})
	addSample(t, store, sampleChunks()[:1])
	if _, err := store.Search(ctx, "deal capture", 1, nil); err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(emb.calls) != 2 {
		t.Fatalf("expected 2 embed calls, got %d", len(emb.calls))
	}
	if !strings.HasPrefix(emb.calls[0], "passage: ") {
		t.Errorf("document embedded without prefix: %q", emb.calls[0])
	}
	if emb.calls[1] != "query: deal capture" {
		t.Errorf("query embedded as %q", emb.calls[1])
	}
}

func TestChromemStore_GetChunksOrdered(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, Options{})
	addSample(t, store, sampleChunks())

	chunks, err := store.GetChunks(ctx, "01_SAP_TRM_Operational_Procedures")
	if err != nil {
		t.Fatalf("GetChunks failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].ChunkID != 0 || chunks[1].ChunkID != 1 {
		t.Errorf("chunks out of order: %d, %d", chunks[0].ChunkID, chunks[1].ChunkID)
	}
	if chunks[1].Source != "runbooks/ops.md" {
		t.Errorf("source = %q", chunks[1].Source)
	}

	chunks, err = store.GetChunks(ctx, "missing")
	if err != nil {
		t.Fatalf("GetChunks for missing doc failed: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestChromemStore_DeleteByDocName(t *testing.T) {
	store, _ := newStore(t, Options{})
	addSample(t, store, sampleChunks())

	if err := store.DeleteByDocName(context.Background(), "01_SAP_TRM_Operational_Procedures"); err != nil {
		t.Fatalf("DeleteByDocName failed: %v", err)
	}
	if store.Count() != 1 {
		t.Errorf("expected 1 chunk left, got %d", store.Count())
	}
}

func TestChromemStore_PersistAndLoad(t *testing.T) {
	ctx := context.Background()
	store, emb := newStore(t, Options{})
	chunks := sampleChunks()
	addSample(t, store, chunks)

	path := filepath.Join(t.TempDir(), "nested", "vectordb.gob.gz")
	if err := store.Persist(ctx, path); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	store2, err := NewChromemStore(emb, Options{})
	if err != nil {
		t.Fatalf("NewChromemStore failed: %v", err)
	}
	if err := store2.Load(ctx, path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if store2.Count() != 3 {
		t.Errorf("expected 3 chunks after load, got %d", store2.Count())
	}

	got, err := store2.GetChunks(ctx, "02_SAP_TRM_Incident_Response")
	if err != nil {
		t.Fatalf("GetChunks failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0].Text != chunks[2].Text {
		t.Errorf("text = %q", got[0].Text)
	}
	if !chunks[2].IngestedAt.Equal(got[0].IngestedAt) {
		t.Errorf("ingested_at = %v, want %v", got[0].IngestedAt, chunks[2].IngestedAt)
	}
}

func TestChromemStore_LoadIfExistsMissing(t *testing.T) {
	store, _ := newStore(t, Options{})
	if err := store.LoadIfExists(context.Background(), filepath.Join(t.TempDir(), "none.gob.gz")); err != nil {
		t.Fatalf("LoadIfExists failed: %v", err)
	}
	if store.Count() != 0 {
		t.Errorf("expected empty store, got %d", store.Count())
	}
}

func TestChunkKeyAndMetadataFallback(t *testing.T) {
	if got := ChunkKey("guide", 7); got != "guide#7" {
		t.Errorf("ChunkKey = %q", got)
	}
	c := metadataToChunk("guide#7", "text", map[string]string{"doc_name": "guide"})
	if c.ChunkID != 7 {
		t.Errorf("chunk id from key = %d, want 7", c.ChunkID)
	}
}

func TestFormatResults(t *testing.T) {
	output := FormatResults([]SearchResult{{
		Chunk:      Chunk{DocName: "02_SAP_TRM_Incident_Response", ChunkID: 3, Text: "Escalate to treasury lead", Source: "runbooks/inc.md"},
		Similarity: 0.9512,
	}})
	for _, want := range []string{"02_SAP_TRM_Incident_Response (chunk 3)", "0.9512", "Escalate to treasury lead"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestFormatResults_Empty(t *testing.T) {
	if got := FormatResults(nil); got != "No results found." {
		t.Errorf("got %q", got)
	}
}
