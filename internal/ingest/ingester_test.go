package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/runbookqa/internal/db"
	"github.com/ziadkadry99/runbookqa/internal/vectordb"
)

// memStore is a VectorStore keeping chunks in a map.
type memStore struct {
	mu        sync.Mutex
	chunks    map[string]vectordb.Chunk
	persisted []string
}

func newMemStore() *memStore { return &memStore{chunks: map[string]vectordb.Chunk{}} }

func (m *memStore) AddChunks(_ context.Context, chunks []vectordb.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		m.chunks[c.ID()] = c
	}
	return nil
}

func (m *memStore) Search(context.Context, string, int, *vectordb.SearchFilter) ([]vectordb.SearchResult, error) {
	return nil, nil
}

func (m *memStore) GetChunks(_ context.Context, docName string) ([]vectordb.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []vectordb.Chunk
	for _, c := range m.chunks {
		if c.DocName == docName {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkID < out[j].ChunkID })
	return out, nil
}

func (m *memStore) DeleteByDocName(_ context.Context, docName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, c := range m.chunks {
		if c.DocName == docName {
			delete(m.chunks, k)
		}
	}
	return nil
}

func (m *memStore) Persist(_ context.Context, path string) error {
	m.persisted = append(m.persisted, path)
	return nil
}

func (m *memStore) Load(context.Context, string) error { return nil }

func (m *memStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks)
}

func newTestIngester(t *testing.T, opts Options) (*Ingester, *memStore, *Catalog) {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	store := newMemStore()
	catalog := NewCatalog(database)
	return New(store, catalog, opts), store, catalog
}

func TestIngestReplacesDocument(t *testing.T) {
	g, store, catalog := newTestIngester(t, Options{ChunkSize: 40, ChunkOverlap: 0})
	ctx := context.Background()

	long := strings.Repeat("Settlement step. ", 10)
	res, err := g.Ingest(ctx, &Document{Name: "ops", Text: long, Source: "ops.md"})
	require.NoError(t, err)
	assert.Greater(t, res.Chunks, 1)
	assert.Equal(t, res.Chunks, store.Count())

	chunks, _ := store.GetChunks(ctx, "ops")
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkID)
	}

	res, err = g.Ingest(ctx, &Document{Name: "ops", Text: "Short now.", Source: "ops.md"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Chunks)
	assert.Equal(t, 1, store.Count(), "old chunks are removed")

	info, err := catalog.Get(ctx, "ops")
	require.NoError(t, err)
	assert.Equal(t, 1, info.ChunkCount)
	assert.Equal(t, "ops.md", info.Source)
}

func TestIngestEmpty(t *testing.T) {
	g, _, _ := newTestIngester(t, Options{})
	_, err := g.Ingest(context.Background(), &Document{Name: "blank", Text: " \x00 "})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestIngestSanitizesDirectDocuments(t *testing.T) {
	g, store, _ := newTestIngester(t, Options{})
	_, err := g.Ingest(context.Background(), &Document{Name: "ops", Text: "Post\x00 with TBB1."})
	require.NoError(t, err)

	chunks, _ := store.GetChunks(context.Background(), "ops")
	require.Len(t, chunks, 1)
	assert.Equal(t, "Post with TBB1.", chunks[0].Text)
}

func TestIngestUpload(t *testing.T) {
	g, store, _ := newTestIngester(t, Options{StorePath: "/tmp/store.gob.gz"})

	res, err := g.IngestUpload(context.Background(), "02_Incident.TXT", []byte("Escalate\x00 to the treasury lead."))
	require.NoError(t, err)
	assert.Equal(t, "02_Incident", res.DocName)
	assert.Equal(t, "user_upload", res.Source)
	assert.Equal(t, []string{"/tmp/store.gob.gz"}, store.persisted)

	chunks, _ := store.GetChunks(context.Background(), "02_Incident")
	require.Len(t, chunks, 1)
	assert.Equal(t, "Escalate to the treasury lead.", chunks[0].Text)

	_, err = g.IngestUpload(context.Background(), "report.pdf", []byte("%PDF"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestIngestPaths(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	write("docs/a.md", "Alpha runbook.")
	write("docs/b.txt", "Bravo notes.")
	write("docs/empty.md", "   ")
	write("docs/draft/c.md", "Draft.")
	write("docs/image.png", "png")
	single := write("extra.txt", "Extra.")

	g, store, catalog := newTestIngester(t, Options{Exclude: []string{"**/draft/**"}, StorePath: filepath.Join(dir, "vectordb.gob.gz")})
	results, err := g.IngestPaths(context.Background(), []string{filepath.Join(dir, "docs"), single})
	require.NoError(t, err)

	var names []string
	for _, r := range results {
		names = append(names, r.DocName)
	}
	assert.Equal(t, []string{"a", "b", "extra"}, names)
	assert.Equal(t, 3, store.Count())
	assert.Len(t, store.persisted, 1)

	docs, err := catalog.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "a", docs[0].Name)

	_, err = g.IngestPaths(context.Background(), []string{filepath.Join(dir, "docs", "image.png")})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = g.IngestPaths(context.Background(), []string{filepath.Join(dir, "missing")})
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCatalogNotFound(t *testing.T) {
	_, _, catalog := newTestIngester(t, Options{})
	_, err := catalog.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	docs, err := catalog.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "abc", Sanitize("a\x00b\xffc"))
}
