package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"

	"github.com/ziadkadry99/runbookqa/internal/progress"
	"github.com/ziadkadry99/runbookqa/internal/vectordb"
	"github.com/ziadkadry99/runbookqa/internal/walker"
)

// Options configures an Ingester.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	Include      []string
	Exclude      []string
	// StorePath is where the vector store is persisted after ingestion.
	// Empty disables persistence.
	StorePath string
	Reporter  progress.Reporter
}

// Result summarizes one ingested document.
type Result struct {
	DocName string `json:"doc_name"`
	Chunks  int    `json:"chunks"`
	Source  string `json:"source"`
}

// Ingester chunks documents into a vector store. It is safe for concurrent use.
type Ingester struct {
	store    vectordb.VectorStore
	catalog  *Catalog
	splitter *Splitter
	opts     Options

	mu sync.Mutex
}

// New creates an ingester. catalog may be nil.
func New(store vectordb.VectorStore, catalog *Catalog, opts Options) *Ingester {
	if opts.Reporter == nil {
		opts.Reporter = progress.Nop{}
	}
	return &Ingester{
		store:    store,
		catalog:  catalog,
		splitter: NewSplitter(opts.ChunkSize, opts.ChunkOverlap),
		opts:     opts,
	}
}

// Ingest replaces all chunks of doc.Name with freshly split ones.
func (g *Ingester) Ingest(ctx context.Context, doc *Document) (*Result, error) {
	text := Sanitize(doc.Text)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s: %w", doc.Name, ErrEmptyDocument)
	}
	texts := g.splitter.Split(text)
	if len(texts) == 0 {
		return nil, fmt.Errorf("%s: %w", doc.Name, ErrEmptyDocument)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.store.DeleteByDocName(ctx, doc.Name); err != nil {
		return nil, fmt.Errorf("clearing chunks of %s: %w", doc.Name, err)
	}

	now := time.Now().UTC()
	chunks := make([]vectordb.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = vectordb.Chunk{DocName: doc.Name, ChunkID: i, Text: text, Source: doc.Source, IngestedAt: now}
	}
	if err := g.store.AddChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("storing chunks of %s: %w", doc.Name, err)
	}

	if g.catalog != nil {
		err := g.catalog.Record(ctx, DocumentInfo{Name: doc.Name, ChunkCount: len(chunks), Source: doc.Source, IngestedAt: now})
		if err != nil {
			return nil, err
		}
	}

	log.Info().Str("doc", doc.Name).Int("chunks", len(chunks)).Msg("document ingested")
	return &Result{DocName: doc.Name, Chunks: len(chunks), Source: doc.Source}, nil
}

// IngestUpload ingests a single uploaded file and persists the store.
func (g *Ingester) IngestUpload(ctx context.Context, filename string, data []byte) (*Result, error) {
	doc, err := FromUpload(filename, data)
	if err != nil {
		return nil, err
	}
	res, err := g.Ingest(ctx, doc)
	if err != nil {
		return nil, err
	}
	return res, g.Persist(ctx)
}

// IngestPaths ingests files and directories. Directories are walked with
// the configured include/exclude globs; empty documents are skipped.
func (g *Ingester) IngestPaths(ctx context.Context, paths []string) ([]Result, error) {
	files, err := g.collect(paths)
	if err != nil {
		return nil, err
	}

	reporter := g.opts.Reporter
	reporter.Start(len(files))
	defer reporter.Finish()

	results := make([]Result, 0, len(files))
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		reporter.Update(i+1, walker.DocName(path))

		doc, err := LoadFile(path)
		if err != nil {
			return results, err
		}
		res, err := g.Ingest(ctx, doc)
		if errors.Is(err, ErrEmptyDocument) {
			log.Warn().Str("path", path).Msg("skipping empty document")
			continue
		}
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}

	return results, g.Persist(ctx)
}

func (g *Ingester) collect(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("ingest: %w", err)
		}
		if !info.IsDir() {
			if !walker.IsSupported(p) {
				return nil, fmt.Errorf("%s: %w", p, ErrUnsupportedFormat)
			}
			files = append(files, p)
			continue
		}
		found, err := walker.Walk(walker.WalkerConfig{RootDir: p, Include: g.opts.Include, Exclude: g.opts.Exclude})
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			files = append(files, f.Path)
		}
	}
	return files, nil
}

// Persist writes the vector store to StorePath when one is configured.
func (g *Ingester) Persist(ctx context.Context) error {
	if g.opts.StorePath == "" {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.store.Persist(ctx, g.opts.StorePath); err != nil {
		return fmt.Errorf("persisting vector store: %w", err)
	}
	return nil
}
