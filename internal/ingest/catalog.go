package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/runbookqa/internal/db"
)

// ErrDocumentNotFound is returned for names missing from the catalogue.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentInfo is a catalogue row for one ingested document.
type DocumentInfo struct {
	Name       string    `json:"doc_name"`
	ChunkCount int       `json:"chunk_count"`
	Source     string    `json:"source"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Catalog records which documents are in the vector store.
type Catalog struct {
	db *db.DB
}

// NewCatalog creates a catalogue backed by the documents table.
func NewCatalog(database *db.DB) *Catalog {
	return &Catalog{db: database}
}

// Record inserts or replaces the row for info.Name.
func (c *Catalog) Record(ctx context.Context, info DocumentInfo) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO documents (doc_name, chunk_count, source, ingested_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(doc_name) DO UPDATE SET chunk_count = excluded.chunk_count,
		   source = excluded.source, ingested_at = excluded.ingested_at`,
		info.Name, info.ChunkCount, info.Source, info.IngestedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording document %s: %w", info.Name, err)
	}
	return nil
}

// Get returns the catalogue row for name.
func (c *Catalog) Get(ctx context.Context, name string) (*DocumentInfo, error) {
	var info DocumentInfo
	err := c.db.QueryRowContext(ctx,
		`SELECT doc_name, chunk_count, source, ingested_at FROM documents WHERE doc_name = ?`, name,
	).Scan(&info.Name, &info.ChunkCount, &info.Source, &info.IngestedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return &info, nil
}

// List returns every catalogued document sorted by name.
func (c *Catalog) List(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT doc_name, chunk_count, source, ingested_at FROM documents ORDER BY doc_name`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []DocumentInfo{}
	for rows.Next() {
		var info DocumentInfo
		if err := rows.Scan(&info.Name, &info.ChunkCount, &info.Source, &info.IngestedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, info)
	}
	return docs, rows.Err()
}
