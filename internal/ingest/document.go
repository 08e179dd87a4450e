// Package ingest turns text documents into chunks in the vector store and
// keeps the document catalogue up to date.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ziadkadry99/runbookqa/internal/walker"
)

var (
	// ErrUnsupportedFormat is returned for files other than .txt and .md.
	ErrUnsupportedFormat = errors.New("only .txt and .md files can be ingested")
	// ErrEmptyDocument is returned when no text could be extracted.
	ErrEmptyDocument = errors.New("could not extract text")
)

// Document is a loaded text document ready for chunking.
type Document struct {
	Name   string
	Text   string
	Source string
}

// Sanitize removes NUL bytes and invalid UTF-8 sequences.
func Sanitize(text string) string {
	return strings.ToValidUTF8(strings.ReplaceAll(text, "\x00", ""), "")
}

// LoadFile reads a supported document from disk.
func LoadFile(path string) (*Document, error) {
	if !walker.IsSupported(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &Document{Name: walker.DocName(path), Text: Sanitize(string(data)), Source: path}, nil
}

// FromUpload builds a document from an uploaded file's name and bytes.
func FromUpload(filename string, data []byte) (*Document, error) {
	if !walker.IsSupported(filename) {
		return nil, ErrUnsupportedFormat
	}
	return &Document{Name: walker.DocName(filename), Text: Sanitize(string(data)), Source: "user_upload"}, nil
}
