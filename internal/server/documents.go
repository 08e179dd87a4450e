package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/runbookqa/internal/ingest"
)

// maxUploadSize bounds multipart uploads.
const maxUploadSize = 32 << 20

type chunkView struct {
	ChunkID int    `json:"chunk_id"`
	Text    string `json:"text"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.deps.Catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "document catalogue is not configured")
		return
	}
	docs, err := s.deps.Catalog.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "vector store is not configured")
		return
	}
	name := chi.URLParam(r, "name")

	chunks, err := s.deps.Store.GetChunks(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(chunks) == 0 {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	views := make([]chunkView, len(chunks))
	for i, c := range chunks {
		views[i] = chunkView{ChunkID: c.ChunkID, Text: c.Text}
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc_name": name, "chunks": views})
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ingester == nil {
		writeError(w, http.StatusServiceUnavailable, "ingestion is not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload failed")
		return
	}

	res, err := s.deps.Ingester.IngestUpload(r.Context(), header.Filename, data)
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "Only TXT and MD files allowed")
		return
	case errors.Is(err, ingest.ErrEmptyDocument):
		writeError(w, http.StatusBadRequest, "Could not extract text")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Document uploaded successfully!",
		"doc_name": res.DocName,
		"chunks":   res.Chunks,
	})
}
