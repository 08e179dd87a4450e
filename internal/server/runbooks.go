package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/runbookqa/internal/runbooks"
)

func (s *Server) handleListRunbooks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"runbooks": runbooks.Catalogue})
}

func (s *Server) handleGetRunbook(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runbooks == nil {
		writeError(w, http.StatusServiceUnavailable, "runbooks are not configured")
		return
	}
	id := chi.URLParam(r, "id")

	content, err := s.deps.Runbooks.Get(id)
	var notFound *runbooks.NotFoundError
	switch {
	case errors.Is(err, runbooks.ErrAccessDenied):
		writeError(w, http.StatusForbidden, runbooks.AccessDeniedMessage)
		return
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	name := id
	if e, ok := runbooks.Lookup(id); ok {
		name = e.Name
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "name": name, "content": content})
}
