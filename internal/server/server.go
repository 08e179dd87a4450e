package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phuslu/log"

	"github.com/ziadkadry99/runbookqa/internal/assistant"
	"github.com/ziadkadry99/runbookqa/internal/backlog"
	"github.com/ziadkadry99/runbookqa/internal/history"
	"github.com/ziadkadry99/runbookqa/internal/ingest"
	"github.com/ziadkadry99/runbookqa/internal/markdown"
	"github.com/ziadkadry99/runbookqa/internal/vectordb"
)

// DefaultRequestTimeout bounds a whole request, including every model call.
const DefaultRequestTimeout = 60 * time.Second

// Config holds server configuration.
type Config struct {
	Port           int
	AllowAll       bool // allow all CORS origins (dev mode)
	RequestTimeout time.Duration
	// EnrichBelow and EnrichLimit control merging of persisted turns into
	// short client histories.
	EnrichBelow int
	EnrichLimit int
}

// Answerer runs one conversational turn.
type Answerer interface {
	Answer(ctx context.Context, query string, history []assistant.Turn, state assistant.State) (*assistant.Result, error)
}

// RunbookReader reads runbook files by id or name.
type RunbookReader interface {
	Get(identifier string) (string, error)
}

// Deps are the collaborators behind the API. Engine is required; routes
// whose dependency is nil answer 503. Without Backlog, unanswered questions
// are not recorded and /api/backlog is not mounted.
type Deps struct {
	Engine   Answerer
	History  *history.Store
	Runbooks RunbookReader
	Store    vectordb.VectorStore
	Ingester *ingest.Ingester
	Catalog  *ingest.Catalog
	Renderer *markdown.Renderer
	Backlog  *backlog.Store
}

// Server is the HTTP front end of the knowledge base.
type Server struct {
	cfg        Config
	deps       Deps
	router     chi.Router
	httpServer *http.Server
}

// New creates a new server with all dependencies.
func New(cfg Config, deps Deps) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	s := &Server{cfg: cfg, deps: deps}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// The websocket manages its own per-turn deadlines.
	r.Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))

		r.Route("/api", func(r chi.Router) {
			r.Post("/ask", s.handleAsk)

			r.Get("/chats", s.handleListChats)
			r.Post("/chats", s.handleSaveChat)
			r.Delete("/chats/{id}", s.handleDeleteChat)
			r.Get("/chats/{id}/messages", s.handleChatMessages)

			r.Get("/runbooks", s.handleListRunbooks)
			r.Get("/runbooks/{id}", s.handleGetRunbook)

			r.Get("/documents", s.handleListDocuments)
			r.Get("/documents/{name}", s.handleGetDocument)
			r.Post("/documents", s.handleUploadDocument)

			if s.deps.Backlog != nil {
				backlog.RegisterRoutes(r, s.deps.Backlog)
			}
		})
	})

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("runbookqa server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
