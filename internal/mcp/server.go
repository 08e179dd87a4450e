package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/runbookqa/internal/assistant"
	"github.com/ziadkadry99/runbookqa/internal/retrieval"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Answerer runs one conversation turn.
type Answerer interface {
	Answer(ctx context.Context, query string, history []assistant.Turn, state assistant.State) (*assistant.Result, error)
}

// RunbookReader returns the content of a runbook by id or file name.
type RunbookReader interface {
	Get(identifier string) (string, error)
}

// Server wraps an MCP server that exposes knowledge base tools.
type Server struct {
	engine    Answerer
	retriever retrieval.Retriever
	runbooks  RunbookReader
	mcp       *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(engine Answerer, retriever retrieval.Retriever, runbooks RunbookReader) *Server {
	s := &Server{
		engine:    engine,
		retriever: retriever,
		runbooks:  runbooks,
	}

	s.mcp = server.NewMCPServer(
		"runbookqa",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(askKnowledgeBaseTool, s.handleAsk)
	s.mcp.AddTool(searchKnowledgeBaseTool, s.handleSearch)
	s.mcp.AddTool(getRunbookTool, s.handleGetRunbook)
	s.mcp.AddTool(listRunbooksTool, s.handleListRunbooks)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
