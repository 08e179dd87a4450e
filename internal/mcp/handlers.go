package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/runbookqa/internal/assistant"
	"github.com/ziadkadry99/runbookqa/internal/retrieval"
	"github.com/ziadkadry99/runbookqa/internal/runbooks"
)

// handleAsk runs one conversation turn. The caller carries the offer state
// between calls through the phase and pending_* arguments.
func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	state := assistant.State{
		Phase:          assistant.Phase(request.GetString("phase", "")),
		PendingQuery:   request.GetString("pending_query", ""),
		PendingRunbook: request.GetString("pending_runbook", ""),
	}
	switch state.Phase {
	case assistant.PhaseUnknown, assistant.PhaseNormal, assistant.PhaseAwaitingPortion, assistant.PhaseAwaitingRunbook:
	default:
		return mcp.NewToolResultError(fmt.Sprintf("invalid phase: %q", state.Phase)), nil
	}

	res, err := s.engine.Answer(ctx, query, nil, state)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("answering failed: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(res.Answer)
	if len(res.Sources) > 0 {
		sb.WriteString("\n\nSources: ")
		sb.WriteString(strings.Join(res.Sources, ", "))
	}
	if next := res.State; next.Phase == assistant.PhaseAwaitingPortion || next.Phase == assistant.PhaseAwaitingRunbook {
		sb.WriteString(fmt.Sprintf("\n\nTo reply to this offer, call ask_knowledge_base again with phase=%q, pending_query=%q, pending_runbook=%q.",
			next.Phase, next.PendingQuery, next.PendingRunbook))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleSearch returns raw retrieval hits.
func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", retrieval.DefaultTopK)
	if limit <= 0 {
		limit = retrieval.DefaultTopK
	}

	hits, err := s.retriever.Query(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(hits) == 0 {
		return mcp.NewToolResultText("No results found. The knowledge base may be empty. Run `runbookqa ingest` to add documents."), nil
	}

	return mcp.NewToolResultText(formatHits(hits)), nil
}

// handleGetRunbook returns the full text of one runbook.
func (s *Server) handleGetRunbook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}

	content, err := s.runbooks.Get(name)
	if err != nil {
		var notFound *runbooks.NotFoundError
		switch {
		case errors.Is(err, runbooks.ErrAccessDenied):
			return mcp.NewToolResultError(runbooks.AccessDeniedMessage), nil
		case errors.As(err, &notFound):
			return mcp.NewToolResultError(notFound.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to read runbook: %v", err)), nil
	}

	return mcp.NewToolResultText(content), nil
}

// handleListRunbooks lists the catalogue.
func (s *Server) handleListRunbooks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	for _, e := range runbooks.Catalogue {
		sb.WriteString(fmt.Sprintf("- %s (%s)", e.Name, e.ID))
		if e.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(e.Description)
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// formatHits converts retrieval hits into a text format suited to agents.
func formatHits(hits []retrieval.Hit) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n", len(hits)))

	for i, h := range hits {
		sb.WriteString(fmt.Sprintf("\n--- Result %d ---\n", i+1))
		sb.WriteString(fmt.Sprintf("Document: %s (chunk %d)\n", h.DocName, h.ChunkID))
		sb.WriteString(fmt.Sprintf("Similarity: %.1f%%\n", h.Score*100))
		sb.WriteString("\n")
		sb.WriteString(h.Text)
		sb.WriteString("\n")
	}

	return sb.String()
}
