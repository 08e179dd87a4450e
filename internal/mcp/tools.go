package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askKnowledgeBaseTool defines the ask_knowledge_base MCP tool.
var askKnowledgeBaseTool = mcp.NewTool("ask_knowledge_base",
	mcp.WithDescription("Ask a question about the knowledge base. Returns a synthesized answer with its source documents. Procedural questions first get an offer; answer it (for example \"yes\" or \"no\") with the phase and pending values the offer reports to receive the runbook portion or a whole runbook."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language question, or a reply to a previous offer"),
	),
	mcp.WithString("phase",
		mcp.Description("Conversation phase reported by the previous call: normal, awaiting_portion or awaiting_full_runbook"),
	),
	mcp.WithString("pending_query",
		mcp.Description("Pending question reported by the previous call"),
	),
	mcp.WithString("pending_runbook",
		mcp.Description("Pending runbook id reported by the previous call"),
	),
)

// searchKnowledgeBaseTool defines the search_knowledge_base MCP tool.
var searchKnowledgeBaseTool = mcp.NewTool("search_knowledge_base",
	mcp.WithDescription("Search the ingested documents semantically. Returns the raw matching chunks without synthesis."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of chunks to return (default 10)"),
	),
)

// getRunbookTool defines the get_runbook MCP tool.
var getRunbookTool = mcp.NewTool("get_runbook",
	mcp.WithDescription("Get the full text of a runbook by catalogue id (for example \"incident\") or file name."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Runbook id or file name"),
	),
)

// listRunbooksTool defines the list_runbooks MCP tool.
var listRunbooksTool = mcp.NewTool("list_runbooks",
	mcp.WithDescription("List the well-known runbooks with their ids and descriptions."),
)
