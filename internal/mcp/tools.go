package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askTool defines the ask MCP tool.
var askTool = mcp.NewTool("ask",
	mcp.WithDescription("Answer a question from the legal document corpus. Returns a cited answer with a confidence score and version warnings."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("Natural language question about the documents"),
	),
)

// searchCorpusTool defines the search_corpus MCP tool.
var searchCorpusTool = mcp.NewTool("search_corpus",
	mcp.WithDescription("Search the document corpus directly without answer generation. Returns matching passages with scores."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 10)"),
	),
	mcp.WithString("method",
		mcp.Description("Search method to use"),
		mcp.Enum("vector", "keyword"),
	),
)
