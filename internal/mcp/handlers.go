package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lexrag/lexrag/internal/pipeline"
)

// handleAsk runs the full pipeline and formats the cited answer.
func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	answer, err := s.pipe.Ask(ctx, pipeline.Query{
		ID:   uuid.NewString(),
		Text: question,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatAnswer(answer)), nil
}

// handleSearchCorpus searches the index directly, skipping generation.
func (s *Server) handleSearchCorpus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	var hits []pipeline.SearchHit
	switch request.GetString("method", "vector") {
	case "keyword":
		hits, err = s.index.KeywordSearch(ctx, query, limit)
	default:
		hits, err = s.index.VectorSearch(ctx, query, limit)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(hits) == 0 {
		return mcp.NewToolResultText("No results found. The corpus may not be loaded yet. Run `lexrag corpus load` to index documents."), nil
	}

	return mcp.NewToolResultText(formatSearchResults(hits)), nil
}

func formatAnswer(answer *pipeline.Answer) string {
	var b strings.Builder

	b.WriteString(answer.Text)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Confidence: %d/100\n", answer.Confidence)

	if len(answer.VersionWarnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range answer.VersionWarnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	if len(answer.Citations) > 0 {
		b.WriteString("\nSources:\n")
		for _, c := range answer.Citations {
			fmt.Fprintf(&b, "[%d] %s (version %s", c.Index, c.DocumentName, c.DocumentVersion)
			if c.Section != "" {
				fmt.Fprintf(&b, ", %s", c.Section)
			}
			if c.Page > 0 {
				fmt.Fprintf(&b, ", p. %d", c.Page)
			}
			b.WriteString(")\n")
		}
	}

	return b.String()
}

func formatSearchResults(hits []pipeline.SearchHit) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Found %d passages:\n\n", len(hits))
	for i, h := range hits {
		fmt.Fprintf(&b, "%d. %s (version %s", i+1, h.DocumentName, h.DocumentVersion)
		if h.Section != "" {
			fmt.Fprintf(&b, ", %s", h.Section)
		}
		if h.Page > 0 {
			fmt.Fprintf(&b, ", p. %d", h.Page)
		}
		fmt.Fprintf(&b, ") score=%.3f\n", h.Score)

		content := h.Content
		if len(content) > 500 {
			content = content[:500] + "..."
		}
		b.WriteString(content)
		b.WriteString("\n\n")
	}

	return b.String()
}
