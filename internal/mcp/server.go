// Package mcp exposes the question-answering pipeline and the document
// corpus as MCP tools over stdio, so coding assistants and agent hosts can
// query the corpus directly.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/lexrag/lexrag/internal/pipeline"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Asker is the pipeline surface the MCP tools consume.
type Asker interface {
	Ask(ctx context.Context, q pipeline.Query) (*pipeline.Answer, error)
}

// Server wraps an MCP server exposing corpus question-answering tools.
type Server struct {
	pipe  Asker
	index pipeline.IndexClient
	mcp   *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(pipe Asker, index pipeline.IndexClient) *Server {
	s := &Server{
		pipe:  pipe,
		index: index,
	}

	s.mcp = server.NewMCPServer(
		"lexrag",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(askTool, s.handleAsk)
	s.mcp.AddTool(searchCorpusTool, s.handleSearchCorpus)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
