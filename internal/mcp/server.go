package mcp

import (
	"context"

	"github.com/mike-a-ellis/mentor-index/internal/search"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server   *mcp.Server
	searcher *search.Searcher
}

// Config holds server dependencies.
type Config struct {
	Searcher *search.Searcher
	Version  string
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "v0.1.0"
	}
	impl := &mcp.Implementation{
		Name:    "asu-mentor-index",
		Version: version,
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_content",
		Description: "Search the ASU entrepreneurship mentor knowledge base (video transcripts, ASU resources, startup frameworks). Returns prompt-ready context and source citations.",
	}, makeSearchHandler(cfg.Searcher))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_index_status",
		Description: "Report whether the mentor knowledge base index is available and how many vectors it holds.",
	}, makeStatusHandler(cfg.Searcher))

	return &Server{
		server:   server,
		searcher: cfg.Searcher,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
