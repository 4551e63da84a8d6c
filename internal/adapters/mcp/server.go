package mcpadapter

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dkoval/code-search-engine/internal/core/ports"
	"github.com/dkoval/code-search-engine/internal/observability/metrics"
)

const (
	ServerName    = "code-search-engine"
	ServerVersion = "1.0.0"
)

// Server exposes the search pipeline as an MCP tool over stdio.
type Server struct {
	mcp     *server.MCPServer
	search  ports.SearchService
	metrics *metrics.MCPServerMetrics
}

func NewServer(search ports.SearchService, m *metrics.MCPServerMetrics) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:     mcpServer,
		search:  search,
		metrics: m,
	}
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(_ context.Context) error {
	return server.ServeStdio(s.mcp)
}
