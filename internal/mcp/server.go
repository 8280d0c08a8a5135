// Package mcp exposes the lecture catalog to MCP clients over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/lecturedoc/internal/search"
	"github.com/ziadkadry99/lecturedoc/internal/viewer"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Searcher answers semantic queries over lecture sections.
type Searcher interface {
	Search(ctx context.Context, query string, limit int, lectureID string) ([]search.Hit, error)
}

// Server wraps an MCP server that exposes lecture tools.
type Server struct {
	viewer *viewer.Viewer
	index  Searcher
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server. index may be nil, in which case
// search_lectures reports that search is not configured.
func NewServer(v *viewer.Viewer, index Searcher) *Server {
	s := &Server{
		viewer: v,
		index:  index,
	}

	s.mcp = server.NewMCPServer(
		"lecturedoc",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listLecturesTool, s.handleListLectures)
	s.mcp.AddTool(getLectureTool, s.handleGetLecture)
	s.mcp.AddTool(searchLecturesTool, s.handleSearchLectures)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
