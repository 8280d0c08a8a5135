package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/lecturedoc/internal/render"
	"github.com/ziadkadry99/lecturedoc/internal/search"
	"github.com/ziadkadry99/lecturedoc/internal/viewer"
)

// ensureLoaded loads the catalog the first time a tool needs it.
func (s *Server) ensureLoaded(ctx context.Context) error {
	if s.viewer.Snapshot() != nil {
		return nil
	}
	return s.viewer.Load(ctx)
}

// handleListLectures lists the lectures and their section headings.
func (s *Server) handleListLectures(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error loading data: %v", err)), nil
	}

	cat := s.viewer.Catalog()
	if cat.Len() == 0 {
		return mcp.NewToolResultText("The catalog has no lectures."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d lecture(s)", cat.Len())
	if s.viewer.Offline() {
		sb.WriteString(" (offline, served from cache)")
	}
	sb.WriteString(":\n")
	for _, l := range cat.Lectures {
		fmt.Fprintf(&sb, "\n%s (id: %s)\n", l.Name, l.ID)
		for i, sec := range l.Sections {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, sec.Heading())
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleGetLecture returns one lecture as markdown or rendered HTML.
func (s *Server) handleGetLecture(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("lecture_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: lecture_id"), nil
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error loading data: %v", err)), nil
	}

	switch format := request.GetString("format", "markdown"); format {
	case "markdown":
		l, err := s.viewer.Lecture(id)
		if err != nil {
			return lectureError(id, err), nil
		}
		return mcp.NewToolResultText(render.TerminalMarkdown(l)), nil
	case "html":
		res, err := s.viewer.Select(ctx, id)
		if err != nil {
			return lectureError(id, err), nil
		}
		return mcp.NewToolResultText(res.HTML), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q", format)), nil
	}
}

func lectureError(id string, err error) *mcp.CallToolResult {
	if errors.Is(err, viewer.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("No lecture with id %q. Use list_lectures to see the available ids.", id))
	}
	return mcp.NewToolResultError(fmt.Sprintf("failed to get lecture: %v", err))
}

// handleSearchLectures performs semantic search over lecture sections.
func (s *Server) handleSearchLectures(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	if s.index == nil {
		return mcp.NewToolResultError("Search is not configured. Set search.provider in .lecturedoc.yml and run `lecturedoc index`."), nil
	}

	limit := request.GetInt("limit", 8)
	hits, err := s.index.Search(ctx, query, limit, request.GetString("lecture_id", ""))
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			return mcp.NewToolResultError("query must not be empty"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(hits) == 0 {
		return mcp.NewToolResultText("No results found. The lectures may not be indexed yet. Run `lecturedoc index` to index them."), nil
	}
	return mcp.NewToolResultText(search.FormatHits(hits)), nil
}
