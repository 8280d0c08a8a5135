package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listLecturesTool defines the list_lectures MCP tool.
var listLecturesTool = mcp.NewTool("list_lectures",
	mcp.WithDescription("List all lectures in the catalog with their ids and section headings."),
)

// getLectureTool defines the get_lecture MCP tool.
var getLectureTool = mcp.NewTool("get_lecture",
	mcp.WithDescription("Get the notes of one lecture, with transcript timestamps removed."),
	mcp.WithString("lecture_id",
		mcp.Required(),
		mcp.Description("Lecture id as returned by list_lectures"),
	),
	mcp.WithString("format",
		mcp.Description("Output format (default markdown)"),
		mcp.Enum("markdown", "html"),
	),
)

// searchLecturesTool defines the search_lectures MCP tool.
var searchLecturesTool = mcp.NewTool("search_lectures",
	mcp.WithDescription("Search lecture sections semantically. Returns matching sections with snippets."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 8)"),
	),
	mcp.WithString("lecture_id",
		mcp.Description("Restrict results to one lecture"),
	),
)
